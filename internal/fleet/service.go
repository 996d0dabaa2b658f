// Package fleet is the intake point for vessels and scheduled sailings.
// Everything downstream, from crew assignment to manifest generation, refers
// to records created here.
package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"manifestgate/internal/audit"
	"manifestgate/internal/domain"
	"manifestgate/internal/storage"
	pkgerrors "manifestgate/pkg/errors"
	"manifestgate/pkg/requestcontext"
)

type Service struct {
	vessels  storage.VesselStore
	sailings storage.SailingStore
	ledger   *audit.Ledger
}

func NewService(vessels storage.VesselStore, sailings storage.SailingStore, ledger *audit.Ledger) *Service {
	return &Service{vessels: vessels, sailings: sailings, ledger: ledger}
}

// CreateVesselRequest carries the vessel registration form. GrossTonnage of
// zero means unknown and disables tonnage-fallback manning checks.
type CreateVesselRequest struct {
	Name         string
	IMONumber    string
	Type         string
	GrossTonnage float64
	HomeFlag     string
}

func (s *Service) CreateVessel(ctx context.Context, req CreateVesselRequest) (domain.Vessel, error) {
	var violations []pkgerrors.Violation
	if req.Name == "" {
		violations = append(violations, pkgerrors.Violation{Field: "name", Code: "REQUIRED", Message: "vessel name is required"})
	}
	vesselType := domain.VesselType(req.Type)
	if !knownVesselType(vesselType) {
		violations = append(violations, pkgerrors.Violation{Field: "type", Code: "UNKNOWN_TYPE",
			Message: fmt.Sprintf("vessel type %q is not recognized", req.Type)})
	}
	if req.GrossTonnage < 0 {
		violations = append(violations, pkgerrors.Violation{Field: "grossTonnage", Code: "INVALID_TONNAGE",
			Message: "gross tonnage cannot be negative"})
	}
	if len(violations) > 0 {
		return domain.Vessel{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid vessel", violations)
	}

	now := requestcontext.Now(ctx)
	vessel := domain.Vessel{
		ID:           uuid.New(),
		Name:         req.Name,
		IMONumber:    req.IMONumber,
		Type:         vesselType,
		GrossTonnage: req.GrossTonnage,
		HomeFlag:     req.HomeFlag,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.vessels.SaveVessel(ctx, vessel); err != nil {
		return domain.Vessel{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityVessel,
		EntityID:   vessel.ID.String(),
		Action:     domain.ActionCreate,
		After: map[string]any{
			"name":         vessel.Name,
			"type":         string(vessel.Type),
			"grossTonnage": vessel.GrossTonnage,
			"homeFlag":     vessel.HomeFlag,
		},
	})
	return vessel, nil
}

func (s *Service) GetVessel(ctx context.Context, id uuid.UUID) (domain.Vessel, error) {
	vessel, err := s.vessels.FindVessel(ctx, id)
	if err != nil {
		return domain.Vessel{}, pkgerrors.New(pkgerrors.CodeNotFound, "vessel not found")
	}
	return vessel, nil
}

// CreateSailingRequest schedules one departure. DepartureTime uses RFC 3339;
// RoutePorts defaults to the departure and arrival ports when omitted.
type CreateSailingRequest struct {
	VesselID      uuid.UUID
	DeparturePort string
	ArrivalPort   string
	DepartureTime string
	RoutePorts    []string
}

func (s *Service) CreateSailing(ctx context.Context, req CreateSailingRequest) (domain.Sailing, error) {
	if _, err := s.vessels.FindVessel(ctx, req.VesselID); err != nil {
		return domain.Sailing{}, pkgerrors.New(pkgerrors.CodeNotFound, "vessel not found")
	}

	var violations []pkgerrors.Violation
	if req.DeparturePort == "" {
		violations = append(violations, pkgerrors.Violation{Field: "departurePort", Code: "REQUIRED", Message: "departure port is required"})
	}
	if req.ArrivalPort == "" {
		violations = append(violations, pkgerrors.Violation{Field: "arrivalPort", Code: "REQUIRED", Message: "arrival port is required"})
	}
	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		violations = append(violations, pkgerrors.Violation{Field: "departureTime", Code: "MALFORMED_DATE",
			Message: "departure time must be formatted RFC 3339"})
	}
	if len(violations) > 0 {
		return domain.Sailing{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid sailing", violations)
	}

	routePorts := req.RoutePorts
	if len(routePorts) == 0 {
		routePorts = []string{req.DeparturePort, req.ArrivalPort}
	}

	sailing := domain.Sailing{
		ID:            uuid.New(),
		VesselID:      req.VesselID,
		DeparturePort: req.DeparturePort,
		ArrivalPort:   req.ArrivalPort,
		DepartureTime: departure,
		RoutePorts:    routePorts,
	}
	if err := s.sailings.SaveSailing(ctx, sailing); err != nil {
		return domain.Sailing{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntitySailing,
		EntityID:   sailing.ID.String(),
		Action:     domain.ActionCreate,
		After: map[string]any{
			"vesselId":      sailing.VesselID.String(),
			"departurePort": sailing.DeparturePort,
			"arrivalPort":   sailing.ArrivalPort,
			"departureTime": sailing.DepartureTime.Format(time.RFC3339),
		},
	})
	return sailing, nil
}

func (s *Service) GetSailing(ctx context.Context, id uuid.UUID) (domain.Sailing, error) {
	sailing, err := s.sailings.FindSailing(ctx, id)
	if err != nil {
		return domain.Sailing{}, pkgerrors.New(pkgerrors.CodeNotFound, "sailing not found")
	}
	return sailing, nil
}

func knownVesselType(t domain.VesselType) bool {
	switch t {
	case domain.VesselRoPaxFerry, domain.VesselFastFerry, domain.VesselPassengerShip, domain.VesselExcursionBoat:
		return true
	}
	return false
}
