// Package crew manages seafarer records and vessel assignments.
package crew

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

// Service owns the crew register. Members are soft-deleted only; manning
// evaluations skip deleted records but the ledger keeps their history.
type Service struct {
	crew    storage.CrewStore
	vessels storage.VesselStore
	ledger  *audit.Ledger
}

func NewService(crew storage.CrewStore, vessels storage.VesselStore, ledger *audit.Ledger) *Service {
	return &Service{crew: crew, vessels: vessels, ledger: ledger}
}

// CreateRequest carries the new-member form. DateOfBirth uses 2006-01-02.
type CreateRequest struct {
	FirstName   string
	LastName    string
	Nationality string
	DateOfBirth string
	Role        string
}

// Create registers a crew member in the unassigned pool.
func (s *Service) Create(ctx context.Context, req CreateRequest) (domain.CrewMember, error) {
	var violations []pkgerrors.Violation
	if req.FirstName == "" {
		violations = append(violations, pkgerrors.Violation{Field: "firstName", Code: "REQUIRED", Message: "first name is required"})
	}
	if req.LastName == "" {
		violations = append(violations, pkgerrors.Violation{Field: "lastName", Code: "REQUIRED", Message: "last name is required"})
	}
	role := domain.Rank(req.Role)
	if !knownRank(role) {
		violations = append(violations, pkgerrors.Violation{Field: "role", Code: "UNKNOWN_RANK",
			Message: fmt.Sprintf("rank %q is not recognized", req.Role)})
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		violations = append(violations, pkgerrors.Violation{Field: "dateOfBirth", Code: "MALFORMED_DATE",
			Message: "date of birth must be formatted 2006-01-02"})
	}
	if len(violations) > 0 {
		return domain.CrewMember{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid crew member", violations)
	}

	now := requestcontext.Now(ctx)
	member := domain.CrewMember{
		ID:          uuid.New(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Nationality: req.Nationality,
		DateOfBirth: dob,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.crew.SaveCrewMember(ctx, member); err != nil {
		return domain.CrewMember{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityCrewMember,
		EntityID:   member.ID.String(),
		Action:     domain.ActionCreate,
		After:      map[string]any{"name": member.FullName(), "role": string(member.Role)},
	})
	return member, nil
}

// Assign moves a member onto a vessel. Assigning to the vessel they already
// serve is a no-op.
func (s *Service) Assign(ctx context.Context, memberID, vesselID uuid.UUID) (domain.CrewMember, error) {
	member, err := s.find(ctx, memberID)
	if err != nil {
		return domain.CrewMember{}, err
	}
	if _, err := s.vessels.FindVessel(ctx, vesselID); err != nil {
		return domain.CrewMember{}, pkgerrors.New(pkgerrors.CodeNotFound, "vessel not found")
	}
	if member.VesselID != nil && *member.VesselID == vesselID {
		return member, nil
	}

	var before *string
	if member.VesselID != nil {
		v := member.VesselID.String()
		before = &v
	}
	member.VesselID = &vesselID
	member.UpdatedAt = requestcontext.Now(ctx)
	if err := s.crew.SaveCrewMember(ctx, member); err != nil {
		return domain.CrewMember{}, err
	}

	entry := audit.Entry{
		EntityType:    domain.EntityCrewMember,
		EntityID:      member.ID.String(),
		Action:        domain.ActionUpdate,
		After:         map[string]any{"vesselId": vesselID.String()},
		ChangedFields: []string{"vesselId"},
	}
	if before != nil {
		entry.Before = map[string]any{"vesselId": *before}
	}
	s.ledger.Log(ctx, entry)
	return member, nil
}

// Unassign returns a member to the pool.
func (s *Service) Unassign(ctx context.Context, memberID uuid.UUID) (domain.CrewMember, error) {
	member, err := s.find(ctx, memberID)
	if err != nil {
		return domain.CrewMember{}, err
	}
	if member.VesselID == nil {
		return member, nil
	}

	previous := member.VesselID.String()
	member.VesselID = nil
	member.UpdatedAt = requestcontext.Now(ctx)
	if err := s.crew.SaveCrewMember(ctx, member); err != nil {
		return domain.CrewMember{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType:    domain.EntityCrewMember,
		EntityID:      member.ID.String(),
		Action:        domain.ActionUpdate,
		Before:        map[string]any{"vesselId": previous},
		ChangedFields: []string{"vesselId"},
	})
	return member, nil
}

// Delete soft-deletes a member. The record stays on file for regulatory
// history.
func (s *Service) Delete(ctx context.Context, memberID uuid.UUID, reason string) error {
	member, err := s.find(ctx, memberID)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	member.DeletedAt = &now
	member.VesselID = nil
	member.UpdatedAt = now
	if err := s.crew.SaveCrewMember(ctx, member); err != nil {
		return err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityCrewMember,
		EntityID:   member.ID.String(),
		Action:     domain.ActionDelete,
		Reason:     reason,
	})
	return nil
}

// Get returns a member; soft-deleted records read as absent.
func (s *Service) Get(ctx context.Context, memberID uuid.UUID) (domain.CrewMember, error) {
	return s.find(ctx, memberID)
}

// ListByVessel returns the vessel's active crew.
func (s *Service) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]domain.CrewMember, error) {
	all, err := s.crew.ListCrewByVessel(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	var out []domain.CrewMember
	for _, m := range all {
		if m.Deleted() {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (domain.CrewMember, error) {
	member, err := s.crew.FindCrewMember(ctx, id)
	if err != nil {
		return domain.CrewMember{}, pkgerrors.New(pkgerrors.CodeNotFound, "crew member not found")
	}
	if member.Deleted() {
		return domain.CrewMember{}, pkgerrors.New(pkgerrors.CodeNotFound, "crew member not found")
	}
	return member, nil
}

func knownRank(r domain.Rank) bool {
	for _, known := range domain.Ranks() {
		if r == known {
			return true
		}
	}
	return false
}
