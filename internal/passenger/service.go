// Package passenger manages traveller records and their protected identity
// fields.
package passenger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"manifestgate/internal/audit"
	"manifestgate/internal/crypto"
	"manifestgate/internal/domain"
	"manifestgate/internal/storage"
	pkgerrors "manifestgate/pkg/errors"
	"manifestgate/pkg/requestcontext"
)

// Service owns passenger records. Document numbers are encrypted before they
// reach the store and masked on every read path; plaintext leaves the system
// only through the audited manifest export.
type Service struct {
	passengers storage.PassengerStore
	sailings   storage.SailingStore
	manifests  storage.ManifestStore
	cipher     *crypto.Cipher
	ledger     *audit.Ledger
}

func NewService(
	passengers storage.PassengerStore,
	sailings storage.SailingStore,
	manifests storage.ManifestStore,
	cipher *crypto.Cipher,
	ledger *audit.Ledger,
) *Service {
	return &Service{
		passengers: passengers,
		sailings:   sailings,
		manifests:  manifests,
		cipher:     cipher,
		ledger:     ledger,
	}
}

// CreateRequest carries the check-in form. Dates use 2006-01-02.
type CreateRequest struct {
	SailingID         uuid.UUID
	FamilyName        string
	GivenName         string
	Nationality       string
	DateOfBirth       string
	Gender            string
	DocumentType      string
	DocumentNumber    string
	DocumentExpiry    string
	PortOfEmbarkation string
	PortOfDebarkation string
	ConsentGiven      bool
}

// UpdateRequest carries editable fields. Nil pointers leave the stored value
// untouched.
type UpdateRequest struct {
	FamilyName        *string
	GivenName         *string
	Nationality       *string
	DocumentNumber    *string
	DocumentExpiry    *string
	PortOfEmbarkation *string
	PortOfDebarkation *string
	Status            *string
}

// Create checks in a passenger. The document number is encrypted before the
// record is saved; consent must be given at check-in and is stamped with the
// request time.
func (s *Service) Create(ctx context.Context, req CreateRequest) (domain.Passenger, error) {
	if _, err := s.sailings.FindSailing(ctx, req.SailingID); err != nil {
		return domain.Passenger{}, pkgerrors.New(pkgerrors.CodeNotFound, "sailing not found")
	}

	var violations []pkgerrors.Violation
	invalid := func(field, code, msg string) {
		violations = append(violations, pkgerrors.Violation{Field: field, Code: code, Message: msg})
	}

	if req.DocumentNumber == "" {
		invalid("documentNumber", "REQUIRED", "identity document number is required")
	}
	if !req.ConsentGiven {
		invalid("consent", "CONSENT_REQUIRED", "data-processing consent must be given at check-in")
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		invalid("dateOfBirth", "MALFORMED_DATE", "date of birth must be formatted 2006-01-02")
	}
	expiry, err := parseDate(req.DocumentExpiry)
	if err != nil {
		invalid("documentExpiry", "MALFORMED_DATE", "document expiry must be formatted 2006-01-02")
	}
	if len(violations) > 0 {
		return domain.Passenger{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid passenger", violations)
	}

	encrypted, err := s.cipher.Encrypt(req.DocumentNumber)
	if err != nil {
		return domain.Passenger{}, pkgerrors.New(pkgerrors.CodeInternal, "document number could not be protected")
	}

	now := requestcontext.Now(ctx)
	p := domain.Passenger{
		ID:                uuid.New(),
		SailingID:         req.SailingID,
		FamilyName:        req.FamilyName,
		GivenName:         req.GivenName,
		Nationality:       req.Nationality,
		DateOfBirth:       dob,
		Gender:            req.Gender,
		DocumentType:      domain.IdentityDocumentType(req.DocumentType),
		DocumentNumber:    encrypted,
		DocumentExpiry:    expiry,
		PortOfEmbarkation: req.PortOfEmbarkation,
		PortOfDebarkation: req.PortOfDebarkation,
		Status:            domain.PassengerCheckedIn,
		ConsentAt:         &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.passengers.SavePassenger(ctx, p); err != nil {
		return domain.Passenger{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityPassenger,
		EntityID:   p.ID.String(),
		Action:     domain.ActionCreate,
		After: map[string]any{
			"sailingId":      p.SailingID.String(),
			"familyName":     p.FamilyName,
			"documentNumber": crypto.Mask(req.DocumentNumber),
		},
	})
	return s.masked(p), nil
}

// Update edits a passenger record. Any edit, identity field or not, is
// rejected while the passenger sits on a frozen manifest.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (domain.Passenger, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return domain.Passenger{}, err
	}
	if err := s.guardFrozen(ctx, id); err != nil {
		return domain.Passenger{}, err
	}

	var changed []string
	apply := func(field string, dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = append(changed, field)
		}
	}
	apply("familyName", &p.FamilyName, req.FamilyName)
	apply("givenName", &p.GivenName, req.GivenName)
	apply("nationality", &p.Nationality, req.Nationality)
	apply("portOfEmbarkation", &p.PortOfEmbarkation, req.PortOfEmbarkation)
	apply("portOfDebarkation", &p.PortOfDebarkation, req.PortOfDebarkation)

	if req.DocumentNumber != nil {
		encrypted, err := s.cipher.Encrypt(*req.DocumentNumber)
		if err != nil {
			return domain.Passenger{}, pkgerrors.New(pkgerrors.CodeInternal, "document number could not be protected")
		}
		p.DocumentNumber = encrypted
		changed = append(changed, "documentNumber")
	}
	if req.DocumentExpiry != nil {
		expiry, err := parseDate(*req.DocumentExpiry)
		if err != nil {
			return domain.Passenger{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid passenger", []pkgerrors.Violation{{
				Field: "documentExpiry", Code: "MALFORMED_DATE", Message: "document expiry must be formatted 2006-01-02",
			}})
		}
		p.DocumentExpiry = expiry
		changed = append(changed, "documentExpiry")
	}
	if req.Status != nil {
		status := domain.PassengerStatus(*req.Status)
		switch status {
		case domain.PassengerCheckedIn, domain.PassengerBoarded, domain.PassengerNoShow, domain.PassengerCancelled:
		default:
			return domain.Passenger{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid passenger", []pkgerrors.Violation{{
				Field: "status", Code: "UNKNOWN_STATUS", Message: fmt.Sprintf("status %q is not recognized", *req.Status),
			}})
		}
		if status != p.Status {
			p.Status = status
			changed = append(changed, "status")
		}
	}

	if len(changed) == 0 {
		return s.masked(p), nil
	}

	p.UpdatedAt = requestcontext.Now(ctx)
	if err := s.passengers.SavePassenger(ctx, p); err != nil {
		return domain.Passenger{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType:    domain.EntityPassenger,
		EntityID:      p.ID.String(),
		Action:        domain.ActionUpdate,
		ChangedFields: changed,
	})
	return s.masked(p), nil
}

// Delete soft-deletes a passenger. Deletion is an edit like any other and is
// refused while the record sits on a frozen manifest.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, reason string) error {
	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guardFrozen(ctx, id); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	p.DeletedAt = &now
	p.UpdatedAt = now
	if err := s.passengers.SavePassenger(ctx, p); err != nil {
		return err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityPassenger,
		EntityID:   p.ID.String(),
		Action:     domain.ActionDelete,
		Reason:     reason,
	})
	return nil
}

// Get returns the record with the document number masked.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Passenger, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return domain.Passenger{}, err
	}
	return s.masked(p), nil
}

// ListBySailing returns the sailing's passengers, masked, soft-deleted
// records excluded.
func (s *Service) ListBySailing(ctx context.Context, sailingID uuid.UUID) ([]domain.Passenger, error) {
	all, err := s.passengers.ListPassengersBySailing(ctx, sailingID)
	if err != nil {
		return nil, err
	}
	var out []domain.Passenger
	for _, p := range all {
		if p.Deleted() {
			continue
		}
		out = append(out, s.masked(p))
	}
	return out, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (domain.Passenger, error) {
	p, err := s.passengers.FindPassenger(ctx, id)
	if err != nil {
		return domain.Passenger{}, pkgerrors.New(pkgerrors.CodeNotFound, "passenger not found")
	}
	if p.Deleted() {
		return domain.Passenger{}, pkgerrors.New(pkgerrors.CodeNotFound, "passenger not found")
	}
	return p, nil
}

// guardFrozen rejects edits to a passenger referenced by any APPROVED or
// SUBMITTED manifest. Regeneration can put the same passenger on a newer
// draft; the older frozen manifest still pins the record.
func (s *Service) guardFrozen(ctx context.Context, passengerID uuid.UUID) error {
	manifests, err := s.manifests.ListManifestsByPassenger(ctx, passengerID)
	if err != nil {
		return err
	}
	for _, m := range manifests {
		if m.Frozen() {
			return pkgerrors.New(pkgerrors.CodeInvalidState,
				fmt.Sprintf("passenger is on manifest %s in status %s and cannot be modified", m.ID, m.Status))
		}
	}
	return nil
}

// masked replaces the stored ciphertext with the display form, asterisks
// plus the last characters of the plaintext. Undecryptable values degrade to
// a full mask rather than failing the read.
func (s *Service) masked(p domain.Passenger) domain.Passenger {
	plain, err := s.cipher.Decrypt(p.DocumentNumber)
	if err != nil {
		p.DocumentNumber = crypto.Mask("")
		return p
	}
	p.DocumentNumber = crypto.Mask(plain)
	return p
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
