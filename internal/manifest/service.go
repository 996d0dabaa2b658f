package manifest

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"manifestgate/internal/audit"
	"manifestgate/internal/domain"
	"manifestgate/internal/platform/metrics"
	"manifestgate/internal/storage"
	pkgerrors "manifestgate/pkg/errors"
	"manifestgate/pkg/requestcontext"
)

// Service drives a manifest through its lifecycle. Transitions are always
// evaluated against the persisted status at transition time; the conditional
// store update makes concurrent double-approvals lose cleanly.
type Service struct {
	manifests  storage.ManifestStore
	passengers storage.PassengerStore
	sailings   storage.SailingStore
	validator  Validator
	ledger     *audit.Ledger
	metrics    *metrics.Metrics
}

func NewService(
	manifests storage.ManifestStore,
	passengers storage.PassengerStore,
	sailings storage.SailingStore,
	validator Validator,
	ledger *audit.Ledger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		manifests:  manifests,
		passengers: passengers,
		sailings:   sailings,
		validator:  validator,
		ledger:     ledger,
		metrics:    m,
	}
}

// Generate builds a DRAFT manifest from the sailing's checked-in passengers.
// Validation failures are attached, never thrown: the operator fixes them on
// the draft.
func (s *Service) Generate(ctx context.Context, sailingID uuid.UUID) (domain.Manifest, error) {
	sailing, err := s.sailings.FindSailing(ctx, sailingID)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeNotFound, "sailing not found")
	}

	all, err := s.passengers.ListPassengersBySailing(ctx, sailingID)
	if err != nil {
		return domain.Manifest{}, err
	}
	var boarded []domain.Passenger
	for _, p := range all {
		if p.Status == domain.PassengerCheckedIn && !p.Deleted() {
			boarded = append(boarded, p)
		}
	}
	sort.Slice(boarded, func(i, j int) bool {
		if boarded[i].FamilyName != boarded[j].FamilyName {
			return boarded[i].FamilyName < boarded[j].FamilyName
		}
		return boarded[i].GivenName < boarded[j].GivenName
	})

	now := requestcontext.Now(ctx)
	manifest := domain.Manifest{
		ID:               uuid.New(),
		SailingID:        sailingID,
		Status:           domain.ManifestDraft,
		ValidationStatus: domain.ValidationValid,
		ValidationErrors: s.validator.Validate(boarded, sailing.DepartureTime),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, p := range boarded {
		manifest.PassengerIDs = append(manifest.PassengerIDs, p.ID)
	}
	if len(manifest.ValidationErrors) > 0 {
		manifest.ValidationStatus = domain.ValidationInvalid
	}

	if err := s.manifests.SaveManifest(ctx, manifest); err != nil {
		return domain.Manifest{}, err
	}

	s.observeTransition("", domain.ManifestDraft)
	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityManifest,
		EntityID:   manifest.ID.String(),
		Action:     domain.ActionCreate,
		After: map[string]any{
			"sailingId":        sailingID.String(),
			"passengers":       len(manifest.PassengerIDs),
			"validationStatus": string(manifest.ValidationStatus),
			"validationErrors": len(manifest.ValidationErrors),
		},
	})
	return manifest, nil
}

// SubmitForReview moves DRAFT to PENDING. The validation gate applies here
// too: a manifest never advances past DRAFT with unresolved errors.
func (s *Service) SubmitForReview(ctx context.Context, manifestID uuid.UUID) (domain.Manifest, error) {
	manifest, err := s.manifests.FindManifest(ctx, manifestID)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
	}
	if manifest.Status != domain.ManifestDraft {
		return domain.Manifest{}, statusMismatch(manifest.Status, domain.ManifestDraft)
	}
	if err := s.revalidate(ctx, &manifest); err != nil {
		return domain.Manifest{}, err
	}
	if gate := gateError(manifest); gate != nil {
		return domain.Manifest{}, gate
	}

	from := manifest.Status
	manifest.Status = domain.ManifestPending
	manifest.UpdatedAt = requestcontext.Now(ctx)
	if err := s.transition(ctx, manifest, from); err != nil {
		return domain.Manifest{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType:    domain.EntityManifest,
		EntityID:      manifest.ID.String(),
		Action:        domain.ActionUpdate,
		Before:        map[string]any{"status": string(from)},
		After:         map[string]any{"status": string(manifest.Status)},
		ChangedFields: []string{"status"},
	})
	return manifest, nil
}

// Approve is the single point where human sign-off is captured. It is a hard
// gate: any outstanding validation error rejects the transition with the full
// list, and the precondition is re-checked against current passenger records
// so a concurrent edit invalidates a stale approval attempt.
func (s *Service) Approve(ctx context.Context, manifestID uuid.UUID, notes string) (domain.Manifest, error) {
	manifest, err := s.manifests.FindManifest(ctx, manifestID)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
	}
	if manifest.Status != domain.ManifestDraft && manifest.Status != domain.ManifestPending {
		return domain.Manifest{}, statusMismatch(manifest.Status, domain.ManifestDraft, domain.ManifestPending)
	}

	if err := s.revalidate(ctx, &manifest); err != nil {
		return domain.Manifest{}, err
	}
	if gate := gateError(manifest); gate != nil {
		// Persist the refreshed error list so the operator sees it.
		_ = s.manifests.UpdateManifestConditional(ctx, manifest, manifest.Status)
		return domain.Manifest{}, gate
	}

	approver, err := s.ledger.ResolveActor(ctx)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "approver identity could not be resolved")
	}

	from := manifest.Status
	now := requestcontext.Now(ctx)
	manifest.Status = domain.ManifestApproved
	manifest.ValidationStatus = domain.ValidationValid
	manifest.ApprovedBy = &approver.ID
	manifest.ApprovedAt = &now
	manifest.ApprovalNotes = notes
	manifest.UpdatedAt = now
	if err := s.transition(ctx, manifest, from); err != nil {
		return domain.Manifest{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType:    domain.EntityManifest,
		EntityID:      manifest.ID.String(),
		Action:        domain.ActionApprove,
		Before:        map[string]any{"status": string(from)},
		After:         map[string]any{"status": string(manifest.Status), "approvedBy": approver.ID.String()},
		ChangedFields: []string{"status", "approvedBy", "approvedAt"},
		Reason:        notes,
	})
	return manifest, nil
}

// Submit records that the approved manifest was handed to the authority
// through a manual channel. It never contacts a regulator system itself and
// is rejected unless the current persisted status is exactly APPROVED.
func (s *Service) Submit(ctx context.Context, manifestID uuid.UUID) (domain.Manifest, error) {
	manifest, err := s.manifests.FindManifest(ctx, manifestID)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
	}
	if manifest.Status != domain.ManifestApproved {
		return domain.Manifest{}, statusMismatch(manifest.Status, domain.ManifestApproved)
	}

	submitter, err := s.ledger.ResolveActor(ctx)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "submitter identity could not be resolved")
	}

	from := manifest.Status
	now := requestcontext.Now(ctx)
	manifest.Status = domain.ManifestSubmitted
	manifest.SubmittedBy = &submitter.ID
	manifest.SubmittedAt = &now
	manifest.UpdatedAt = now
	if err := s.transition(ctx, manifest, from); err != nil {
		return domain.Manifest{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType:    domain.EntityManifest,
		EntityID:      manifest.ID.String(),
		Action:        domain.ActionSubmit,
		Before:        map[string]any{"status": string(from)},
		After:         map[string]any{"status": string(manifest.Status), "submittedBy": submitter.ID.String()},
		ChangedFields: []string{"status", "submittedBy", "submittedAt"},
	})
	return manifest, nil
}

// Reject sends a DRAFT or PENDING manifest to REJECTED with a mandatory
// reason.
func (s *Service) Reject(ctx context.Context, manifestID uuid.UUID, reason string) (domain.Manifest, error) {
	if reason == "" {
		return domain.Manifest{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid rejection", []pkgerrors.Violation{{
			Field: "reason", Code: "REQUIRED", Message: "rejection requires a reason",
		}})
	}
	manifest, err := s.manifests.FindManifest(ctx, manifestID)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
	}
	if manifest.Status != domain.ManifestDraft && manifest.Status != domain.ManifestPending {
		return domain.Manifest{}, statusMismatch(manifest.Status, domain.ManifestDraft, domain.ManifestPending)
	}

	rejecter, err := s.ledger.ResolveActor(ctx)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "rejecting identity could not be resolved")
	}

	from := manifest.Status
	now := requestcontext.Now(ctx)
	manifest.Status = domain.ManifestRejected
	manifest.RejectedBy = &rejecter.ID
	manifest.RejectedAt = &now
	manifest.RejectionReason = reason
	manifest.UpdatedAt = now
	if err := s.transition(ctx, manifest, from); err != nil {
		return domain.Manifest{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType:    domain.EntityManifest,
		EntityID:      manifest.ID.String(),
		Action:        domain.ActionReject,
		Before:        map[string]any{"status": string(from)},
		After:         map[string]any{"status": string(manifest.Status)},
		ChangedFields: []string{"status", "rejectedBy", "rejectedAt", "rejectionReason"},
		Reason:        reason,
	})
	return manifest, nil
}

// Get returns the manifest as persisted.
func (s *Service) Get(ctx context.Context, manifestID uuid.UUID) (domain.Manifest, error) {
	manifest, err := s.manifests.FindManifest(ctx, manifestID)
	if err != nil {
		return domain.Manifest{}, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
	}
	return manifest, nil
}

// revalidate refreshes the manifest's error list from the current passenger
// records, so gates always judge present-tense data.
func (s *Service) revalidate(ctx context.Context, manifest *domain.Manifest) error {
	sailing, err := s.sailings.FindSailing(ctx, manifest.SailingID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sailing not found")
	}
	var current []domain.Passenger
	for _, id := range manifest.PassengerIDs {
		p, err := s.passengers.FindPassenger(ctx, id)
		if err != nil {
			return err
		}
		current = append(current, p)
	}
	manifest.ValidationErrors = s.validator.Validate(current, sailing.DepartureTime)
	if len(manifest.ValidationErrors) > 0 {
		manifest.ValidationStatus = domain.ValidationInvalid
	} else {
		manifest.ValidationStatus = domain.ValidationValid
	}
	return nil
}

// transition persists the new state conditionally on the status the service
// read, translating a lost race into a conflict error.
func (s *Service) transition(ctx context.Context, manifest domain.Manifest, expected domain.ManifestStatus) error {
	if err := s.manifests.UpdateManifestConditional(ctx, manifest, expected); err != nil {
		if err == storage.ErrConflict {
			return pkgerrors.New(pkgerrors.CodeConflict, "manifest status changed concurrently, re-read and retry")
		}
		return err
	}
	s.observeTransition(expected, manifest.Status)
	return nil
}

func (s *Service) observeTransition(from, to domain.ManifestStatus) {
	if s.metrics != nil {
		s.metrics.ObserveManifestTransition(string(from), string(to))
	}
}

// gateError converts outstanding validation errors into the structured
// compliance-gate rejection, listing every violation.
func gateError(manifest domain.Manifest) error {
	if len(manifest.ValidationErrors) == 0 {
		return nil
	}
	violations := make([]pkgerrors.Violation, 0, len(manifest.ValidationErrors))
	for _, e := range manifest.ValidationErrors {
		violations = append(violations, pkgerrors.Violation{
			Field:   e.Field,
			Code:    "MANIFEST_VALIDATION",
			Message: fmt.Sprintf("passenger %s: %s", e.PassengerID, e.Message),
		})
	}
	return pkgerrors.NewWithViolations(pkgerrors.CodeComplianceGate,
		"manifest has unresolved validation errors", violations)
}

func statusMismatch(actual domain.ManifestStatus, allowed ...domain.ManifestStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidState,
		fmt.Sprintf("manifest is %s, transition requires %v", actual, allowed))
}
