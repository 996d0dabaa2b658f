package certification

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

// Service owns certificate intake and status changes. It keeps orchestration
// out of handlers and the evaluation rules pure.
type Service struct {
	certs  storage.CertificationStore
	crew   storage.CrewStore
	ledger *audit.Ledger
}

func NewService(certs storage.CertificationStore, crew storage.CrewStore, ledger *audit.Ledger) *Service {
	return &Service{certs: certs, crew: crew, ledger: ledger}
}

// CreateRequest carries the intake fields for a new certificate.
type CreateRequest struct {
	CrewMemberID uuid.UUID
	Type         domain.CertificationType
	IssueDate    string // 2006-01-02
	ExpiryDate   string // 2006-01-02
}

// Create registers a certificate. ExpiryDate must be strictly in the future;
// malformed or out-of-order dates are input errors, never silently defaulted.
func (s *Service) Create(ctx context.Context, req CreateRequest) (domain.Certification, error) {
	now := requestcontext.Now(ctx)

	var violations []pkgerrors.Violation
	issue, err := parseDate(req.IssueDate)
	if err != nil {
		violations = append(violations, pkgerrors.Violation{Field: "issueDate", Code: "MALFORMED_DATE", Message: err.Error()})
	}
	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		violations = append(violations, pkgerrors.Violation{Field: "expiryDate", Code: "MALFORMED_DATE", Message: err.Error()})
	}
	if req.Type == "" {
		violations = append(violations, pkgerrors.Violation{Field: "type", Code: "REQUIRED", Message: "certificate type is required"})
	}
	if len(violations) > 0 {
		return domain.Certification{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid certification", violations)
	}
	if !expiry.After(now) {
		return domain.Certification{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid certification", []pkgerrors.Violation{{
			Field: "expiryDate", Code: "EXPIRY_NOT_FUTURE",
			Message: "expiry date must be strictly in the future",
		}})
	}
	if expiry.Before(issue) {
		return domain.Certification{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid certification", []pkgerrors.Violation{{
			Field: "expiryDate", Code: "EXPIRY_BEFORE_ISSUE",
			Message: "expiry date precedes issue date",
		}})
	}

	if _, err := s.crew.FindCrewMember(ctx, req.CrewMemberID); err != nil {
		return domain.Certification{}, pkgerrors.New(pkgerrors.CodeNotFound, "crew member not found")
	}

	cert := domain.Certification{
		ID:           uuid.New(),
		CrewMemberID: req.CrewMemberID,
		Type:         req.Type,
		IssueDate:    issue,
		ExpiryDate:   expiry,
		Status:       domain.CertStatusPendingVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.certs.SaveCertification(ctx, cert); err != nil {
		return domain.Certification{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityCertification,
		EntityID:   cert.ID.String(),
		Action:     domain.ActionCreate,
		After:      certSnapshot(cert),
	})
	return cert, nil
}

// Verify marks a pending certificate as verified valid.
func (s *Service) Verify(ctx context.Context, certID uuid.UUID) (domain.Certification, error) {
	cert, err := s.certs.FindCertification(ctx, certID)
	if err != nil {
		return domain.Certification{}, pkgerrors.New(pkgerrors.CodeNotFound, "certification not found")
	}
	if cert.Status != domain.CertStatusPendingVerification {
		return domain.Certification{}, pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("certification is %s, only PENDING_VERIFICATION can be verified", cert.Status))
	}

	before := certSnapshot(cert)
	cert.Status = domain.CertStatusValid
	cert.UpdatedAt = requestcontext.Now(ctx)
	if err := s.certs.SaveCertification(ctx, cert); err != nil {
		return domain.Certification{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType:    domain.EntityCertification,
		EntityID:      cert.ID.String(),
		Action:        domain.ActionUpdate,
		Before:        before,
		After:         certSnapshot(cert),
		ChangedFields: []string{"status"},
	})
	return cert, nil
}

// Revoke terminates a certificate. A reason is mandatory and revocation is
// terminal: a revoked certificate never becomes usable again.
func (s *Service) Revoke(ctx context.Context, certID uuid.UUID, reason string) (domain.Certification, error) {
	if reason == "" {
		return domain.Certification{}, pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid revocation", []pkgerrors.Violation{{
			Field: "reason", Code: "REQUIRED", Message: "revocation requires a reason",
		}})
	}
	cert, err := s.certs.FindCertification(ctx, certID)
	if err != nil {
		return domain.Certification{}, pkgerrors.New(pkgerrors.CodeNotFound, "certification not found")
	}
	if cert.Status == domain.CertStatusRevoked {
		return domain.Certification{}, pkgerrors.New(pkgerrors.CodeInvalidState, "certification is already revoked")
	}

	before := certSnapshot(cert)
	cert.Status = domain.CertStatusRevoked
	cert.RevocationReason = reason
	cert.UpdatedAt = requestcontext.Now(ctx)
	if err := s.certs.SaveCertification(ctx, cert); err != nil {
		return domain.Certification{}, err
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType:    domain.EntityCertification,
		EntityID:      cert.ID.String(),
		Action:        domain.ActionRevoke,
		Before:        before,
		After:         certSnapshot(cert),
		ChangedFields: []string{"status", "revocationReason"},
		Reason:        reason,
	})
	return cert, nil
}

// EvaluateCrewMember loads the member's certificates and runs the pure
// evaluator against the request clock. The evaluation itself is audited.
func (s *Service) EvaluateCrewMember(ctx context.Context, crewMemberID uuid.UUID) (Result, error) {
	member, err := s.crew.FindCrewMember(ctx, crewMemberID)
	if err != nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeNotFound, "crew member not found")
	}
	certs, err := s.certs.ListCertificationsByCrewMember(ctx, crewMemberID)
	if err != nil {
		return Result{}, err
	}
	member.Certifications = certs

	result := Evaluate(member, requestcontext.Now(ctx))

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityCrewMember,
		EntityID:   crewMemberID.String(),
		Action:     domain.ActionEvaluate,
		After: map[string]any{
			"compliant": result.Compliant,
			"findings":  len(result.Findings),
		},
	})
	return result, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted YYYY-MM-DD")
	}
	return t, nil
}

func certSnapshot(cert domain.Certification) map[string]any {
	snap := map[string]any{
		"type":       string(cert.Type),
		"issueDate":  cert.IssueDate.Format("2006-01-02"),
		"expiryDate": cert.ExpiryDate.Format("2006-01-02"),
		"status":     string(cert.Status),
	}
	if cert.RevocationReason != "" {
		snap["revocationReason"] = cert.RevocationReason
	}
	return snap
}
