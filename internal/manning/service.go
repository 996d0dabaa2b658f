package manning

import (
	"context"

	"github.com/google/uuid"

	"manifestgate/internal/audit"
	"manifestgate/internal/domain"
	"manifestgate/internal/platform/metrics"
	"manifestgate/internal/storage"
	pkgerrors "manifestgate/pkg/errors"
	"manifestgate/pkg/requestcontext"
)

// Service runs safe-manning evaluations against live vessel and crew data.
// The evaluation itself stays pure; this layer does the loading, caching,
// and auditing around it.
type Service struct {
	vessels storage.VesselStore
	crew    storage.CrewStore
	cache   *DocumentCache
	ledger  *audit.Ledger
	metrics *metrics.Metrics
}

func NewService(
	vessels storage.VesselStore,
	crew storage.CrewStore,
	cache *DocumentCache,
	ledger *audit.Ledger,
	m *metrics.Metrics,
) *Service {
	return &Service{vessels: vessels, crew: crew, cache: cache, ledger: ledger, metrics: m}
}

// EvaluateVessel loads the vessel, its latest safe manning document, and its
// active crew, then evaluates. Every run is written to the ledger, compliant
// or not.
func (s *Service) EvaluateVessel(ctx context.Context, vesselID uuid.UUID) (Result, error) {
	vessel, err := s.vessels.FindVessel(ctx, vesselID)
	if err != nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeNotFound, "vessel not found")
	}

	doc, found := s.loadDocument(ctx, vesselID)

	crew, err := s.crew.ListCrewByVessel(ctx, vesselID)
	if err != nil {
		return Result{}, err
	}

	in := Input{Crew: crew, GrossTonnage: vessel.GrossTonnage}
	if found {
		in.Document = &doc
	}
	result := Evaluate(in)

	outcome := "compliant"
	if !result.Compliant {
		outcome = "non_compliant"
	}
	if s.metrics != nil {
		s.metrics.ObserveEvaluation("manning", outcome)
	}

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityVessel,
		EntityID:   vesselID.String(),
		Action:     domain.ActionEvaluate,
		After: map[string]any{
			"compliant":   result.Compliant,
			"violations":  len(result.Errors),
			"warnings":    len(result.Warnings),
			"document":    found,
			"evaluatedAt": requestcontext.Now(ctx),
		},
	})
	return result, nil
}

// RegisterDocument records a newly issued safe manning document and drops
// any cached predecessor.
func (s *Service) RegisterDocument(ctx context.Context, doc domain.SafeManningDocument) error {
	if _, err := s.vessels.FindVessel(ctx, doc.VesselID); err != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vessel not found")
	}
	if len(doc.Roles) == 0 {
		return pkgerrors.NewWithViolations(pkgerrors.CodeBadRequest, "invalid manning document", []pkgerrors.Violation{{
			Field: "roles", Code: "REQUIRED", Message: "a manning document must list at least one role",
		}})
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = requestcontext.Now(ctx)
	}

	if err := s.vessels.SaveManningDocument(ctx, doc); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, doc.VesselID)

	s.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntityVessel,
		EntityID:   doc.VesselID.String(),
		Action:     domain.ActionCreate,
		After: map[string]any{
			"documentId": doc.ID.String(),
			"issuer":     doc.Issuer,
			"roles":      len(doc.Roles),
		},
	})
	return nil
}

// loadDocument reads through the cache to the store. Absence of a document
// is a normal state, the tonnage fallback covers it.
func (s *Service) loadDocument(ctx context.Context, vesselID uuid.UUID) (domain.SafeManningDocument, bool) {
	if doc, ok := s.cache.Get(ctx, vesselID); ok {
		return doc, true
	}
	doc, err := s.vessels.LatestManningDocument(ctx, vesselID)
	if err != nil {
		return domain.SafeManningDocument{}, false
	}
	s.cache.Put(ctx, doc)
	return doc, true
}
