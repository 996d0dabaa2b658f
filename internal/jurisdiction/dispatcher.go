package jurisdiction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"manifestgate/internal/audit"
	"manifestgate/internal/domain"
	"manifestgate/internal/storage"
	pkgerrors "manifestgate/pkg/errors"
)

// Dispatcher runs every applicable jurisdiction evaluator for a sailing.
// Evaluators run concurrently and never short-circuit each other: a panic-free
// failure in one regime becomes that regime's NON_COMPLIANT record while the
// rest report normally.
type Dispatcher struct {
	evaluators []Evaluator
	sailings   storage.SailingStore
	vessels    storage.VesselStore
	crew       storage.CrewStore
	manifests  storage.ManifestStore
	ledger     *audit.Ledger
	tracer     trace.Tracer
}

func NewDispatcher(
	sailings storage.SailingStore,
	vessels storage.VesselStore,
	crew storage.CrewStore,
	manifests storage.ManifestStore,
	ledger *audit.Ledger,
	evaluators ...Evaluator,
) *Dispatcher {
	return &Dispatcher{
		evaluators: evaluators,
		sailings:   sailings,
		vessels:    vessels,
		crew:       crew,
		manifests:  manifests,
		ledger:     ledger,
		tracer:     otel.Tracer("jurisdiction"),
	}
}

// Dispatch evaluates the sailing under every claiming regime. Results come
// back in registration order regardless of which evaluator finished first.
func (d *Dispatcher) Dispatch(ctx context.Context, sailingID uuid.UUID) ([]Record, error) {
	ctx, span := d.tracer.Start(ctx, "jurisdiction.dispatch",
		trace.WithAttributes(attribute.String("sailing.id", sailingID.String())))
	defer span.End()

	subject, err := d.loadSubject(ctx, sailingID)
	if err != nil {
		return nil, err
	}

	var applicable []Evaluator
	for _, e := range d.evaluators {
		if Applies(e, subject.Sailing) {
			applicable = append(applicable, e)
		}
	}
	span.SetAttributes(attribute.Int("jurisdiction.count", len(applicable)))

	records := make([]Record, len(applicable))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range applicable {
		i, e := i, e // per-iteration copies; required while building with a pre-1.22 toolchain
		g.Go(func() error {
			evalCtx, evalSpan := d.tracer.Start(gctx, "jurisdiction.evaluate",
				trace.WithAttributes(attribute.String("jurisdiction.name", e.Name())))
			defer evalSpan.End()

			record, err := e.Evaluate(evalCtx, subject)
			if err != nil {
				// The failure is this regime's verdict, not the dispatch's.
				record = Record{
					Jurisdiction: e.Name(),
					Status:       StatusNonCompliant,
					Findings:     []string{fmt.Sprintf("evaluation failed: %v", err)},
				}
			}
			records[i] = record
			return nil
		})
	}
	// Goroutines always return nil; Wait only orders the collection.
	_ = g.Wait()

	nonCompliant := 0
	for _, r := range records {
		if r.Status == StatusNonCompliant {
			nonCompliant++
		}
	}
	d.ledger.Log(ctx, audit.Entry{
		EntityType: domain.EntitySailing,
		EntityID:   sailingID.String(),
		Action:     domain.ActionEvaluate,
		After: map[string]any{
			"jurisdictions": len(records),
			"nonCompliant":  nonCompliant,
		},
	})
	return records, nil
}

func (d *Dispatcher) loadSubject(ctx context.Context, sailingID uuid.UUID) (Subject, error) {
	sailing, err := d.sailings.FindSailing(ctx, sailingID)
	if err != nil {
		return Subject{}, pkgerrors.New(pkgerrors.CodeNotFound, "sailing not found")
	}
	vessel, err := d.vessels.FindVessel(ctx, sailing.VesselID)
	if err != nil {
		return Subject{}, pkgerrors.New(pkgerrors.CodeNotFound, "vessel not found")
	}
	crew, err := d.crew.ListCrewByVessel(ctx, sailing.VesselID)
	if err != nil {
		return Subject{}, err
	}

	subject := Subject{Sailing: sailing, Vessel: vessel, Crew: crew}
	if manifest, err := d.findManifest(ctx, sailingID); err == nil {
		subject.Manifest = &manifest
	}
	return subject, nil
}

func (d *Dispatcher) findManifest(ctx context.Context, sailingID uuid.UUID) (domain.Manifest, error) {
	manifests, err := d.manifests.ListManifestsBySailing(ctx, sailingID)
	if err != nil || len(manifests) == 0 {
		return domain.Manifest{}, storage.ErrNotFound
	}
	// Manifests list newest first; the current one leads.
	return manifests[0], nil
}
