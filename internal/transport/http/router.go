// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and encode; business rules never live here.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"manifestgate/internal/audit"
	"manifestgate/internal/certification"
	"manifestgate/internal/crew"
	"manifestgate/internal/fleet"
	"manifestgate/internal/jurisdiction"
	"manifestgate/internal/manifest"
	"manifestgate/internal/manning"
	"manifestgate/internal/passenger"
	"manifestgate/internal/platform/middleware"
	pkgerrors "manifestgate/pkg/errors"
)

// Handler carries every domain service the routes delegate to.
type Handler struct {
	fleet      *fleet.Service
	crew       *crew.Service
	certs      *certification.Service
	passengers *passenger.Service
	manifests  *manifest.Service
	exports    *manifest.ExportService
	manning    *manning.Service
	dispatcher *jurisdiction.Dispatcher
	ledger     *audit.Ledger
	log        *logrus.Logger
}

func NewHandler(
	fleetSvc *fleet.Service,
	crewSvc *crew.Service,
	certs *certification.Service,
	passengers *passenger.Service,
	manifests *manifest.Service,
	exports *manifest.ExportService,
	manningSvc *manning.Service,
	dispatcher *jurisdiction.Dispatcher,
	ledger *audit.Ledger,
	log *logrus.Logger,
) *Handler {
	return &Handler{
		fleet:      fleetSvc,
		crew:       crewSvc,
		certs:      certs,
		passengers: passengers,
		manifests:  manifests,
		exports:    exports,
		manning:    manningSvc,
		dispatcher: dispatcher,
		ledger:     ledger,
		log:        log,
	}
}

// NewRouter wires all endpoints. Everything under /api/v1 requires a valid
// bearer token.
func NewRouter(h *Handler, signingKey []byte) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(signingKey, h.ledger, h.log))

		r.Route("/crew", func(r chi.Router) {
			r.Post("/", h.createCrewMember)
			r.Get("/{id}", h.getCrewMember)
			r.Delete("/{id}", h.deleteCrewMember)
			r.Post("/{id}/assign", h.assignCrewMember)
			r.Post("/{id}/unassign", h.unassignCrewMember)
			r.Get("/{id}/certifications/evaluation", h.evaluateCrewMember)
		})

		r.Route("/certifications", func(r chi.Router) {
			r.Post("/", h.createCertification)
			r.Post("/{id}/verify", h.verifyCertification)
			r.Post("/{id}/revoke", h.revokeCertification)
		})

		r.Route("/passengers", func(r chi.Router) {
			r.Post("/", h.createPassenger)
			r.Get("/{id}", h.getPassenger)
			r.Patch("/{id}", h.updatePassenger)
			r.Delete("/{id}", h.deletePassenger)
		})

		r.Route("/sailings", func(r chi.Router) {
			r.Post("/", h.createSailing)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getSailing)
				r.Get("/passengers", h.listSailingPassengers)
				r.Post("/manifest", h.generateManifest)
				r.Get("/jurisdictions", h.dispatchJurisdictions)
			})
		})

		r.Route("/manifests/{id}", func(r chi.Router) {
			r.Get("/", h.getManifest)
			r.Post("/review", h.submitManifestForReview)
			r.Get("/export", h.exportManifest)

			// Approval decisions and authority submission stay human-gated.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("compliance-officer"))
				r.Post("/approve", h.approveManifest)
				r.Post("/submit", h.submitManifest)
				r.Post("/reject", h.rejectManifest)
			})
		})

		r.Route("/vessels", func(r chi.Router) {
			r.Post("/", h.createVessel)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getVessel)
				r.Get("/crew", h.listVesselCrew)
				r.Get("/manning", h.evaluateManning)
				r.Post("/manning-document", h.registerManningDocument)
			})
		})

		r.Get("/audit/{entityType}/{entityID}", h.listAudit)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates domain errors into the JSON envelope. Violations ride
// along untruncated so one round trip shows everything to fix.
func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	body := map[string]any{"error": string(code)}

	var domainErr *pkgerrors.Error
	if errors.As(err, &domainErr) {
		body["message"] = domainErr.Message
		if len(domainErr.Violations) > 0 {
			body["violations"] = domainErr.Violations
		}
	}
	writeJSON(w, pkgerrors.HTTPStatus(code), body)
}
