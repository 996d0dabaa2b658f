package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"manifestgate/internal/domain"
	pkgerrors "manifestgate/pkg/errors"
)

func (h *Handler) evaluateManning(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.manning.EvaluateVessel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) registerManningDocument(w http.ResponseWriter, r *http.Request) {
	vesselID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Issuer string `json:"issuer"`
		Roles  []struct {
			Role         string `json:"role"`
			MinimumCount int    `json:"minimumCount"`
		} `json:"roles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}

	doc := domain.SafeManningDocument{VesselID: vesselID, Issuer: body.Issuer}
	for _, role := range body.Roles {
		doc.Roles = append(doc.Roles, domain.SafeManningRole{
			Role:         domain.Rank(role.Role),
			MinimumCount: role.MinimumCount,
		})
	}
	if err := h.manning.RegisterDocument(r.Context(), doc); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) dispatchJurisdictions(w http.ResponseWriter, r *http.Request) {
	sailingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.dispatcher.Dispatch(r.Context(), sailingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	entityType := domain.AuditEntityType(chi.URLParam(r, "entityType"))
	entityID := chi.URLParam(r, "entityID")

	entries, err := h.ledger.ListByEntity(r.Context(), entityType, entityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
