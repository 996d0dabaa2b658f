package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"manifestgate/internal/crew"
	"manifestgate/internal/domain"
	pkgerrors "manifestgate/pkg/errors"
)

type crewResponse struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Nationality string  `json:"nationality,omitempty"`
	Role        string  `json:"role"`
	VesselID    *string `json:"vesselId,omitempty"`
}

func toCrewResponse(m domain.CrewMember) crewResponse {
	resp := crewResponse{
		ID:          m.ID.String(),
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Nationality: m.Nationality,
		Role:        string(m.Role),
	}
	if m.VesselID != nil {
		v := m.VesselID.String()
		resp.VesselID = &v
	}
	return resp
}

func (h *Handler) createCrewMember(w http.ResponseWriter, r *http.Request) {
	var req crew.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	member, err := h.crew.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCrewResponse(member))
}

func (h *Handler) getCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := h.crew.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCrewResponse(member))
}

func (h *Handler) deleteCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if err := h.crew.Delete(r.Context(), id, body.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		VesselID string `json:"vesselId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	vesselID, err := uuid.Parse(body.VesselID)
	if err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "vesselId must be a UUID"))
		return
	}
	member, err := h.crew.Assign(r.Context(), id, vesselID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCrewResponse(member))
}

func (h *Handler) unassignCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := h.crew.Unassign(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCrewResponse(member))
}

func (h *Handler) listVesselCrew(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	members, err := h.crew.ListByVessel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]crewResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toCrewResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

// pathID parses the named chi route parameter as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeBadRequest, name+" must be a UUID")
	}
	return id, nil
}
