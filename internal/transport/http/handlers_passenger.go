package httptransport

import (
	"encoding/json"
	"net/http"

	"manifestgate/internal/domain"
	"manifestgate/internal/passenger"
	pkgerrors "manifestgate/pkg/errors"
)

type passengerResponse struct {
	ID                string `json:"id"`
	SailingID         string `json:"sailingId"`
	FamilyName        string `json:"familyName"`
	GivenName         string `json:"givenName"`
	Nationality       string `json:"nationality"`
	DateOfBirth       string `json:"dateOfBirth"`
	DocumentType      string `json:"documentType"`
	DocumentNumber    string `json:"documentNumber"` // always masked
	DocumentExpiry    string `json:"documentExpiry"`
	PortOfEmbarkation string `json:"portOfEmbarkation"`
	PortOfDebarkation string `json:"portOfDebarkation"`
	Status            string `json:"status"`
}

func toPassengerResponse(p domain.Passenger) passengerResponse {
	return passengerResponse{
		ID:                p.ID.String(),
		SailingID:         p.SailingID.String(),
		FamilyName:        p.FamilyName,
		GivenName:         p.GivenName,
		Nationality:       p.Nationality,
		DateOfBirth:       p.DateOfBirth.Format("2006-01-02"),
		DocumentType:      string(p.DocumentType),
		DocumentNumber:    p.DocumentNumber,
		DocumentExpiry:    p.DocumentExpiry.Format("2006-01-02"),
		PortOfEmbarkation: p.PortOfEmbarkation,
		PortOfDebarkation: p.PortOfDebarkation,
		Status:            string(p.Status),
	}
}

func (h *Handler) createPassenger(w http.ResponseWriter, r *http.Request) {
	var req passenger.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	p, err := h.passengers.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPassengerResponse(p))
}

func (h *Handler) getPassenger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.passengers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPassengerResponse(p))
}

func (h *Handler) updatePassenger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req passenger.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	p, err := h.passengers.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPassengerResponse(p))
}

func (h *Handler) deletePassenger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if err := h.passengers.Delete(r.Context(), id, body.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSailingPassengers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	passengers, err := h.passengers.ListBySailing(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]passengerResponse, 0, len(passengers))
	for _, p := range passengers {
		out = append(out, toPassengerResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}
