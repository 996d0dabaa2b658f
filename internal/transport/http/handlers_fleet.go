package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"manifestgate/internal/domain"
	"manifestgate/internal/fleet"
	pkgerrors "manifestgate/pkg/errors"
)

type vesselResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	IMONumber    string  `json:"imoNumber,omitempty"`
	Type         string  `json:"type"`
	GrossTonnage float64 `json:"grossTonnage"`
	HomeFlag     string  `json:"homeFlag,omitempty"`
}

func toVesselResponse(v domain.Vessel) vesselResponse {
	return vesselResponse{
		ID:           v.ID.String(),
		Name:         v.Name,
		IMONumber:    v.IMONumber,
		Type:         string(v.Type),
		GrossTonnage: v.GrossTonnage,
		HomeFlag:     v.HomeFlag,
	}
}

type sailingResponse struct {
	ID            string   `json:"id"`
	VesselID      string   `json:"vesselId"`
	DeparturePort string   `json:"departurePort"`
	ArrivalPort   string   `json:"arrivalPort"`
	DepartureTime string   `json:"departureTime"`
	RoutePorts    []string `json:"routePorts"`
}

func toSailingResponse(s domain.Sailing) sailingResponse {
	return sailingResponse{
		ID:            s.ID.String(),
		VesselID:      s.VesselID.String(),
		DeparturePort: s.DeparturePort,
		ArrivalPort:   s.ArrivalPort,
		DepartureTime: s.DepartureTime.Format(time.RFC3339),
		RoutePorts:    s.RoutePorts,
	}
}

func (h *Handler) createVessel(w http.ResponseWriter, r *http.Request) {
	var req fleet.CreateVesselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	vessel, err := h.fleet.CreateVessel(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVesselResponse(vessel))
}

func (h *Handler) getVessel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	vessel, err := h.fleet.GetVessel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVesselResponse(vessel))
}

func (h *Handler) createSailing(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VesselID      string   `json:"vesselId"`
		DeparturePort string   `json:"departurePort"`
		ArrivalPort   string   `json:"arrivalPort"`
		DepartureTime string   `json:"departureTime"`
		RoutePorts    []string `json:"routePorts"`
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
	sailing, err := h.fleet.CreateSailing(r.Context(), fleet.CreateSailingRequest{
		VesselID:      vesselID,
		DeparturePort: body.DeparturePort,
		ArrivalPort:   body.ArrivalPort,
		DepartureTime: body.DepartureTime,
		RoutePorts:    body.RoutePorts,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSailingResponse(sailing))
}

func (h *Handler) getSailing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	sailing, err := h.fleet.GetSailing(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSailingResponse(sailing))
}
