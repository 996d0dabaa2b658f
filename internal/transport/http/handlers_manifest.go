package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"manifestgate/internal/domain"
	"manifestgate/internal/manifest"
)

type manifestValidationErrorResponse struct {
	PassengerID string `json:"passengerId"`
	Field       string `json:"field"`
	Message     string `json:"message"`
	Severity    string `json:"severity"`
}

type manifestResponse struct {
	ID               string                            `json:"id"`
	SailingID        string                            `json:"sailingId"`
	Status           string                            `json:"status"`
	ValidationStatus string                            `json:"validationStatus"`
	PassengerIDs     []string                          `json:"passengerIds"`
	ValidationErrors []manifestValidationErrorResponse `json:"validationErrors,omitempty"`
	ApprovedBy       *string                           `json:"approvedBy,omitempty"`
	SubmittedBy      *string                           `json:"submittedBy,omitempty"`
	RejectionReason  string                            `json:"rejectionReason,omitempty"`
}

func toManifestResponse(m domain.Manifest) manifestResponse {
	resp := manifestResponse{
		ID:               m.ID.String(),
		SailingID:        m.SailingID.String(),
		Status:           string(m.Status),
		ValidationStatus: string(m.ValidationStatus),
		PassengerIDs:     make([]string, 0, len(m.PassengerIDs)),
		RejectionReason:  m.RejectionReason,
	}
	for _, id := range m.PassengerIDs {
		resp.PassengerIDs = append(resp.PassengerIDs, id.String())
	}
	for _, e := range m.ValidationErrors {
		resp.ValidationErrors = append(resp.ValidationErrors, manifestValidationErrorResponse{
			PassengerID: e.PassengerID.String(),
			Field:       e.Field,
			Message:     e.Message,
			Severity:    string(e.Severity),
		})
	}
	if m.ApprovedBy != nil {
		v := m.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if m.SubmittedBy != nil {
		v := m.SubmittedBy.String()
		resp.SubmittedBy = &v
	}
	return resp
}

func (h *Handler) generateManifest(w http.ResponseWriter, r *http.Request) {
	sailingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := h.manifests.Generate(r.Context(), sailingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toManifestResponse(m))
}

func (h *Handler) getManifest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := h.manifests.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toManifestResponse(m))
}

func (h *Handler) submitManifestForReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := h.manifests.SubmitForReview(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toManifestResponse(m))
}

func (h *Handler) approveManifest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Notes string `json:"notes"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	m, err := h.manifests.Approve(r.Context(), id, body.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toManifestResponse(m))
}

func (h *Handler) submitManifest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := h.manifests.Submit(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toManifestResponse(m))
}

func (h *Handler) rejectManifest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	m, err := h.manifests.Reject(r.Context(), id, body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toManifestResponse(m))
}

func (h *Handler) exportManifest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(domain.ExportCSV)
	}

	result, err := h.exports.Export(r.Context(), manifest.ExportRequest{
		ManifestID:   id,
		Format:       domain.ExportFormat(format),
		Jurisdiction: r.URL.Query().Get("jurisdiction"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}
