package httptransport

import (
	"encoding/json"
	"net/http"

	"manifestgate/internal/certification"
	"manifestgate/internal/domain"
	pkgerrors "manifestgate/pkg/errors"
)

type certificationResponse struct {
	ID           string `json:"id"`
	CrewMemberID string `json:"crewMemberId"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	IssueDate    string `json:"issueDate"`
	ExpiryDate   string `json:"expiryDate"`
}

func toCertificationResponse(c domain.Certification) certificationResponse {
	return certificationResponse{
		ID:           c.ID.String(),
		CrewMemberID: c.CrewMemberID.String(),
		Type:         string(c.Type),
		Status:       string(c.Status),
		IssueDate:    c.IssueDate.Format("2006-01-02"),
		ExpiryDate:   c.ExpiryDate.Format("2006-01-02"),
	}
}

func (h *Handler) createCertification(w http.ResponseWriter, r *http.Request) {
	var req certification.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	cert, err := h.certs.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCertificationResponse(cert))
}

func (h *Handler) verifyCertification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	cert, err := h.certs.Verify(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCertificationResponse(cert))
}

func (h *Handler) revokeCertification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	cert, err := h.certs.Revoke(r.Context(), id, body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCertificationResponse(cert))
}

func (h *Handler) evaluateCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.certs.EvaluateCrewMember(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
