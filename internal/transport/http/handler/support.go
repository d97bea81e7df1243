package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stakesol/api/internal/application/support"
	"github.com/stakesol/api/internal/domain"
	"github.com/stakesol/api/internal/pkg/validate"
)

// SupportHandler handles support ticket submission.
type SupportHandler struct {
	svc support.Service
}

func NewSupportHandler(svc support.Service) *SupportHandler {
	return &SupportHandler{svc: svc}
}

// TicketEnvelope wraps ticket submission responses.
type TicketEnvelope struct {
	Message      string `json:"message"`
	TicketNumber string `json:"ticket_number"`
}

func (h *SupportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TicketEnvelope{
		Message:      "support request submitted successfully",
		TicketNumber: t.TicketNumber,
	})
}
