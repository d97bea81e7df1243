package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stakesol/api/internal/application/profile"
	"github.com/stakesol/api/internal/domain"
	"github.com/stakesol/api/internal/pkg/validate"
	"github.com/stakesol/api/internal/transport/http/middleware"
)

// ProfileHandler handles the authenticated profile endpoints. The requester is
// always identified by the account id in its token, never by email — the email
// may be mid-change.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// ProfileEnvelope wraps profile update responses.
type ProfileEnvelope struct {
	Message      string    `json:"message,omitempty"`
	User         *SafeUser `json:"user,omitempty"`
	PendingEmail string    `json:"pendingEmail,omitempty"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	p, err := h.svc.Get(r.Context(), claims.AccountID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.Update(r.Context(), claims.AccountID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	if result.PendingEmail != "" {
		writeJSON(w, http.StatusOK, ProfileEnvelope{
			Message:      "code sent to new email, verify to complete update",
			PendingEmail: result.PendingEmail,
		})
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{
		Message: "profile updated successfully",
		User:    toSafeUser(result.Account),
	})
}

func (h *ProfileHandler) VerifyNewEmail(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Code     string `json:"code" validate:"required"`
		NewEmail string `json:"new_email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.svc.VerifyNewEmail(r.Context(), claims.AccountID, req.Code, req.NewEmail)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{
		Message: "email updated successfully",
		User:    toSafeUser(a),
	})
}
