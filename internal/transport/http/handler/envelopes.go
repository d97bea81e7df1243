package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stakesol/api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Email   string `json:"email,omitempty"`
}

// SafeUser is the public account projection returned to clients.
type SafeUser struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// AuthEnvelope wraps responses that carry a session token.
type AuthEnvelope struct {
	Token   string    `json:"token,omitempty"`
	Message string    `json:"message,omitempty"`
	User    *SafeUser `json:"user,omitempty"`
	// RedirectTo and Email are set on the "must verify" login outcome so the
	// client can route into the verification step with the address prefilled.
	RedirectTo string `json:"redirectTo,omitempty"`
	Email      string `json:"email,omitempty"`
}

func toSafeUser(a *domain.Account) *SafeUser {
	if a == nil {
		return nil
	}
	return &SafeUser{DisplayName: a.DisplayName, Email: a.Email}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// httpError maps a domain error to its HTTP status and a {message} body.
// No internal detail beyond the wrapped message is exposed.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, errMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, errMessage(err))
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrBadCredentials),
		errors.Is(err, domain.ErrNoPendingCode),
		errors.Is(err, domain.ErrCodeMismatch),
		errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, errMessage(err))
	case errors.Is(err, domain.ErrDependency):
		writeError(w, http.StatusBadGateway, errMessage(err))
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

// errMessage strips the wrapped sentinel suffix added by the services
// ("...: <sentinel>"), leaving the human-readable part.
func errMessage(err error) string {
	msg := err.Error()
	if u := errors.Unwrap(err); u != nil {
		suffix := ": " + u.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}
