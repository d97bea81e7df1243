package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking
// infrastructure details.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrBadRequest     = errors.New("bad request")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUnauthorized   = errors.New("unauthorized")

	// OTP validation outcomes.
	ErrNoPendingCode  = errors.New("no pending code")
	ErrCodeMismatch   = errors.New("code mismatch")
	ErrCodeExpired    = errors.New("code expired")

	// ErrNotVerified is the distinguished "must verify" login outcome: a fresh
	// code has been dispatched and the caller should redirect into the
	// verification flow. Reported condition, not a hard failure.
	ErrNotVerified = errors.New("account not verified")

	// ErrDependency marks a failed round-trip to a collaborator (mailer, store).
	ErrDependency = errors.New("dependency failure")
)
