package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stakesol/api/internal/domain"
	"github.com/stakesol/api/internal/pkg/id"
	"github.com/stakesol/api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldDisplayName    = "display_name"
	fieldEmail          = "email"
	fieldCredentialHash = "credential_hash"
	fieldVerified       = "verified"
)

// AuthResult is returned by flows that end in an authenticated session.
type AuthResult struct {
	Token   string
	Account *domain.Account
}

// Service owns the account verification state machine: OTP issuance and
// validation, credential hashing and session-token issuance.
type Service interface {
	// Register creates (or, for an unverified duplicate, overwrites) a pending
	// account and dispatches a registration code. Returns the normalized email.
	Register(ctx context.Context, req domain.RegisterRequest) (string, error)
	// VerifyOTP completes registration: flips verified and issues a token.
	VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error)
	// Login checks credentials on a verified account. For an unverified account
	// it never checks the password: it dispatches a fresh registration code and
	// returns domain.ErrNotVerified so the caller can redirect.
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// ResendOTP unconditionally replaces the outstanding registration code.
	ResendOTP(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.PendingVerification) error
	Get(ctx context.Context, accountID, purpose string) (*domain.PendingVerification, error)
	Delete(ctx context.Context, accountID, purpose string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type jwtSigner interface {
	Sign(accountID string) (string, error)
}

type service struct {
	accounts      accountStore
	verifications verificationStore
	mailer        mailer
	jwtProvider   jwtSigner
	otpTTL        time.Duration
}

type ServiceDeps struct {
	AccountRepo      accountStore
	VerificationRepo verificationStore
	Mailer           mailer
	JWTProvider      jwtSigner
	OTPTTL           time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:      deps.AccountRepo,
		verifications: deps.VerificationRepo,
		mailer:        deps.Mailer,
		jwtProvider:   deps.JWTProvider,
		otpTTL:        deps.OTPTTL,
	}
}

// NormalizeEmail case-folds and trims an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	if req.Password != req.PasswordConfirmation {
		return "", fmt.Errorf("passwords do not match: %w", domain.ErrBadRequest)
	}
	email := NormalizeEmail(req.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Verified:
		return "", fmt.Errorf("account already exists: %w", domain.ErrConflict)
	case err == nil:
		// Resumed registration: overwrite the pending record in place rather
		// than creating a duplicate.
		err = s.accounts.Update(ctx, existing.AccountID, map[string]interface{}{
			fieldDisplayName:    req.DisplayName,
			fieldCredentialHash: string(hash),
		})
		if err != nil {
			return "", err
		}
		return email, s.issueAndSend(ctx, existing.AccountID, domain.PurposeRegister, email, "", verifySubject)
	case !errors.Is(err, domain.ErrNotFound):
		// A transient lookup failure must not mint a duplicate email.
		return "", fmt.Errorf("look up account: %w", domain.ErrDependency)
	default:
		now := time.Now().UTC()
		a := &domain.Account{
			AccountID:      id.New(),
			DisplayName:    req.DisplayName,
			Email:          email,
			CredentialHash: string(hash),
			Verified:       false,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.accounts.Put(ctx, a); err != nil {
			return "", err
		}
		return email, s.issueAndSend(ctx, a.AccountID, domain.PurposeRegister, email, "", verifySubject)
	}
}

func (s *service) VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	a, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("account does not exist: %w", domain.ErrNotFound)
	}
	v, err := s.verifications.Get(ctx, a.AccountID, domain.PurposeRegister)
	if err != nil {
		return nil, fmt.Errorf("no code found, request a new one: %w", domain.ErrNoPendingCode)
	}
	if err := checkCode(v, code); err != nil {
		return nil, err
	}
	if !a.Verified {
		if err := s.accounts.Update(ctx, a.AccountID, map[string]interface{}{fieldVerified: true}); err != nil {
			return nil, err
		}
		a.Verified = true
	}
	if err := s.verifications.Delete(ctx, a.AccountID, domain.PurposeRegister); err != nil {
		slog.Warn("failed to delete verification record", "account_id", a.AccountID, "err", err)
	}
	token, err := s.jwtProvider.Sign(a.AccountID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Account: a}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized := NormalizeEmail(email)
	a, err := s.accounts.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("account does not exist: %w", domain.ErrNotFound)
	}
	if a.CredentialHash == "" {
		return nil, fmt.Errorf("password not set, try resetting your password: %w", domain.ErrBadRequest)
	}
	if !a.Verified {
		// Never check the password on an unverified account; re-dispatch a
		// fresh code instead so the caller can redirect into verification.
		if err := s.issueAndSend(ctx, a.AccountID, domain.PurposeRegister, normalized, "", verifySubject); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("account is not verified, a code has been sent: %w", domain.ErrNotVerified)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.CredentialHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("wrong email or password: %w", domain.ErrBadCredentials)
	}
	token, err := s.jwtProvider.Sign(a.AccountID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Account: a}, nil
}

func (s *service) ResendOTP(ctx context.Context, email string) error {
	normalized := NormalizeEmail(email)
	a, err := s.accounts.GetByEmail(ctx, normalized)
	if err != nil {
		return fmt.Errorf("account does not exist: %w", domain.ErrNotFound)
	}
	return s.issueAndSend(ctx, a.AccountID, domain.PurposeRegister, normalized, "", verifySubject)
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	normalized := NormalizeEmail(email)
	a, err := s.accounts.GetByEmail(ctx, normalized)
	if err != nil {
		return fmt.Errorf("account does not exist: %w", domain.ErrNotFound)
	}
	return s.issueAndSend(ctx, a.AccountID, domain.PurposeReset, normalized, "", resetSubject)
}

func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	a, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("account does not exist: %w", domain.ErrNotFound)
	}
	v, err := s.verifications.Get(ctx, a.AccountID, domain.PurposeReset)
	if err != nil {
		return fmt.Errorf("no code found, request a new one: %w", domain.ErrNoPendingCode)
	}
	if err := checkCode(v, code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.accounts.Update(ctx, a.AccountID, map[string]interface{}{fieldCredentialHash: string(hash)}); err != nil {
		return err
	}
	if err := s.verifications.Delete(ctx, a.AccountID, domain.PurposeReset); err != nil {
		slog.Warn("failed to delete verification record", "account_id", a.AccountID, "err", err)
	}
	return nil
}

// checkCode validates a submitted code against the stored record. A wrong code
// is reported as a mismatch regardless of expiry; expiry is checked second.
func checkCode(v *domain.PendingVerification, code string) error {
	if strings.TrimSpace(code) != strings.TrimSpace(v.Code) {
		return fmt.Errorf("invalid code, please try again: %w", domain.ErrCodeMismatch)
	}
	if time.Now().Unix() >= v.ExpiresAt {
		return fmt.Errorf("code has expired, request a new one: %w", domain.ErrCodeExpired)
	}
	return nil
}

// issueAndSend stores a fresh code for (accountID, purpose) and emails it to
// recipient. The record is persisted before the send: a failed send is reported
// but leaves the pending state intact so resend works.
func (s *service) issueAndSend(ctx context.Context, accountID, purpose, recipient, newEmail, subject string) error {
	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	v := &domain.PendingVerification{
		AccountID: accountID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpTTL).Unix(),
		NewEmail:  newEmail,
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	if err := s.mailer.SendEmail(recipient, subject, otpEmailBody(code, s.otpTTL)); err != nil {
		return fmt.Errorf("send code email: %w", domain.ErrDependency)
	}
	return nil
}

const (
	verifySubject = "StakeSol - Verify Your Account"
	resetSubject  = "StakeSol - Reset Your Password"
)

func otpEmailBody(code string, ttl time.Duration) string {
	return fmt.Sprintf(
		"Your code is valid for %d minutes.\n\n%s\n\nIf you didn't request this, ignore this email.",
		int(ttl.Minutes()), code,
	)
}
