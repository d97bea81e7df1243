package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stakesol/api/internal/application/auth"
	"github.com/stakesol/api/internal/domain"
	"github.com/stakesol/api/internal/pkg/otp"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldDisplayName = "display_name"
	fieldEmail       = "email"
	fieldAvatarKey   = "avatar_key"
)

const avatarURLTTL = 15 * time.Minute

// UpdateResult reports the outcome of a profile update. PendingEmail is set
// when an email change was requested: the stored address stays unchanged until
// VerifyNewEmail succeeds.
type UpdateResult struct {
	Account      *domain.Account
	PendingEmail string
}

// Profile is the public view of an account.
type Profile struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type Service interface {
	Get(ctx context.Context, accountID string) (*Profile, error)
	// Update applies displayName and avatar immediately; an email change only
	// records the candidate address and dispatches a code to it.
	Update(ctx context.Context, accountID string, req domain.UpdateProfileRequest) (*UpdateResult, error)
	// VerifyNewEmail completes the email-change flow. The requester is
	// identified by account id since the email itself is mid-change.
	VerifyNewEmail(ctx context.Context, accountID, code, newEmail string) (*domain.Account, error)
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
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

type avatarStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	accounts      accountStore
	verifications verificationStore
	mailer        mailer
	avatars       avatarStore
	otpTTL        time.Duration
}

type ServiceDeps struct {
	AccountRepo      accountStore
	VerificationRepo verificationStore
	Mailer           mailer
	AvatarStore      avatarStore
	OTPTTL           time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:      deps.AccountRepo,
		verifications: deps.VerificationRepo,
		mailer:        deps.Mailer,
		avatars:       deps.AvatarStore,
		otpTTL:        deps.OTPTTL,
	}
}

func (s *service) Get(ctx context.Context, accountID string) (*Profile, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account does not exist: %w", domain.ErrNotFound)
	}
	return s.toProfile(ctx, a), nil
}

func (s *service) Update(ctx context.Context, accountID string, req domain.UpdateProfileRequest) (*UpdateResult, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account does not exist: %w", domain.ErrNotFound)
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil && *req.DisplayName != "" {
		updates[fieldDisplayName] = *req.DisplayName
		a.DisplayName = *req.DisplayName
	}
	if req.AvatarBase64 != nil && *req.AvatarBase64 != "" {
		key := "avatars/" + a.AccountID
		if _, err := s.avatars.UploadBase64(ctx, key, *req.AvatarBase64); err != nil {
			return nil, fmt.Errorf("upload avatar: %w", domain.ErrDependency)
		}
		updates[fieldAvatarKey] = key
		a.AvatarKey = key
	} else if req.RemoveAvatar && a.AvatarKey != "" {
		// The account record is authoritative; an orphaned object is tolerable.
		if err := s.avatars.Delete(ctx, a.AvatarKey); err != nil {
			slog.Warn("failed to delete avatar object", "account_id", a.AccountID, "err", err)
		}
		updates[fieldAvatarKey] = ""
		a.AvatarKey = ""
	}
	if len(updates) > 0 {
		if err := s.accounts.Update(ctx, accountID, updates); err != nil {
			return nil, err
		}
	}

	// Email changes never apply immediately: record the candidate address and
	// prove control of it first.
	if req.Email != nil {
		candidate := auth.NormalizeEmail(*req.Email)
		if candidate != "" && candidate != a.Email {
			other, err := s.accounts.GetByEmail(ctx, candidate)
			switch {
			case err == nil && other.AccountID != accountID:
				return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
			case err != nil && !errors.Is(err, domain.ErrNotFound):
				// A transient lookup failure must not pass the uniqueness check.
				return nil, fmt.Errorf("look up email: %w", domain.ErrDependency)
			}
			if err := s.issueAndSend(ctx, accountID, candidate); err != nil {
				return nil, err
			}
			return &UpdateResult{Account: a, PendingEmail: candidate}, nil
		}
	}
	return &UpdateResult{Account: a}, nil
}

func (s *service) VerifyNewEmail(ctx context.Context, accountID, code, newEmail string) (*domain.Account, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account does not exist: %w", domain.ErrNotFound)
	}
	v, err := s.verifications.Get(ctx, accountID, domain.PurposeEmailChange)
	if err != nil {
		return nil, fmt.Errorf("no code found, request a new one: %w", domain.ErrNoPendingCode)
	}
	if strings.TrimSpace(code) != strings.TrimSpace(v.Code) {
		return nil, fmt.Errorf("invalid code, please try again: %w", domain.ErrCodeMismatch)
	}
	if time.Now().Unix() >= v.ExpiresAt {
		return nil, fmt.Errorf("code has expired, request a new one: %w", domain.ErrCodeExpired)
	}
	candidate := auth.NormalizeEmail(newEmail)
	if candidate != v.NewEmail {
		return nil, fmt.Errorf("invalid code, please try again: %w", domain.ErrCodeMismatch)
	}
	if err := s.accounts.Update(ctx, accountID, map[string]interface{}{fieldEmail: candidate}); err != nil {
		return nil, err
	}
	if err := s.verifications.Delete(ctx, accountID, domain.PurposeEmailChange); err != nil {
		slog.Warn("failed to delete verification record", "account_id", accountID, "err", err)
	}
	a.Email = candidate
	return a, nil
}

func (s *service) issueAndSend(ctx context.Context, accountID, candidate string) error {
	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	v := &domain.PendingVerification{
		AccountID: accountID,
		Purpose:   domain.PurposeEmailChange,
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpTTL).Unix(),
		NewEmail:  candidate,
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	body := fmt.Sprintf(
		"Your code is valid for %d minutes.\n\n%s\n\nIf you didn't request this, ignore this email.",
		int(s.otpTTL.Minutes()), code,
	)
	// The code goes to the candidate address: only someone in control of it
	// can complete the change.
	if err := s.mailer.SendEmail(candidate, "StakeSol - Verify Your New Email", body); err != nil {
		return fmt.Errorf("send code email: %w", domain.ErrDependency)
	}
	return nil
}

func (s *service) toProfile(ctx context.Context, a *domain.Account) *Profile {
	p := &Profile{DisplayName: a.DisplayName, Email: a.Email}
	if a.AvatarKey != "" && s.avatars != nil {
		url, err := s.avatars.PresignedURL(ctx, a.AvatarKey, avatarURLTTL)
		if err != nil {
			slog.Warn("failed to presign avatar url", "account_id", a.AccountID, "err", err)
		} else {
			p.AvatarURL = url
		}
	}
	return p
}
