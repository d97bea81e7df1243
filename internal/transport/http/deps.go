package http

import (
	"context"
	"time"

	"github.com/stakesol/api/internal/domain"
)

// AccountRepository is the minimal interface the router requires from the
// account store: get-by-email, get-by-id and save, last-write-wins.
type AccountRepository interface {
	Put(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

// VerificationRepository is the minimal interface the router requires from the
// pending-code store.
type VerificationRepository interface {
	Put(ctx context.Context, v *domain.PendingVerification) error
	Get(ctx context.Context, accountID, purpose string) (*domain.PendingVerification, error)
	Delete(ctx context.Context, accountID, purpose string) error
}

// TicketRepository is the minimal interface the router requires from the
// support ticket store.
type TicketRepository interface {
	Put(ctx context.Context, t *domain.SupportTicket) error
}

// AvatarStore is the minimal interface the router requires from the avatar
// object store.
type AvatarStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
