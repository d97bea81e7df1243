package support

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stakesol/api/internal/domain"
	"github.com/stakesol/api/internal/pkg/id"
)

type Service interface {
	// Submit persists a support ticket and notifies the support inbox, the
	// requester and the alert topic. Notification failures are logged, not
	// fatal: the ticket is already saved.
	Submit(ctx context.Context, req domain.SubmitTicketRequest) (*domain.SupportTicket, error)
}

type ticketStore interface {
	Put(ctx context.Context, t *domain.SupportTicket) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type topicPublisher interface {
	Publish(ctx context.Context, subject, message string) error
}

type service struct {
	tickets      ticketStore
	mailer       mailer
	publisher    topicPublisher
	supportInbox string
}

type ServiceDeps struct {
	TicketRepo   ticketStore
	Mailer       mailer
	Publisher    topicPublisher // nil disables topic alerts
	SupportInbox string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		tickets:      deps.TicketRepo,
		mailer:       deps.Mailer,
		publisher:    deps.Publisher,
		supportInbox: deps.SupportInbox,
	}
}

func (s *service) Submit(ctx context.Context, req domain.SubmitTicketRequest) (*domain.SupportTicket, error) {
	number, err := newTicketNumber()
	if err != nil {
		return nil, err
	}
	t := &domain.SupportTicket{
		TicketID:     id.New(),
		TicketNumber: number,
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Subject:      req.Subject,
		Message:      req.Message,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.tickets.Put(ctx, t); err != nil {
		return nil, fmt.Errorf("save ticket: %w", domain.ErrDependency)
	}

	teamBody := fmt.Sprintf("Ticket: %s\n\nFrom: %s\nEmail: %s\n\nMessage:\n%s",
		t.TicketNumber, t.Name, t.Email, t.Message)
	if err := s.mailer.SendEmail(s.supportInbox,
		fmt.Sprintf("Support Request: %s (Ticket: %s)", t.Subject, t.TicketNumber), teamBody); err != nil {
		slog.Warn("failed to email support inbox", "ticket", t.TicketNumber, "err", err)
	}

	replyBody := fmt.Sprintf(
		"Hello %s,\n\nYour support request has been received.\nTicket number: %s\n\nOur team will get back to you shortly.",
		t.Name, t.TicketNumber)
	if err := s.mailer.SendEmail(t.Email,
		fmt.Sprintf("Support Ticket Received - %s", t.TicketNumber), replyBody); err != nil {
		slog.Warn("failed to send auto-reply", "ticket", t.TicketNumber, "err", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, "New support ticket "+t.TicketNumber, teamBody); err != nil {
			slog.Warn("failed to publish ticket alert", "ticket", t.TicketNumber, "err", err)
		}
	}
	return t, nil
}

// newTicketNumber generates a human-facing reference like ST-9F3A01BC.
func newTicketNumber() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate ticket number: %w", err)
	}
	return "ST-" + strings.ToUpper(hex.EncodeToString(b)), nil
}
