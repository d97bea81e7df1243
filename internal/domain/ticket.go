package domain

import "time"

// SupportTicket is a persisted support request. TicketNumber is the
// human-facing reference quoted in the confirmation email.
type SupportTicket struct {
	TicketID     string    `json:"id" dynamodbav:"ticket_id"`
	TicketNumber string    `json:"ticket_number" dynamodbav:"ticket_number"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	Subject      string    `json:"subject" dynamodbav:"subject"`
	Message      string    `json:"message" dynamodbav:"message"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}

type SubmitTicketRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}
