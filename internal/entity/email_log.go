package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EmailStatus string

const (
	EmailStatusPending   EmailStatus = "pending"
	EmailStatusSent      EmailStatus = "sent"
	EmailStatusDelivered EmailStatus = "delivered"
	EmailStatusOpened    EmailStatus = "opened"
	EmailStatusClicked   EmailStatus = "clicked"
	EmailStatusBounced   EmailStatus = "bounced"
	EmailStatusFailed    EmailStatus = "failed"
)

type EmailLog struct {
	ID     string  `json:"id"`
	LeadID *string `json:"lead_id,omitempty"`

	// ResendID is the email provider's identifier, set once the provider
	// accepted the message.
	ResendID *string `json:"resend_id,omitempty"`

	ToEmail   string      `json:"to_email"`
	Subject   string      `json:"subject"`
	Status    EmailStatus `json:"status"`
	OpenedAt  *time.Time  `json:"opened_at,omitempty"`
	ClickedAt *time.Time  `json:"clicked_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// DeliveryUpdate is the provider-observed change applied to an EmailLog.
// OpenedAt/ClickedAt only land if the row has none yet.
type DeliveryUpdate struct {
	Status    EmailStatus
	OpenedAt  *time.Time
	ClickedAt *time.Time
}

type EmailLogRepository interface {
	FindByResendID(ctx context.Context, resendID string) (*EmailLog, error)
	Create(ctx context.Context, l *EmailLog) error
	UpdateStatus(ctx context.Context, id string, status EmailStatus) error
	ApplyDelivery(ctx context.Context, id string, u DeliveryUpdate) error
}

func NewEmailLog(to, subject string, leadID *string) *EmailLog {
	now := time.Now().UTC()
	return &EmailLog{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		ToEmail:   to,
		Subject:   subject,
		Status:    EmailStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply mirrors ApplyDelivery for callers holding the row in memory.
func (l *EmailLog) Apply(u DeliveryUpdate) {
	l.Status = u.Status
	if l.OpenedAt == nil && u.OpenedAt != nil {
		t := *u.OpenedAt
		l.OpenedAt = &t
	}
	if l.ClickedAt == nil && u.ClickedAt != nil {
		t := *u.ClickedAt
		l.ClickedAt = &t
	}
	l.UpdatedAt = time.Now().UTC()
}
