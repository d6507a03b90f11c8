package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ActionBookingCreated   = "booking_created_via_scheduling_provider"
	ActionBookingCancelled = "booking_cancelled_via_scheduling_provider"
)

// Activity is an append-only audit entry on a lead.
type Activity struct {
	ID        string         `json:"id"`
	LeadID    string         `json:"lead_id"`
	UserID    *string        `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
	ListByLeadID(ctx context.Context, leadID string) ([]*Activity, error)
}

func NewActivity(leadID, action string, details map[string]any, userID *string) *Activity {
	return &Activity{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
}
