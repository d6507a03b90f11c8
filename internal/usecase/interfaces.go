package usecase

import (
	"context"

	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

type EventPublisher interface {
	PublishReconciliation(ctx context.Context, ev queue.ReconciliationEvent) error
}

type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeRescheduled Outcome = "rescheduled"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeProtected   Outcome = "protected"
	OutcomeUpdated     Outcome = "updated"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeIgnored     Outcome = "ignored"
)

type Result struct {
	Outcome  Outcome
	EntityID string
	LeadID   *string

	// AuditFailed and PublishFailed report best-effort steps that did not
	// complete. The primary state change stands either way.
	AuditFailed   bool
	PublishFailed bool
}

// Handled is true when the event changed a record.
func (r Result) Handled() bool {
	switch r.Outcome {
	case OutcomeCreated, OutcomeRescheduled, OutcomeCancelled, OutcomeUpdated:
		return true
	}
	return false
}
