package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/resend"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"github.com/xavierca1/ligue-crm/internal/webhook"
)

// ReconcileEmailUseCase records provider delivery status on email logs.
// The latest delivery wins: provider webhooks carry no ordering guarantee
// and no sequence number to reject stale ones with.
type ReconcileEmailUseCase struct {
	EmailLogs entity.EmailLogRepository
	Publisher EventPublisher
	Logger    *slog.Logger
}

func NewReconcileEmailUseCase(logs entity.EmailLogRepository, publisher EventPublisher, logger *slog.Logger) *ReconcileEmailUseCase {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileEmailUseCase{EmailLogs: logs, Publisher: publisher, Logger: logger}
}

func (uc *ReconcileEmailUseCase) Execute(ctx context.Context, ev webhook.EmailEvent) (Result, error) {
	log, err := uc.EmailLogs.FindByResendID(ctx, ev.Data.EmailID)
	if errors.Is(err, entity.ErrNotFound) {
		// rows are created by the send path; nothing to reconcile yet
		uc.Logger.WarnContext(ctx, "email event for unknown email",
			slog.String("email_id", ev.Data.EmailID),
			slog.String("event", ev.Kind),
		)
		return Result{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return Result{}, storeError("lookup email log", err)
	}

	update := entity.DeliveryUpdate{Status: ev.Status}
	at := ev.OccurredAt
	switch ev.Kind {
	case resend.EventEmailOpened:
		update.OpenedAt = &at
	case resend.EventEmailClicked:
		update.ClickedAt = &at
	}

	if err := uc.EmailLogs.ApplyDelivery(ctx, log.ID, update); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return Result{Outcome: OutcomeNotFound}, nil
		}
		return Result{}, storeError("update email status", err)
	}
	log.Apply(update)

	res := Result{Outcome: OutcomeUpdated, EntityID: log.ID, LeadID: log.LeadID}

	pubErr := uc.Publisher.PublishReconciliation(ctx, queue.ReconciliationEvent{
		Type:       queue.EventEmailStatusUpdated,
		EntityID:   log.ID,
		ExternalID: ev.Data.EmailID,
		LeadID:     log.LeadID,
		Status:     string(log.Status),
		OccurredAt: time.Now().UTC(),
	})
	if pubErr != nil {
		uc.Logger.ErrorContext(ctx, "reconciliation event not published",
			slog.String("type", queue.EventEmailStatusUpdated),
			slog.String("email_log_id", log.ID),
			slog.Any("error", pubErr),
		)
		res.PublishFailed = true
	}
	return res, nil
}
