package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/calcom"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"github.com/xavierca1/ligue-crm/internal/webhook"
)

// ReconcileBookingUseCase applies scheduling-provider events to bookings.
//
// The provider only ever drives absent -> scheduled (created) and
// scheduled -> cancelled (cancelled). Completed and no-show belong to CRM
// users and are never overwritten from here.
type ReconcileBookingUseCase struct {
	Bookings  entity.BookingRepository
	Leads     entity.LeadRepositoryInterface
	Guard     *BookingGuard
	Audit     *ActivityLogger
	Publisher EventPublisher
	Logger    *slog.Logger
}

func NewReconcileBookingUseCase(
	bookings entity.BookingRepository,
	leads entity.LeadRepositoryInterface,
	audit *ActivityLogger,
	publisher EventPublisher,
	logger *slog.Logger,
) *ReconcileBookingUseCase {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileBookingUseCase{
		Bookings:  bookings,
		Leads:     leads,
		Guard:     NewBookingGuard(bookings),
		Audit:     audit,
		Publisher: publisher,
		Logger:    logger,
	}
}

func (uc *ReconcileBookingUseCase) Execute(ctx context.Context, ev webhook.SchedulingEvent) (Result, error) {
	switch ev.Kind {
	case webhook.KindCreated:
		return uc.create(ctx, ev)
	case webhook.KindRescheduled:
		return uc.reschedule(ctx, ev)
	case webhook.KindCancelled:
		return uc.cancel(ctx, ev)
	}
	return Result{Outcome: OutcomeIgnored}, nil
}

func (uc *ReconcileBookingUseCase) create(ctx context.Context, ev webhook.SchedulingEvent) (Result, error) {
	p := ev.Booking

	existing, err := uc.Guard.Lookup(ctx, p.UID)
	if err != nil {
		return Result{}, storeError("lookup booking", err)
	}
	if existing != nil {
		uc.Logger.InfoContext(ctx, "duplicate booking delivery",
			slog.String("cal_booking_id", p.UID),
			slog.String("booking_id", existing.ID),
		)
		return Result{Outcome: OutcomeDuplicate, EntityID: existing.ID, LeadID: existing.LeadID}, nil
	}

	booking := entity.NewBooking(p.UID, ev.Start, ev.End, calcom.MapBookingType(p.Slug()))
	booking.Title = p.Title
	booking.MeetingURL = calcom.MeetingURL(p)
	booking.Metadata = p.Metadata
	if attendee, ok := p.FirstAttendee(); ok {
		booking.AttendeeName = attendee.Name
		booking.AttendeeEmail = strings.TrimSpace(attendee.Email)
	}

	lead, err := uc.resolveLead(ctx, booking.AttendeeEmail)
	if err != nil {
		return Result{}, storeError("resolve lead", err)
	}
	if lead != nil {
		booking.LeadID = &lead.ID
	}

	if err := uc.Bookings.Create(ctx, booking); err != nil {
		if uc.Guard.IsDuplicate(err) {
			uc.Logger.InfoContext(ctx, "booking created concurrently, treating as duplicate",
				slog.String("cal_booking_id", p.UID),
			)
			return Result{Outcome: OutcomeDuplicate}, nil
		}
		return Result{}, storeError("create booking", err)
	}

	res := Result{Outcome: OutcomeCreated, EntityID: booking.ID, LeadID: booking.LeadID}

	if lead != nil {
		_, err := uc.Audit.Log(ctx, lead.ID, entity.ActionBookingCreated, map[string]any{
			"booking_id":     booking.ID,
			"cal_booking_id": booking.CalBookingID,
			"start_time":     booking.StartTime.Format(time.RFC3339),
			"type":           string(booking.Type),
			"title":          booking.Title,
		})
		res.AuditFailed = err != nil
	}

	res.PublishFailed = !uc.publish(ctx, queue.EventBookingCreated, booking)
	return res, nil
}

func (uc *ReconcileBookingUseCase) reschedule(ctx context.Context, ev webhook.SchedulingEvent) (Result, error) {
	p := ev.Booking

	booking, err := uc.Guard.Lookup(ctx, p.UID)
	if err != nil {
		return Result{}, storeError("lookup booking", err)
	}
	if booking == nil && p.RescheduleUID != "" {
		booking, err = uc.Guard.Lookup(ctx, p.RescheduleUID)
		if err != nil {
			return Result{}, storeError("lookup rescheduled booking", err)
		}
		if booking != nil {
			// the provider issued a fresh uid; follow it. The store keeps the
			// old one resolvable, so a late create for it stays a duplicate.
			booking.CalBookingID = p.UID
		}
	}
	if booking == nil {
		uc.Logger.WarnContext(ctx, "reschedule for unknown booking",
			slog.String("cal_booking_id", p.UID),
			slog.String("reschedule_uid", p.RescheduleUID),
		)
		return Result{Outcome: OutcomeNotFound}, nil
	}

	booking.Reschedule(ev.Start, ev.End, calcom.MeetingURL(p))

	if err := uc.Bookings.UpdateSchedule(ctx, booking); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return Result{Outcome: OutcomeNotFound}, nil
		}
		return Result{}, storeError("update booking schedule", err)
	}

	res := Result{Outcome: OutcomeRescheduled, EntityID: booking.ID, LeadID: booking.LeadID}
	res.PublishFailed = !uc.publish(ctx, queue.EventBookingRescheduled, booking)
	return res, nil
}

func (uc *ReconcileBookingUseCase) cancel(ctx context.Context, ev webhook.SchedulingEvent) (Result, error) {
	p := ev.Booking

	booking, err := uc.Guard.Lookup(ctx, p.UID)
	if err != nil {
		return Result{}, storeError("lookup booking", err)
	}
	if booking == nil {
		uc.Logger.WarnContext(ctx, "cancellation for unknown booking", slog.String("cal_booking_id", p.UID))
		return Result{Outcome: OutcomeNotFound}, nil
	}

	res := Result{EntityID: booking.ID, LeadID: booking.LeadID}

	if !booking.ProviderManaged() {
		if booking.Status == entity.BookingStatusCancelled {
			res.Outcome = OutcomeUnchanged
			return res, nil
		}
		uc.Logger.WarnContext(ctx, "ignoring provider cancellation of closed booking",
			slog.String("booking_id", booking.ID),
			slog.String("status", string(booking.Status)),
		)
		res.Outcome = OutcomeProtected
		return res, nil
	}

	changed, err := uc.Bookings.TransitionStatus(ctx, booking.ID, entity.BookingStatusScheduled, entity.BookingStatusCancelled)
	if err != nil {
		return Result{}, storeError("cancel booking", err)
	}
	if !changed {
		// someone moved it off scheduled between lookup and update
		res.Outcome = OutcomeUnchanged
		return res, nil
	}
	booking.Status = entity.BookingStatusCancelled
	res.Outcome = OutcomeCancelled

	if booking.LeadID != nil {
		details := map[string]any{
			"booking_id":     booking.ID,
			"cal_booking_id": booking.CalBookingID,
			"start_time":     booking.StartTime.Format(time.RFC3339),
		}
		if p.CancellationReason != "" {
			details["reason"] = p.CancellationReason
		}
		_, err := uc.Audit.Log(ctx, *booking.LeadID, entity.ActionBookingCancelled, details)
		res.AuditFailed = err != nil
	}

	res.PublishFailed = !uc.publish(ctx, queue.EventBookingCancelled, booking)
	return res, nil
}

// resolveLead picks the first lead sharing the attendee's email. Several
// leads may match; no tie-break beyond "first" is applied.
func (uc *ReconcileBookingUseCase) resolveLead(ctx context.Context, email string) (*entity.Lead, error) {
	if email == "" {
		return nil, nil
	}
	lead, err := uc.Leads.FindFirstByEmail(ctx, email)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lead by email: %w", err)
	}
	return lead, nil
}

func (uc *ReconcileBookingUseCase) publish(ctx context.Context, eventType string, b *entity.Booking) bool {
	err := uc.Publisher.PublishReconciliation(ctx, queue.ReconciliationEvent{
		Type:       eventType,
		EntityID:   b.ID,
		ExternalID: b.CalBookingID,
		LeadID:     b.LeadID,
		Status:     string(b.Status),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		uc.Logger.ErrorContext(ctx, "reconciliation event not published",
			slog.String("type", eventType),
			slog.String("booking_id", b.ID),
			slog.Any("error", err),
		)
		return false
	}
	return true
}
