// Package webhook turns raw provider deliveries into typed events.
//
// Each delivery decodes into exactly one of SchedulingEvent, EmailEvent,
// UnmappedEvent or *DecodeError. Business logic switches on the concrete
// type and never reaches into the raw JSON.
package webhook

import (
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/calcom"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/resend"
)

type Provider string

const (
	ProviderScheduling Provider = "scheduling"
	ProviderEmail      Provider = "email"
)

type Event interface {
	Provider() Provider
	Name() string
}

type SchedulingKind string

const (
	KindCreated     SchedulingKind = "created"
	KindRescheduled SchedulingKind = "rescheduled"
	KindCancelled   SchedulingKind = "cancelled"
)

type SchedulingEvent struct {
	Kind    SchedulingKind
	Trigger string
	Booking calcom.BookingPayload

	// Start and End are zero for cancellations.
	Start time.Time
	End   time.Time
}

func (SchedulingEvent) Provider() Provider { return ProviderScheduling }
func (e SchedulingEvent) Name() string     { return e.Trigger }

type EmailEvent struct {
	// Kind is the raw provider event name, e.g. "email.opened".
	Kind       string
	Status     entity.EmailStatus
	Data       resend.EmailData
	OccurredAt time.Time
}

func (EmailEvent) Provider() Provider { return ProviderEmail }
func (e EmailEvent) Name() string     { return e.Kind }

// UnmappedEvent is a well-formed delivery whose event name this service
// does not act on.
type UnmappedEvent struct {
	From  Provider
	Event string
}

func (e UnmappedEvent) Provider() Provider { return e.From }
func (e UnmappedEvent) Name() string       { return e.Event }

// DecodeError carries the raw body so the delivery can be logged.
type DecodeError struct {
	From Provider
	Raw  string
	Err  error
}

func (e *DecodeError) Provider() Provider { return e.From }
func (e *DecodeError) Name() string       { return "decode_error" }
func (e *DecodeError) Error() string      { return string(e.From) + " webhook: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error      { return e.Err }
