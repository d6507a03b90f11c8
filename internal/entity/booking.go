package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BookingType string

const (
	BookingTypeDiscovery BookingType = "discovery"
	BookingTypeProposal  BookingType = "proposal"
	BookingTypeFollowup  BookingType = "followup"
	BookingTypeOther     BookingType = "other"
)

type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

type Booking struct {
	ID     string  `json:"id"`
	LeadID *string `json:"lead_id,omitempty"`

	// CalBookingID is the scheduling provider's current uid. Unique across
	// the current and superseded uids of every booking.
	CalBookingID string `json:"cal_booking_id"`

	Title           string         `json:"title,omitempty"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	DurationMinutes int            `json:"duration_minutes"`
	Type            BookingType    `json:"type"`
	Status          BookingStatus  `json:"status"`
	MeetingURL      string         `json:"meeting_url,omitempty"`
	AttendeeName    string         `json:"attendee_name,omitempty"`
	AttendeeEmail   string         `json:"attendee_email,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type BookingRepository interface {
	// FindByCalBookingID also resolves uids a booking was rekeyed away from.
	FindByCalBookingID(ctx context.Context, calBookingID string) (*Booking, error)

	// Create returns ErrDuplicateBooking when any booking holds or has held
	// the same CalBookingID.
	Create(ctx context.Context, b *Booking) error

	// UpdateSchedule writes cal_booking_id, start/end, duration and meeting
	// url only. Status is never touched here. A changed cal_booking_id is
	// added to the booking's uids; the previous one keeps resolving to it.
	UpdateSchedule(ctx context.Context, b *Booking) error

	// TransitionStatus sets status to `to` only if it is currently `from`.
	// It reports whether a row changed.
	TransitionStatus(ctx context.Context, id string, from, to BookingStatus) (bool, error)
}

// NewBooking builds a scheduled booking and derives its duration.
func NewBooking(calBookingID string, start, end time.Time, bookingType BookingType) *Booking {
	now := time.Now().UTC()
	return &Booking{
		ID:              uuid.New().String(),
		CalBookingID:    calBookingID,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: DurationMinutes(start, end),
		Type:            bookingType,
		Status:          BookingStatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Reschedule moves the booking to a new interval. Status is left alone.
func (b *Booking) Reschedule(start, end time.Time, meetingURL string) {
	b.StartTime = start
	b.EndTime = end
	b.DurationMinutes = DurationMinutes(start, end)
	if meetingURL != "" {
		b.MeetingURL = meetingURL
	}
	b.UpdatedAt = time.Now().UTC()
}

// ProviderManaged reports whether an external cancellation may still
// change the booking. Cancelled is terminal; completed and no-show are
// owned by CRM users.
func (b *Booking) ProviderManaged() bool {
	return b.Status == BookingStatusScheduled
}

func DurationMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d.Round(time.Minute) / time.Minute)
}
