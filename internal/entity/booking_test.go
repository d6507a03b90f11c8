package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, DurationMinutes(start, start.Add(30*time.Minute)))
	assert.Equal(t, 45, DurationMinutes(start, start.Add(44*time.Minute+40*time.Second)))
	assert.Equal(t, 0, DurationMinutes(start, start))
	assert.Equal(t, 0, DurationMinutes(start, start.Add(-time.Hour)))
}

func TestNewBooking(t *testing.T) {
	start := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	b := NewBooking("abc123", start, start.Add(time.Hour), BookingTypeProposal)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "abc123", b.CalBookingID)
	assert.Equal(t, BookingStatusScheduled, b.Status)
	assert.Equal(t, 60, b.DurationMinutes)
	assert.True(t, b.ProviderManaged())
	assert.Nil(t, b.LeadID)
}

func TestRescheduleKeepsStatus(t *testing.T) {
	start := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	b := NewBooking("abc123", start, start.Add(30*time.Minute), BookingTypeDiscovery)
	b.MeetingURL = "https://meet.example.com/old"
	b.Status = BookingStatusCancelled

	next := start.Add(48 * time.Hour)
	b.Reschedule(next, next.Add(45*time.Minute), "")

	assert.Equal(t, BookingStatusCancelled, b.Status)
	assert.False(t, b.ProviderManaged())
	assert.Equal(t, next, b.StartTime)
	assert.Equal(t, 45, b.DurationMinutes)
	assert.Equal(t, "https://meet.example.com/old", b.MeetingURL, "empty url keeps the old link")

	b.Reschedule(next, next.Add(45*time.Minute), "https://meet.example.com/new")
	assert.Equal(t, "https://meet.example.com/new", b.MeetingURL)
}

func TestEmailLogApply(t *testing.T) {
	l := NewEmailLog("jane@x.com", "Hi", nil)
	assert.Equal(t, EmailStatusPending, l.Status)

	first := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	l.Apply(DeliveryUpdate{Status: EmailStatusOpened, OpenedAt: &first})
	assert.Equal(t, EmailStatusOpened, l.Status)
	if assert.NotNil(t, l.OpenedAt) {
		assert.Equal(t, first, *l.OpenedAt)
	}

	second := first.Add(time.Hour)
	l.Apply(DeliveryUpdate{Status: EmailStatusOpened, OpenedAt: &second})
	assert.Equal(t, first, *l.OpenedAt, "first open is kept")

	l.Apply(DeliveryUpdate{Status: EmailStatusClicked, ClickedAt: &second})
	assert.Equal(t, EmailStatusClicked, l.Status)
	assert.Equal(t, second, *l.ClickedAt)

	// out-of-order delivery still wins the status
	l.Apply(DeliveryUpdate{Status: EmailStatusDelivered})
	assert.Equal(t, EmailStatusDelivered, l.Status)
	assert.NotNil(t, l.OpenedAt)
	assert.NotNil(t, l.ClickedAt)
}

func TestNewActivity(t *testing.T) {
	user := "user-1"
	a := NewActivity("lead-1", ActionBookingCreated, map[string]any{"booking_id": "b1"}, &user)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "lead-1", a.LeadID)
	assert.Equal(t, "booking_created_via_scheduling_provider", a.Action)
	assert.Equal(t, &user, a.UserID)
	assert.False(t, a.CreatedAt.IsZero())
}
