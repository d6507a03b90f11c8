package calcom

import "encoding/json"

const SignatureHeader = "X-Cal-Signature-256"

const (
	TriggerBookingCreated     = "BOOKING_CREATED"
	TriggerBookingRescheduled = "BOOKING_RESCHEDULED"
	TriggerBookingCancelled   = "BOOKING_CANCELLED"
)

type WebhookBody struct {
	TriggerEvent string          `json:"triggerEvent"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

type Person struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone,omitempty"`
}

type EventType struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type BookingPayload struct {
	UID                string         `json:"uid"`
	RescheduleUID      string         `json:"rescheduleUid,omitempty"`
	Title              string         `json:"title"`
	StartTime          string         `json:"startTime"`
	EndTime            string         `json:"endTime"`
	Status             string         `json:"status"`
	Attendees          []Person       `json:"attendees"`
	Organizer          *Person        `json:"organizer,omitempty"`
	EventType          *EventType     `json:"eventType,omitempty"`
	Type               string         `json:"type,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Location           string         `json:"location,omitempty"`
	CancellationReason string         `json:"cancellationReason,omitempty"`
}

// Slug prefers the nested eventType slug; older payloads only send "type".
func (p BookingPayload) Slug() string {
	if p.EventType != nil && p.EventType.Slug != "" {
		return p.EventType.Slug
	}
	return p.Type
}

func (p BookingPayload) FirstAttendee() (Person, bool) {
	if len(p.Attendees) == 0 {
		return Person{}, false
	}
	return p.Attendees[0], true
}
