package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/ligue-crm/internal/infra/integration/calcom"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/resend"
)

const maxRawLogBytes = 2048

var schedulingKinds = map[string]SchedulingKind{
	calcom.TriggerBookingCreated:     KindCreated,
	calcom.TriggerBookingRescheduled: KindRescheduled,
	calcom.TriggerBookingCancelled:   KindCancelled,
}

// DecodeScheduling never fails: malformed bodies come back as *DecodeError.
func DecodeScheduling(body []byte) Event {
	var env calcom.WebhookBody
	if err := json.Unmarshal(body, &env); err != nil {
		return decodeFailure(ProviderScheduling, body, err)
	}
	if env.TriggerEvent == "" {
		return decodeFailure(ProviderScheduling, body, errors.New("missing triggerEvent"))
	}

	kind, ok := schedulingKinds[env.TriggerEvent]
	if !ok {
		return UnmappedEvent{From: ProviderScheduling, Event: env.TriggerEvent}
	}

	if len(env.Payload) == 0 {
		return decodeFailure(ProviderScheduling, body, errors.New("missing payload"))
	}
	var payload calcom.BookingPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return decodeFailure(ProviderScheduling, body, fmt.Errorf("payload: %w", err))
	}
	payload.UID = strings.TrimSpace(payload.UID)
	if payload.UID == "" {
		return decodeFailure(ProviderScheduling, body, errors.New("missing payload.uid"))
	}

	ev := SchedulingEvent{Kind: kind, Trigger: env.TriggerEvent, Booking: payload}
	if kind == KindCancelled {
		return ev
	}

	start, err := parseTime(payload.StartTime)
	if err != nil {
		return decodeFailure(ProviderScheduling, body, fmt.Errorf("payload.startTime: %w", err))
	}
	end, err := parseTime(payload.EndTime)
	if err != nil {
		return decodeFailure(ProviderScheduling, body, fmt.Errorf("payload.endTime: %w", err))
	}
	if end.Before(start) {
		return decodeFailure(ProviderScheduling, body, errors.New("payload.endTime before startTime"))
	}
	ev.Start, ev.End = start, end
	return ev
}

// DecodeEmail never fails: malformed bodies come back as *DecodeError.
// received stands in for the event time when the body carries none.
func DecodeEmail(body []byte, received time.Time) Event {
	var env resend.WebhookBody
	if err := json.Unmarshal(body, &env); err != nil {
		return decodeFailure(ProviderEmail, body, err)
	}
	env.Type = strings.TrimSpace(env.Type)
	if env.Type == "" {
		return decodeFailure(ProviderEmail, body, errors.New("missing type"))
	}

	status, ok := resend.MapEmailStatus(env.Type)
	if !ok {
		return UnmappedEvent{From: ProviderEmail, Event: env.Type}
	}

	if len(env.Data) == 0 {
		return decodeFailure(ProviderEmail, body, errors.New("missing data"))
	}
	var data resend.EmailData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return decodeFailure(ProviderEmail, body, fmt.Errorf("data: %w", err))
	}
	data.EmailID = strings.TrimSpace(data.EmailID)
	if data.EmailID == "" {
		return decodeFailure(ProviderEmail, body, errors.New("missing data.email_id"))
	}

	occurred := received.UTC()
	if t, err := parseTime(env.CreatedAt); err == nil {
		occurred = t
	}
	if data.Click != nil {
		if t, err := parseTime(data.Click.Timestamp); err == nil {
			occurred = t
		}
	}

	return EmailEvent{
		Kind:       env.Type,
		Status:     status,
		Data:       data,
		OccurredAt: occurred,
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func decodeFailure(p Provider, body []byte, err error) *DecodeError {
	raw := string(body)
	if len(raw) > maxRawLogBytes {
		raw = raw[:maxRawLogBytes]
	}
	return &DecodeError{From: p, Raw: raw, Err: err}
}
