package calcom

import (
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

var bookingTypes = map[string]entity.BookingType{
	"15min":            entity.BookingTypeDiscovery,
	"30min":            entity.BookingTypeDiscovery,
	"discovery":        entity.BookingTypeDiscovery,
	"discovery-call":   entity.BookingTypeDiscovery,
	"intro-call":       entity.BookingTypeDiscovery,
	"60min":            entity.BookingTypeProposal,
	"proposal":         entity.BookingTypeProposal,
	"proposal-review":  entity.BookingTypeProposal,
	"strategy-session": entity.BookingTypeProposal,
	"followup":         entity.BookingTypeFollowup,
	"follow-up":        entity.BookingTypeFollowup,
	"check-in":         entity.BookingTypeFollowup,
}

// MapBookingType resolves an event-type slug; anything unknown is "other".
func MapBookingType(slug string) entity.BookingType {
	if t, ok := bookingTypes[strings.ToLower(strings.TrimSpace(slug))]; ok {
		return t
	}
	return entity.BookingTypeOther
}

// MeetingURL picks the video link from metadata, falling back to a
// location that is itself a URL. Integration locations like
// "integrations:daily" are ignored.
func MeetingURL(p BookingPayload) string {
	if v, ok := p.Metadata["videoCallUrl"].(string); ok && v != "" {
		return v
	}
	loc := strings.TrimSpace(p.Location)
	if strings.HasPrefix(loc, "https://") || strings.HasPrefix(loc, "http://") {
		return loc
	}
	return ""
}
