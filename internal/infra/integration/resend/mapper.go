package resend

import (
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

var emailStatuses = map[string]entity.EmailStatus{
	EventEmailSent:       entity.EmailStatusSent,
	EventEmailDelivered:  entity.EmailStatusDelivered,
	EventEmailOpened:     entity.EmailStatusOpened,
	EventEmailClicked:    entity.EmailStatusClicked,
	EventEmailBounced:    entity.EmailStatusBounced,
	EventEmailComplained: entity.EmailStatusFailed,
}

// MapEmailStatus returns false for events that do not move an email's
// status (delivery_delayed, contact.*, ...).
func MapEmailStatus(eventType string) (entity.EmailStatus, bool) {
	s, ok := emailStatuses[strings.TrimSpace(eventType)]
	return s, ok
}
