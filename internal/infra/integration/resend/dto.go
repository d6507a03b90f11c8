package resend

import "encoding/json"

const SignatureHeader = "Resend-Signature"

const (
	EventEmailSent       = "email.sent"
	EventEmailDelivered  = "email.delivered"
	EventEmailOpened     = "email.opened"
	EventEmailClicked    = "email.clicked"
	EventEmailBounced    = "email.bounced"
	EventEmailComplained = "email.complained"
)

type WebhookBody struct {
	Type      string          `json:"type"`
	CreatedAt string          `json:"created_at,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// Click is only present on email.clicked. Its timestamp is the moment of
// the click, which can precede the envelope's created_at.
type Click struct {
	Link      string `json:"link"`
	Timestamp string `json:"timestamp"`
}

type EmailData struct {
	EmailID string   `json:"email_id"`
	From    string   `json:"from,omitempty"`
	To      []string `json:"to,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Click   *Click   `json:"click,omitempty"`
}
