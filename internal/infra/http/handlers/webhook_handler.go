package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/calcom"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/resend"
	"github.com/xavierca1/ligue-crm/internal/usecase"
	"github.com/xavierca1/ligue-crm/internal/webhook"
)

type BookingReconciler interface {
	Execute(ctx context.Context, ev webhook.SchedulingEvent) (usecase.Result, error)
}

type EmailReconciler interface {
	Execute(ctx context.Context, ev webhook.EmailEvent) (usecase.Result, error)
}

type WebhookAck struct {
	Received bool   `json:"received"`
	Handled  bool   `json:"handled"`
	Outcome  string `json:"outcome"`
}

// WebhookHandler serves both provider endpoints. Every failure is answered
// here: 401 for authenticity, 500 for store failures so the sender
// retries, 200 for anything that retrying would not fix.
type WebhookHandler struct {
	Bookings     BookingReconciler
	Emails       EmailReconciler
	CalSecret    string
	ResendSecret string
	MaxBodyBytes int64
	Logger       *slog.Logger

	now func() time.Time
}

func NewWebhookHandler(
	bookings BookingReconciler,
	emails EmailReconciler,
	calSecret, resendSecret string,
	maxBodyBytes int64,
	logger *slog.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &WebhookHandler{
		Bookings:     bookings,
		Emails:       emails,
		CalSecret:    calSecret,
		ResendSecret: resendSecret,
		MaxBodyBytes: maxBodyBytes,
		Logger:       logger,
		now:          time.Now,
	}
}

// HandleScheduling serves POST /webhooks/cal.
func (h *WebhookHandler) HandleScheduling(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, webhook.ProviderScheduling, h.CalSecret)
	if !ok {
		return
	}
	if !webhook.Verify(body, r.Header.Get(calcom.SignatureHeader), h.CalSecret) {
		h.reject(w, r, webhook.ProviderScheduling)
		return
	}
	h.dispatch(w, r, webhook.DecodeScheduling(body))
}

// HandleEmail serves POST /webhooks/resend.
func (h *WebhookHandler) HandleEmail(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, webhook.ProviderEmail, h.ResendSecret)
	if !ok {
		return
	}
	if !webhook.Verify(body, r.Header.Get(resend.SignatureHeader), h.ResendSecret) {
		h.reject(w, r, webhook.ProviderEmail)
		return
	}
	h.dispatch(w, r, webhook.DecodeEmail(body, h.now()))
}

// readBody consumes the whole body; the signature covers these exact bytes.
// A body that cannot be read in full cannot be verified: with a secret
// configured it is rejected as unauthenticated, otherwise it is
// acknowledged as undecodable so the sender stops retrying it.
func (h *WebhookHandler) readBody(w http.ResponseWriter, r *http.Request, p webhook.Provider, secret string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err == nil {
		return body, true
	}

	h.Logger.WarnContext(r.Context(), "failed to read webhook body",
		slog.String("provider", string(p)),
		slog.Int64("max_bytes", h.MaxBodyBytes),
		slog.Any("error", err),
	)
	if secret != "" {
		h.reject(w, r, p)
		return nil, false
	}
	h.ack(w, string(p), WebhookAck{Received: true, Outcome: "decode_error"})
	return nil, false
}

func (h *WebhookHandler) reject(w http.ResponseWriter, r *http.Request, p webhook.Provider) {
	h.Logger.WarnContext(r.Context(), "webhook signature rejected",
		slog.String("provider", string(p)),
		slog.String("remote_addr", r.RemoteAddr),
	)
	middleware.RecordWebhookEvent(string(p), "invalid_signature")
	writeErrorResponse(w, http.StatusUnauthorized, "invalid_signature", "webhook signature verification failed")
}

func (h *WebhookHandler) dispatch(w http.ResponseWriter, r *http.Request, ev webhook.Event) {
	ctx := r.Context()
	provider := string(ev.Provider())

	var (
		res usecase.Result
		err error
	)

	switch e := ev.(type) {
	case *webhook.DecodeError:
		h.Logger.WarnContext(ctx, "undecodable webhook",
			slog.String("provider", provider),
			slog.String("error", e.Err.Error()),
			slog.String("raw", e.Raw),
		)
		h.ack(w, provider, WebhookAck{Received: true, Outcome: "decode_error"})
		return

	case webhook.UnmappedEvent:
		h.Logger.InfoContext(ctx, "ignoring webhook event",
			slog.String("provider", provider),
			slog.String("event", e.Event),
		)
		h.ack(w, provider, WebhookAck{Received: true, Outcome: string(usecase.OutcomeIgnored)})
		return

	case webhook.SchedulingEvent:
		res, err = h.Bookings.Execute(ctx, e)

	case webhook.EmailEvent:
		res, err = h.Emails.Execute(ctx, e)

	default:
		h.ack(w, provider, WebhookAck{Received: true, Outcome: string(usecase.OutcomeIgnored)})
		return
	}

	if err != nil {
		h.Logger.ErrorContext(ctx, "webhook processing failed",
			slog.String("provider", provider),
			slog.String("event", ev.Name()),
			slog.Any("error", err),
		)
		middleware.RecordWebhookEvent(provider, "error")

		code := "PROCESSING_ERROR"
		var te *usecase.TechnicalError
		if errors.As(err, &te) {
			code = te.Code
		}
		writeErrorResponse(w, http.StatusInternalServerError, code, "failed to process webhook")
		return
	}

	if res.AuditFailed {
		middleware.RecordActivityLogFailure()
	}
	if res.PublishFailed {
		middleware.RecordEventPublishFailure()
	}

	h.Logger.InfoContext(ctx, "webhook reconciled",
		slog.String("provider", provider),
		slog.String("event", ev.Name()),
		slog.String("outcome", string(res.Outcome)),
		slog.String("entity_id", res.EntityID),
	)
	h.ack(w, provider, WebhookAck{Received: true, Handled: res.Handled(), Outcome: string(res.Outcome)})
}

func (h *WebhookHandler) ack(w http.ResponseWriter, provider string, ack WebhookAck) {
	middleware.RecordWebhookEvent(provider, ack.Outcome)
	writeJSON(w, http.StatusOK, ack)
}
