package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/calcom"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/resend"
	"github.com/xavierca1/ligue-crm/internal/infra/memory"
	"github.com/xavierca1/ligue-crm/internal/usecase"
	"github.com/xavierca1/ligue-crm/internal/webhook"
)

const (
	calSecret    = "cal-secret"
	resendSecret = "resend-secret"
)

var discard = slog.New(slog.DiscardHandler)

type MockBookingReconciler struct {
	mock.Mock
}

func (m *MockBookingReconciler) Execute(ctx context.Context, ev webhook.SchedulingEvent) (usecase.Result, error) {
	args := m.Called(ctx, ev)
	return args.Get(0).(usecase.Result), args.Error(1)
}

type MockEmailReconciler struct {
	mock.Mock
}

func (m *MockEmailReconciler) Execute(ctx context.Context, ev webhook.EmailEvent) (usecase.Result, error) {
	args := m.Called(ctx, ev)
	return args.Get(0).(usecase.Result), args.Error(1)
}

func signedRequest(path, header, secret, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(header, webhook.Sign([]byte(body), secret))
	}
	return req
}

func decodeAck(t *testing.T, w *httptest.ResponseRecorder) WebhookAck {
	t.Helper()
	var ack WebhookAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	return ack
}

const createdBody = `{"triggerEvent":"BOOKING_CREATED","payload":{"uid":"abc123","title":"Intro",
	"startTime":"2024-06-03T14:00:00Z","endTime":"2024-06-03T14:30:00Z",
	"attendees":[{"name":"Jane","email":"jane@x.com"}],"eventType":{"slug":"30min"}}}`

func TestHandleScheduling(t *testing.T) {
	t.Run("invalid signature is 401 and never dispatched", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		h := NewWebhookHandler(bookings, nil, calSecret, resendSecret, 0, discard)

		req := signedRequest("/webhooks/cal", calcom.SignatureHeader, "wrong-secret", createdBody)
		w := httptest.NewRecorder()
		h.HandleScheduling(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"invalid_signature"`)
		bookings.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("missing signature is 401", func(t *testing.T) {
		h := NewWebhookHandler(new(MockBookingReconciler), nil, calSecret, resendSecret, 0, discard)

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, "", createdBody))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid delivery is dispatched", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		bookings.On("Execute", mock.Anything, mock.MatchedBy(func(ev webhook.SchedulingEvent) bool {
			return ev.Kind == webhook.KindCreated && ev.Booking.UID == "abc123"
		})).Return(usecase.Result{Outcome: usecase.OutcomeCreated, EntityID: "b1"}, nil)
		h := NewWebhookHandler(bookings, nil, calSecret, resendSecret, 0, discard)

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, calSecret, createdBody))

		assert.Equal(t, http.StatusOK, w.Code)
		ack := decodeAck(t, w)
		assert.True(t, ack.Received)
		assert.True(t, ack.Handled)
		assert.Equal(t, "created", ack.Outcome)
		bookings.AssertExpectations(t)
	})

	t.Run("duplicate is acknowledged but not handled", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		bookings.On("Execute", mock.Anything, mock.Anything).Return(usecase.Result{Outcome: usecase.OutcomeDuplicate}, nil)
		h := NewWebhookHandler(bookings, nil, calSecret, resendSecret, 0, discard)

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, calSecret, createdBody))

		assert.Equal(t, http.StatusOK, w.Code)
		ack := decodeAck(t, w)
		assert.False(t, ack.Handled)
		assert.Equal(t, "duplicate", ack.Outcome)
	})

	t.Run("unknown trigger is ignored with 200", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		h := NewWebhookHandler(bookings, nil, calSecret, resendSecret, 0, discard)
		body := `{"triggerEvent":"MEETING_ENDED","payload":{"uid":"abc123"}}`

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, calSecret, body))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ignored", decodeAck(t, w).Outcome)
		bookings.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("malformed payload is acknowledged with 200", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		h := NewWebhookHandler(bookings, nil, calSecret, resendSecret, 0, discard)
		body := `{"triggerEvent":"BOOKING_CREATED","payload":{"title":"no uid"}}`

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, calSecret, body))

		assert.Equal(t, http.StatusOK, w.Code)
		ack := decodeAck(t, w)
		assert.False(t, ack.Handled)
		assert.Equal(t, "decode_error", ack.Outcome)
		bookings.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("store failure is 500 so the provider retries", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		bookings.On("Execute", mock.Anything, mock.Anything).Return(usecase.Result{},
			&usecase.TechnicalError{Code: "STORE_ERROR", Message: "create booking", Err: errors.New("connection reset")})
		h := NewWebhookHandler(bookings, nil, calSecret, resendSecret, 0, discard)

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, calSecret, createdBody))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"STORE_ERROR"`)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})

	t.Run("oversized body cannot be verified and is 401", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		h := NewWebhookHandler(bookings, nil, calSecret, resendSecret, 64, discard)

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, calSecret, createdBody))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"invalid_signature"`)
		bookings.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("oversized body without a secret is acknowledged", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		h := NewWebhookHandler(bookings, nil, "", resendSecret, 64, discard)

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, "", createdBody))

		assert.Equal(t, http.StatusOK, w.Code)
		ack := decodeAck(t, w)
		assert.True(t, ack.Received)
		assert.False(t, ack.Handled)
		assert.Equal(t, "decode_error", ack.Outcome)
		bookings.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("no secret configured skips verification", func(t *testing.T) {
		bookings := new(MockBookingReconciler)
		bookings.On("Execute", mock.Anything, mock.Anything).Return(usecase.Result{Outcome: usecase.OutcomeCreated}, nil)
		h := NewWebhookHandler(bookings, nil, "", resendSecret, 0, discard)

		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, "", createdBody))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandleEmail(t *testing.T) {
	openedBody := `{"type":"email.opened","data":{"email_id":"re_1"}}`

	t.Run("uses receipt time when the body has none", func(t *testing.T) {
		received := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		emails := new(MockEmailReconciler)
		emails.On("Execute", mock.Anything, mock.MatchedBy(func(ev webhook.EmailEvent) bool {
			return ev.Status == entity.EmailStatusOpened && ev.OccurredAt.Equal(received)
		})).Return(usecase.Result{Outcome: usecase.OutcomeUpdated}, nil)

		h := NewWebhookHandler(nil, emails, calSecret, resendSecret, 0, discard)
		h.now = func() time.Time { return received }

		w := httptest.NewRecorder()
		h.HandleEmail(w, signedRequest("/webhooks/resend", resend.SignatureHeader, resendSecret, openedBody))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeAck(t, w).Handled)
		emails.AssertExpectations(t)
	})

	t.Run("scheduling secret does not authenticate email webhooks", func(t *testing.T) {
		emails := new(MockEmailReconciler)
		h := NewWebhookHandler(nil, emails, calSecret, resendSecret, 0, discard)

		w := httptest.NewRecorder()
		h.HandleEmail(w, signedRequest("/webhooks/resend", resend.SignatureHeader, calSecret, openedBody))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		emails.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("unknown email is not an error", func(t *testing.T) {
		emails := new(MockEmailReconciler)
		emails.On("Execute", mock.Anything, mock.Anything).Return(usecase.Result{Outcome: usecase.OutcomeNotFound}, nil)
		h := NewWebhookHandler(nil, emails, calSecret, resendSecret, 0, discard)

		w := httptest.NewRecorder()
		h.HandleEmail(w, signedRequest("/webhooks/resend", resend.SignatureHeader, resendSecret, openedBody))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "not_found", decodeAck(t, w).Outcome)
	})
}

// TestWebhookPipeline runs real deliveries through the use cases against
// the in-memory store.
func TestWebhookPipeline(t *testing.T) {
	store := memory.NewStore()
	store.AddLead(entity.Lead{ID: "lead-jane", Email: "jane@x.com"})

	audit := usecase.NewActivityLogger(store.Activities(), discard)
	h := NewWebhookHandler(
		usecase.NewReconcileBookingUseCase(store.Bookings(), store.Leads(), audit, nil, discard),
		usecase.NewReconcileEmailUseCase(store.EmailLogs(), nil, discard),
		calSecret, resendSecret, 0, discard,
	)

	send := func(body string) WebhookAck {
		w := httptest.NewRecorder()
		h.HandleScheduling(w, signedRequest("/webhooks/cal", calcom.SignatureHeader, calSecret, body))
		require.Equal(t, http.StatusOK, w.Code)
		return decodeAck(t, w)
	}

	assert.Equal(t, "created", send(createdBody).Outcome)
	assert.Equal(t, "duplicate", send(createdBody).Outcome)
	assert.Equal(t, "cancelled", send(`{"triggerEvent":"BOOKING_CANCELLED","payload":{"uid":"abc123"}}`).Outcome)
	assert.Equal(t, "unchanged", send(`{"triggerEvent":"BOOKING_CANCELLED","payload":{"uid":"abc123"}}`).Outcome)

	bookings := store.AllBookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, entity.BookingStatusCancelled, bookings[0].Status)
	assert.Len(t, store.AllActivities(), 2)
}
