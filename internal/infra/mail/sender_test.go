package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/memory"
)

type MockDialer struct {
	mock.Mock
	sent []*gomail.Message
}

func (m *MockDialer) DialAndSend(msgs ...*gomail.Message) error {
	m.sent = append(m.sent, msgs...)
	return m.Called(len(msgs)).Error(0)
}

func newTestSender(d dialer, store *memory.Store) *EmailSender {
	return &EmailSender{
		Dialer: d,
		From:   "CRM <crm@ligue.example>",
		Logs:   store.EmailLogs(),
		Logger: slog.New(slog.DiscardHandler),
	}
}

func TestSend(t *testing.T) {
	store := memory.NewStore()
	d := new(MockDialer)
	d.On("DialAndSend", 1).Return(nil)
	leadID := "lead-jane"

	log, err := newTestSender(d, store).Send(context.Background(), OutboundEmail{
		To:      "jane@x.com",
		Subject: "Proposal",
		Body:    "<p>hi</p>",
		HTML:    true,
		LeadID:  &leadID,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.EmailStatusSent, log.Status)
	require.NotNil(t, log.ResendID)

	stored, err := store.EmailLogs().FindByResendID(context.Background(), *log.ResendID)
	require.NoError(t, err)
	assert.Equal(t, log.ID, stored.ID)
	assert.Equal(t, entity.EmailStatusSent, stored.Status)
	assert.Equal(t, &leadID, stored.LeadID)

	require.Len(t, d.sent, 1)
	msg := d.sent[0]
	assert.Equal(t, []string{"jane@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"<" + *log.ResendID + "@ligue.example>"}, msg.GetHeader("Message-ID"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
}

func TestSendFailureMarksLogFailed(t *testing.T) {
	store := memory.NewStore()
	d := new(MockDialer)
	d.On("DialAndSend", 1).Return(errors.New("535 authentication failed"))

	log, err := newTestSender(d, store).Send(context.Background(), OutboundEmail{To: "jane@x.com", Subject: "Hi", Body: "hello"})
	require.Error(t, err)
	require.NotNil(t, log)

	stored, ferr := store.EmailLogs().FindByID(context.Background(), log.ID)
	require.NoError(t, ferr)
	assert.Equal(t, entity.EmailStatusFailed, stored.Status)
}

func TestSendRequiresRecipient(t *testing.T) {
	d := new(MockDialer)
	_, err := newTestSender(d, memory.NewStore()).Send(context.Background(), OutboundEmail{Subject: "Hi"})
	assert.Error(t, err)
	d.AssertNotCalled(t, "DialAndSend", mock.Anything)
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "ligue.example", senderDomain("CRM <crm@ligue.example>"))
	assert.Equal(t, "x.com", senderDomain("a@x.com"))
	assert.Equal(t, "localhost", senderDomain("nobody"))
	assert.Equal(t, "localhost", senderDomain("trailing@"))
}
