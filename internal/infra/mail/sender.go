// Package mail is the outbound send path. It owns EmailLog creation: a row
// exists before the message leaves, so delivery webhooks have something to
// reconcile against.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	Dialer dialer
	From   string
	Logs   entity.EmailLogRepository
	Logger *slog.Logger
}

func NewEmailSender(host string, port int, user, password, from string, logs entity.EmailLogRepository, logger *slog.Logger) *EmailSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailSender{
		Dialer: gomail.NewDialer(host, port, user, password),
		From:   from,
		Logs:   logs,
		Logger: logger,
	}
}

// Send records the email as pending, hands it to the SMTP relay and marks
// it sent or failed. The generated Message-ID is stored as the provider id.
func (s *EmailSender) Send(ctx context.Context, out OutboundEmail) (*entity.EmailLog, error) {
	if strings.TrimSpace(out.To) == "" {
		return nil, errors.New("recipient is required")
	}

	log := entity.NewEmailLog(out.To, out.Subject, out.LeadID)
	providerID := uuid.New().String()
	log.ResendID = &providerID

	if err := s.Logs.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("create email log: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", out.To)
	m.SetHeader("Subject", out.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", providerID, senderDomain(s.From)))
	if out.HTML {
		m.SetBody("text/html", out.Body)
	} else {
		m.SetBody("text/plain", out.Body)
	}

	if err := s.Dialer.DialAndSend(m); err != nil {
		log.Status = entity.EmailStatusFailed
		if uerr := s.Logs.UpdateStatus(ctx, log.ID, entity.EmailStatusFailed); uerr != nil {
			s.Logger.ErrorContext(ctx, "could not mark email failed",
				slog.String("email_log_id", log.ID),
				slog.Any("error", uerr),
			)
		}
		return log, fmt.Errorf("smtp send: %w", err)
	}

	log.Status = entity.EmailStatusSent
	if err := s.Logs.UpdateStatus(ctx, log.ID, entity.EmailStatusSent); err != nil {
		return log, fmt.Errorf("mark email sent: %w", err)
	}

	s.Logger.InfoContext(ctx, "email sent",
		slog.String("email_log_id", log.ID),
		slog.String("provider_id", providerID),
	)
	return log, nil
}

func senderDomain(from string) string {
	addr := strings.TrimSuffix(strings.TrimSpace(from), ">")
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
