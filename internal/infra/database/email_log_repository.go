package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type EmailLogRepository struct {
	DB *sql.DB
}

func NewEmailLogRepository(db *sql.DB) *EmailLogRepository {
	return &EmailLogRepository{DB: db}
}

func (r *EmailLogRepository) FindByResendID(ctx context.Context, resendID string) (*entity.EmailLog, error) {
	query := `
		SELECT id, lead_id, resend_id, to_email, subject, status, opened_at, clicked_at, created_at, updated_at
		FROM email_logs
		WHERE resend_id = $1
	`

	var (
		l         entity.EmailLog
		leadID    sql.NullString
		rid       sql.NullString
		openedAt  sql.NullTime
		clickedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, resendID).Scan(
		&l.ID,
		&leadID,
		&rid,
		&l.ToEmail,
		&l.Subject,
		&l.Status,
		&openedAt,
		&clickedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find email log %s: %w", resendID, err)
	}

	if leadID.Valid {
		l.LeadID = &leadID.String
	}
	if rid.Valid {
		l.ResendID = &rid.String
	}
	if openedAt.Valid {
		l.OpenedAt = &openedAt.Time
	}
	if clickedAt.Valid {
		l.ClickedAt = &clickedAt.Time
	}
	return &l, nil
}

func (r *EmailLogRepository) Create(ctx context.Context, l *entity.EmailLog) error {
	query := `
		INSERT INTO email_logs (id, lead_id, resend_id, to_email, subject, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query,
		l.ID,
		l.LeadID,
		l.ResendID,
		l.ToEmail,
		l.Subject,
		string(l.Status),
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return entity.ErrDuplicateEmailLog
		}
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

func (r *EmailLogRepository) UpdateStatus(ctx context.Context, id string, status entity.EmailStatus) error {
	query := `UPDATE email_logs SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update email log status: %w", err)
	}
	return requireRow(res)
}

// ApplyDelivery overwrites status and fills opened_at/clicked_at only when
// they are still empty, in one statement.
func (r *EmailLogRepository) ApplyDelivery(ctx context.Context, id string, u entity.DeliveryUpdate) error {
	query := `
		UPDATE email_logs
		SET status = $2,
		    opened_at = COALESCE(opened_at, $3),
		    clicked_at = COALESCE(clicked_at, $4),
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, string(u.Status), u.OpenedAt, u.ClickedAt)
	if err != nil {
		return fmt.Errorf("apply email delivery: %w", err)
	}
	return requireRow(res)
}
