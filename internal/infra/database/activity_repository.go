package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

// ActivityRepository only inserts and reads; activities are immutable.
type ActivityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *entity.Activity) error {
	details, err := marshalJSON(a.Details)
	if err != nil {
		return fmt.Errorf("encode activity details: %w", err)
	}

	query := `INSERT INTO activities (id, lead_id, user_id, action, details, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.DB.ExecContext(ctx, query, a.ID, a.LeadID, a.UserID, a.Action, details, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByLeadID(ctx context.Context, leadID string) ([]*entity.Activity, error) {
	query := `SELECT id, lead_id, user_id, action, details, created_at FROM activities WHERE lead_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []*entity.Activity
	for rows.Next() {
		var (
			a       entity.Activity
			userID  sql.NullString
			details []byte
		)
		if err := rows.Scan(&a.ID, &a.LeadID, &userID, &a.Action, &details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if userID.Valid {
			a.UserID = &userID.String
		}
		if a.Details, err = unmarshalJSON(details); err != nil {
			return nil, fmt.Errorf("decode activity details: %w", err)
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}
