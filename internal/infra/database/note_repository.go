package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

func (r *NoteRepository) ListByLeadID(ctx context.Context, leadID string) ([]*entity.Note, error) {
	query := `SELECT id, lead_id, content, type, created_at, updated_at FROM notes WHERE lead_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*entity.Note
	for rows.Next() {
		n := &entity.Note{}
		if err := rows.Scan(&n.ID, &n.LeadID, &n.Content, &n.Type, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
