package entity

import (
	"context"
	"time"
)

type NoteType string

const (
	NoteTypeNote    NoteType = "note"
	NoteTypeCall    NoteType = "call"
	NoteTypeEmail   NoteType = "email"
	NoteTypeMeeting NoteType = "meeting"
	NoteTypeTask    NoteType = "task"
)

// Note is written by people from the dashboard, never by webhooks.
type Note struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Content   string    `json:"content"`
	Type      NoteType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NoteRepository interface {
	ListByLeadID(ctx context.Context, leadID string) ([]*Note, error)
}
