package entity

import (
	"context"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusProposal  LeadStatus = "proposal"
	LeadStatusWon       LeadStatus = "won"
	LeadStatusLost      LeadStatus = "lost"
)

type Lead struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Company   string     `json:"company,omitempty"`
	Status    LeadStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LeadRepositoryInterface is read-only: the reconciliation pipeline never
// creates, mutates or deletes leads.
type LeadRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Lead, error)

	// FindFirstByEmail returns the first lead whose email matches,
	// case-insensitively. Email is not unique across leads.
	FindFirstByEmail(ctx context.Context, email string) (*Lead, error)
}
