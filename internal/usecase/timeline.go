package usecase

import (
	"cmp"
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type TimelineItemKind string

const (
	TimelineNote     TimelineItemKind = "note"
	TimelineActivity TimelineItemKind = "activity"
)

type TimelineItem struct {
	Kind      TimelineItemKind `json:"kind"`
	ID        string           `json:"id"`
	Subtype   string           `json:"subtype"`
	Content   *string          `json:"content,omitempty"`
	Details   map[string]any   `json:"details,omitempty"`
	UserID    *string          `json:"user_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// MergeTimeline yields notes and activities newest first. Nothing is
// computed until the sequence is ranged over, and every range starts from
// scratch, so the result can be iterated any number of times. The input
// slices are not modified. Equal timestamps come out in no promised order.
func MergeTimeline(notes []*entity.Note, activities []*entity.Activity) iter.Seq[TimelineItem] {
	return func(yield func(TimelineItem) bool) {
		ns := newestFirst(notes, func(n *entity.Note) time.Time { return n.CreatedAt })
		as := newestFirst(activities, func(a *entity.Activity) time.Time { return a.CreatedAt })

		i, j := 0, 0
		for i < len(ns) || j < len(as) {
			var item TimelineItem
			if j >= len(as) || (i < len(ns) && !ns[i].CreatedAt.Before(as[j].CreatedAt)) {
				item = noteItem(ns[i])
				i++
			} else {
				item = activityItem(as[j])
				j++
			}
			if !yield(item) {
				return
			}
		}
	}
}

func newestFirst[T any](in []*T, at func(*T) time.Time) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b *T) int {
		return cmp.Compare(at(b).UnixNano(), at(a).UnixNano())
	})
	return out
}

func noteItem(n *entity.Note) TimelineItem {
	content := n.Content
	return TimelineItem{
		Kind:      TimelineNote,
		ID:        n.ID,
		Subtype:   string(n.Type),
		Content:   &content,
		CreatedAt: n.CreatedAt,
	}
}

func activityItem(a *entity.Activity) TimelineItem {
	return TimelineItem{
		Kind:      TimelineActivity,
		ID:        a.ID,
		Subtype:   a.Action,
		Details:   a.Details,
		UserID:    a.UserID,
		CreatedAt: a.CreatedAt,
	}
}

type GetTimelineUseCase struct {
	Leads      entity.LeadRepositoryInterface
	Notes      entity.NoteRepository
	Activities entity.ActivityRepository
}

func NewGetTimelineUseCase(leads entity.LeadRepositoryInterface, notes entity.NoteRepository, activities entity.ActivityRepository) *GetTimelineUseCase {
	return &GetTimelineUseCase{Leads: leads, Notes: notes, Activities: activities}
}

func (uc *GetTimelineUseCase) Execute(ctx context.Context, leadID string) ([]TimelineItem, error) {
	if _, err := uc.Leads.FindByID(ctx, leadID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, &DomainError{Code: "LEAD_NOT_FOUND", Message: "lead not found"}
		}
		return nil, storeError("load lead", err)
	}

	notes, err := uc.Notes.ListByLeadID(ctx, leadID)
	if err != nil {
		return nil, storeError("load notes", err)
	}
	activities, err := uc.Activities.ListByLeadID(ctx, leadID)
	if err != nil {
		return nil, storeError("load activities", err)
	}

	items := slices.Collect(MergeTimeline(notes, activities))
	if items == nil {
		items = []TimelineItem{}
	}
	return items, nil
}
