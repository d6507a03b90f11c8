// Package memory is a process-local record store with the same uniqueness
// rules as the SQL schema. It backs tests and DATABASE_DRIVER=memory.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

// Store keeps bookings indexed by every uid they have carried, current or
// superseded, mirroring the booking_uids table.
type Store struct {
	mu sync.RWMutex

	leads      []entity.Lead
	bookings   map[string]entity.Booking
	byCalID    map[string]string
	emailLogs  map[string]entity.EmailLog
	byResendID map[string]string
	activities []entity.Activity
	notes      []entity.Note
}

func NewStore() *Store {
	return &Store{
		bookings:   make(map[string]entity.Booking),
		byCalID:    make(map[string]string),
		emailLogs:  make(map[string]entity.EmailLog),
		byResendID: make(map[string]string),
	}
}

func (s *Store) Leads() *LeadRepository         { return &LeadRepository{s} }
func (s *Store) Bookings() *BookingRepository   { return &BookingRepository{s} }
func (s *Store) EmailLogs() *EmailLogRepository { return &EmailLogRepository{s} }
func (s *Store) Activities() *ActivityRepository {
	return &ActivityRepository{s}
}
func (s *Store) Notes() *NoteRepository { return &NoteRepository{s} }

// AddLead and AddNote seed rows the dashboard would normally create.
func (s *Store) AddLead(l entity.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, l)
}

func (s *Store) AddNote(n entity.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
}

// AllBookings returns a snapshot ordered by creation time.
func (s *Store) AllBookings() []entity.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, cloneBooking(b))
	}
	slices.SortFunc(out, func(a, b entity.Booking) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (s *Store) AllActivities() []entity.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Activity, len(s.activities))
	for i, a := range s.activities {
		out[i] = cloneActivity(a)
	}
	return out
}

type LeadRepository struct{ s *Store }

func (r *LeadRepository) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.leads {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *LeadRepository) FindFirstByEmail(_ context.Context, email string) (*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.leads {
		if strings.EqualFold(l.Email, email) {
			return &l, nil
		}
	}
	return nil, entity.ErrNotFound
}

type BookingRepository struct{ s *Store }

func (r *BookingRepository) FindByCalBookingID(_ context.Context, calBookingID string) (*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byCalID[calBookingID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	b := cloneBooking(r.s.bookings[id])
	return &b, nil
}

func (r *BookingRepository) Create(_ context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.byCalID[b.CalBookingID]; taken {
		return entity.ErrDuplicateBooking
	}
	r.s.bookings[b.ID] = cloneBooking(*b)
	r.s.byCalID[b.CalBookingID] = b.ID
	return nil
}

func (r *BookingRepository) UpdateSchedule(_ context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.bookings[b.ID]
	if !ok {
		return entity.ErrNotFound
	}
	if owner, taken := r.s.byCalID[b.CalBookingID]; taken && owner != b.ID {
		return entity.ErrDuplicateBooking
	}
	r.s.byCalID[b.CalBookingID] = b.ID
	cur.CalBookingID = b.CalBookingID
	cur.StartTime = b.StartTime
	cur.EndTime = b.EndTime
	cur.DurationMinutes = b.DurationMinutes
	cur.MeetingURL = b.MeetingURL
	cur.UpdatedAt = time.Now().UTC()
	r.s.bookings[b.ID] = cur
	return nil
}

func (r *BookingRepository) TransitionStatus(_ context.Context, id string, from, to entity.BookingStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.bookings[id]
	if !ok || cur.Status != from {
		return false, nil
	}
	cur.Status = to
	cur.UpdatedAt = time.Now().UTC()
	r.s.bookings[id] = cur
	return true, nil
}

// SetStatus stands in for a dashboard user changing the status by hand.
func (r *BookingRepository) SetStatus(id string, status entity.BookingStatus) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if cur, ok := r.s.bookings[id]; ok {
		cur.Status = status
		r.s.bookings[id] = cur
	}
}

type EmailLogRepository struct{ s *Store }

func (r *EmailLogRepository) FindByResendID(_ context.Context, resendID string) (*entity.EmailLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byResendID[resendID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	l := cloneEmailLog(r.s.emailLogs[id])
	return &l, nil
}

func (r *EmailLogRepository) FindByID(_ context.Context, id string) (*entity.EmailLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.emailLogs[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	l = cloneEmailLog(l)
	return &l, nil
}

func (r *EmailLogRepository) Create(_ context.Context, l *entity.EmailLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ResendID != nil {
		if _, taken := r.s.byResendID[*l.ResendID]; taken {
			return entity.ErrDuplicateEmailLog
		}
		r.s.byResendID[*l.ResendID] = l.ID
	}
	r.s.emailLogs[l.ID] = cloneEmailLog(*l)
	return nil
}

func (r *EmailLogRepository) UpdateStatus(_ context.Context, id string, status entity.EmailStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.emailLogs[id]
	if !ok {
		return entity.ErrNotFound
	}
	cur.Status = status
	cur.UpdatedAt = time.Now().UTC()
	r.s.emailLogs[id] = cur
	return nil
}

func (r *EmailLogRepository) ApplyDelivery(_ context.Context, id string, u entity.DeliveryUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.emailLogs[id]
	if !ok {
		return entity.ErrNotFound
	}
	cur.Apply(u)
	r.s.emailLogs[id] = cur
	return nil
}

type ActivityRepository struct{ s *Store }

func (r *ActivityRepository) Create(_ context.Context, a *entity.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.activities = append(r.s.activities, cloneActivity(*a))
	return nil
}

func (r *ActivityRepository) ListByLeadID(_ context.Context, leadID string) ([]*entity.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Activity
	for _, a := range r.s.activities {
		if a.LeadID == leadID {
			a = cloneActivity(a)
			out = append(out, &a)
		}
	}
	return out, nil
}

type NoteRepository struct{ s *Store }

func (r *NoteRepository) ListByLeadID(_ context.Context, leadID string) ([]*entity.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Note
	for _, n := range r.s.notes {
		if n.LeadID == leadID {
			out = append(out, &n)
		}
	}
	return out, nil
}

// cloneBooking and the helpers below copy maps and pointer fields so callers
// never share memory with the store. Values nested inside Metadata and
// Details are still shared.
func cloneBooking(b entity.Booking) entity.Booking {
	b.LeadID = clonePtr(b.LeadID)
	b.Metadata = maps.Clone(b.Metadata)
	return b
}

func cloneEmailLog(l entity.EmailLog) entity.EmailLog {
	l.LeadID = clonePtr(l.LeadID)
	l.ResendID = clonePtr(l.ResendID)
	l.OpenedAt = clonePtr(l.OpenedAt)
	l.ClickedAt = clonePtr(l.ClickedAt)
	return l
}

func cloneActivity(a entity.Activity) entity.Activity {
	a.UserID = clonePtr(a.UserID)
	a.Details = maps.Clone(a.Details)
	return a
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
