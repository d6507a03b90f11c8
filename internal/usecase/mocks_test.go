package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

var discard = slog.New(slog.DiscardHandler)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) FindByCalBookingID(ctx context.Context, calBookingID string) (*entity.Booking, error) {
	args := m.Called(ctx, calBookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Booking), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdateSchedule(ctx context.Context, b *entity.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) TransitionStatus(ctx context.Context, id string, from, to entity.BookingStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindFirstByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Create(ctx context.Context, a *entity.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockActivityRepository) ListByLeadID(ctx context.Context, leadID string) ([]*entity.Activity, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Activity), args.Error(1)
}

type MockEmailLogRepository struct {
	mock.Mock
}

func (m *MockEmailLogRepository) FindByResendID(ctx context.Context, resendID string) (*entity.EmailLog, error) {
	args := m.Called(ctx, resendID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EmailLog), args.Error(1)
}

func (m *MockEmailLogRepository) Create(ctx context.Context, l *entity.EmailLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockEmailLogRepository) UpdateStatus(ctx context.Context, id string, status entity.EmailStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockEmailLogRepository) ApplyDelivery(ctx context.Context, id string, u entity.DeliveryUpdate) error {
	args := m.Called(ctx, id, u)
	return args.Error(0)
}

// recordingPublisher keeps every published event; err fails every publish.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReconciliationEvent
	err    error
}

func (p *recordingPublisher) PublishReconciliation(_ context.Context, ev queue.ReconciliationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}
