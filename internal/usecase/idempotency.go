package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

// BookingGuard answers "have we already stored this external booking?".
// The lookup only saves a doomed insert; the store's uniqueness over every
// uid a booking has carried is what actually prevents duplicates when two
// deliveries race past it.
type BookingGuard struct {
	Bookings entity.BookingRepository
}

func NewBookingGuard(bookings entity.BookingRepository) *BookingGuard {
	return &BookingGuard{Bookings: bookings}
}

// Lookup returns nil, nil when no booking holds calBookingID, either as its
// current uid or as one it was rekeyed away from.
func (g *BookingGuard) Lookup(ctx context.Context, calBookingID string) (*entity.Booking, error) {
	if calBookingID == "" {
		return nil, nil
	}
	b, err := g.Bookings.FindByCalBookingID(ctx, calBookingID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// IsDuplicate folds the storage-level uniqueness violation into the same
// answer the lookup would have given.
func (g *BookingGuard) IsDuplicate(err error) bool {
	return errors.Is(err, entity.ErrDuplicateBooking)
}
