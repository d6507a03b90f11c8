package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

func (r *BookingRepository) FindByCalBookingID(ctx context.Context, calBookingID string) (*entity.Booking, error) {
	query := `
		SELECT b.id, b.lead_id, b.cal_booking_id, b.title, b.start_time, b.end_time,
		       b.duration_minutes, b.type, b.status, b.meeting_url, b.attendee_name,
		       b.attendee_email, b.metadata, b.created_at, b.updated_at
		FROM booking_uids u
		JOIN bookings b ON b.id = u.booking_id
		WHERE u.cal_booking_id = $1
	`

	var (
		b        entity.Booking
		leadID   sql.NullString
		metadata []byte
	)
	err := r.DB.QueryRowContext(ctx, query, calBookingID).Scan(
		&b.ID,
		&leadID,
		&b.CalBookingID,
		&b.Title,
		&b.StartTime,
		&b.EndTime,
		&b.DurationMinutes,
		&b.Type,
		&b.Status,
		&b.MeetingURL,
		&b.AttendeeName,
		&b.AttendeeEmail,
		&metadata,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", calBookingID, err)
	}

	if leadID.Valid {
		b.LeadID = &leadID.String
	}
	if b.Metadata, err = unmarshalJSON(metadata); err != nil {
		return nil, fmt.Errorf("decode booking metadata: %w", err)
	}
	return &b, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	metadata, err := marshalJSON(b.Metadata)
	if err != nil {
		return fmt.Errorf("encode booking metadata: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking insert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bookings (
			id, lead_id, cal_booking_id, title, start_time, end_time, duration_minutes,
			type, status, meeting_url, attendee_name, attendee_email, metadata,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.ExecContext(ctx, query,
		b.ID,
		b.LeadID,
		b.CalBookingID,
		b.Title,
		b.StartTime,
		b.EndTime,
		b.DurationMinutes,
		string(b.Type),
		string(b.Status),
		b.MeetingURL,
		b.AttendeeName,
		b.AttendeeEmail,
		metadata,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return entity.ErrDuplicateBooking
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	// a uid another booking was rekeyed away from is free in bookings but
	// still claimed here
	if err := claimUID(ctx, tx, b.CalBookingID, b.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking insert: %w", err)
	}
	return nil
}

func (r *BookingRepository) UpdateSchedule(ctx context.Context, b *entity.Booking) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking update: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE bookings
		SET cal_booking_id = $2,
		    start_time = $3,
		    end_time = $4,
		    duration_minutes = $5,
		    meeting_url = $6,
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := tx.ExecContext(ctx, query,
		b.ID,
		b.CalBookingID,
		b.StartTime,
		b.EndTime,
		b.DurationMinutes,
		b.MeetingURL,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return entity.ErrDuplicateBooking
		}
		return fmt.Errorf("update booking schedule: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := claimUID(ctx, tx, b.CalBookingID, b.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking update: %w", err)
	}
	return nil
}

func (r *BookingRepository) TransitionStatus(ctx context.Context, id string, from, to entity.BookingStatus) (bool, error) {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	res, err := r.DB.ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// claimUID records uid as one of bookingID's uids. Claiming a uid the
// booking already holds is a no-op; one held by any other booking is
// ErrDuplicateBooking.
func claimUID(ctx context.Context, tx *sql.Tx, uid, bookingID string) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO booking_uids (cal_booking_id, booking_id) VALUES ($1, $2)
		ON CONFLICT (cal_booking_id) DO NOTHING
	`, uid, bookingID)
	if err != nil {
		return fmt.Errorf("claim booking uid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT booking_id FROM booking_uids WHERE cal_booking_id = $1`, uid).Scan(&owner)
	if err != nil {
		return fmt.Errorf("read booking uid owner: %w", err)
	}
	if owner != bookingID {
		return entity.ErrDuplicateBooking
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
