package entity

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateBooking  = errors.New("booking with this cal_booking_id already exists")
	ErrDuplicateEmailLog = errors.New("email log with this resend_id already exists")
)
