package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueViolation(t *testing.T) {
	t.Run("pgx error", func(t *testing.T) {
		err := fmt.Errorf("insert booking: %w", &pgconn.PgError{Code: "23505", ConstraintName: "bookings_cal_booking_id_key"})
		constraint, ok := uniqueViolation(err)
		assert.True(t, ok)
		assert.Equal(t, "bookings_cal_booking_id_key", constraint)
	})

	t.Run("pq error", func(t *testing.T) {
		err := &pq.Error{Code: "23505", Constraint: "email_logs_resend_id_key"}
		constraint, ok := uniqueViolation(err)
		assert.True(t, ok)
		assert.Equal(t, "email_logs_resend_id_key", constraint)
	})

	t.Run("other sqlstate", func(t *testing.T) {
		_, ok := uniqueViolation(&pgconn.PgError{Code: "23503"})
		assert.False(t, ok)
		_, ok = uniqueViolation(&pq.Error{Code: "40001"})
		assert.False(t, ok)
	})

	t.Run("plain error", func(t *testing.T) {
		_, ok := uniqueViolation(errors.New("duplicate key"))
		assert.False(t, ok)
		_, ok = uniqueViolation(nil)
		assert.False(t, ok)
	})
}

func TestJSONColumns(t *testing.T) {
	v, err := marshalJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = marshalJSON(map[string]any{"booking_id": "b1"})
	require.NoError(t, err)
	assert.Equal(t, `{"booking_id":"b1"}`, v)

	m, err := unmarshalJSON([]byte(`{"reason":"conflict","n":2}`))
	require.NoError(t, err)
	assert.Equal(t, "conflict", m["reason"])
	assert.Equal(t, float64(2), m["n"])

	m, err = unmarshalJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = unmarshalJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestSchemaDeclaresUniqueExternalIDs(t *testing.T) {
	assert.Contains(t, schemaSQL, "bookings_cal_booking_id_key")
	assert.Contains(t, schemaSQL, "email_logs_resend_id_key")
	assert.NotContains(t, strings.ToUpper(schemaSQL), "DROP TABLE")
}

func TestNewDBConnectionRejectsUnknownDriver(t *testing.T) {
	_, err := NewDBConnection("sqlite", "file::memory:")
	assert.Error(t, err)
}

func TestSchemaKeepsSupersededBookingUIDs(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS booking_uids")
	assert.Contains(t, schemaSQL, "CONSTRAINT booking_uids_pkey PRIMARY KEY (cal_booking_id)")
	assert.Contains(t, schemaSQL, "SELECT cal_booking_id, id FROM bookings")
	assert.Less(t, strings.Index(schemaSQL, "CREATE TABLE IF NOT EXISTS bookings"),
		strings.Index(schemaSQL, "CREATE TABLE IF NOT EXISTS booking_uids"), "referenced table comes first")
}
