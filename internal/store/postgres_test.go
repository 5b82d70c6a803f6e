package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain error")))
	assert.False(t, isUniqueViolation(nil))
}

func TestEqualAddress(t *testing.T) {
	assert.True(t, equalAddress(
		"0xAbCdEf0123456789abcdef0123456789ABCDEF01",
		"0xabcdef0123456789abcdef0123456789abcdef01",
	))
	assert.False(t, equalAddress(
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
	))
}

func TestSnapshotFromRow(t *testing.T) {
	snapshot := snapshotFromRow("bilibili", sql.NullString{}, sql.NullTime{})
	assert.Equal(t, "bilibili", snapshot.Platform)
	assert.Equal(t, "Unknown", snapshot.VIPStatus)
	assert.Equal(t, "Unknown", snapshot.ExpiryDate)

	expiry := time.Date(2026, 12, 31, 8, 30, 0, 0, time.UTC)
	snapshot = snapshotFromRow("youku",
		sql.NullString{String: "VIP Active", Valid: true},
		sql.NullTime{Time: expiry, Valid: true},
	)
	assert.Equal(t, "VIP Active", snapshot.VIPStatus)
	assert.Equal(t, "2026-12-31", snapshot.ExpiryDate)
}
