package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means the referenced user or content item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyCheckedIn marks a repeat check-in for a date; the service recovers it into a receipt.
	ErrAlreadyCheckedIn = errors.New("already checked in")
	// ErrInvalidDate covers malformed, future and out-of-window dates.
	ErrInvalidDate = errors.New("invalid date")
	// ErrConflict is a lost race on the (user, date) key that could not be resolved by re-reading.
	ErrConflict = errors.New("check-in conflict")
	// ErrInvalidContent rejects malformed content calendar writes.
	ErrInvalidContent = errors.New("invalid content")
	// ErrDuplicateDate means another item is already scheduled on that date.
	ErrDuplicateDate = errors.New("content already scheduled for date")
)

// isDuplicateKey recognises unique-index violations across the supported drivers.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || // mysql 1062
		strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "SQLSTATE 23505")
}
