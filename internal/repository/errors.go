package repository

import (
	"errors"
	"strings"
)

// Errors returned by the repository layer. Services translate these to
// their own sentinels where callers need domain-specific matching.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidInput   = errors.New("invalid input")

	// ErrStaleCursor means a conditional cursor advance matched no row:
	// another pass advanced the cursor after this one read it.
	ErrStaleCursor = errors.New("sync cursor changed since read")
)

// duplicateKeyMarkers covers postgres (message and SQLSTATE) and the
// sqlite driver used by tests.
var duplicateKeyMarkers = []string{"duplicate key", "UNIQUE constraint", "23505"}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
