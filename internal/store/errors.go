package store

import (
	"errors"
	"strings"
)

// Sentinel errors classifying store and service failures. Callers match
// with errors.Is; the HTTP layer maps them to response codes.
var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input was malformed or missing a
	// required field.
	ErrValidation = errors.New("invalid input")

	// ErrConflict means a unique field collided with an existing
	// record, e.g. a duplicate tag name.
	ErrConflict = errors.New("conflict")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite exposes no typed error for this, so the
// message is the only signal.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
