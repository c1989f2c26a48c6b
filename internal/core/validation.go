package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidKey        = errors.New("invalid column key")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrLengthMismatch    = errors.New("column count mismatch")
	ErrNoSuchColumn      = errors.New("no such column")
	ErrNilColumn         = errors.New("column is nil")
	ErrNilTable          = errors.New("table is nil")
	ErrNilForeignKey     = errors.New("foreign key is nil")
	ErrColumnOwned       = errors.New("column belongs to another table")
	ErrTypeMismatch      = errors.New("column types differ")
	ErrInvalidSize       = errors.New("size out of range")
	ErrInvalidType       = errors.New("unsupported data type")
	ErrInvalidVersion    = errors.New("invalid server version")
	ErrInvalidOrder      = errors.New("order must be non-negative")
	ErrNotTemporal       = errors.New("column is not datetime or timestamp")
	ErrNotInteger        = errors.New("column is not an integer type")
	ErrReadOnlyTable     = errors.New("join tables are read-only")
)

// ValidationError represents a rejected mutation of the schema model.
// Err carries one of the sentinel errors above so callers can use errors.Is.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s %q field %q: %s", e.Entity, e.Name, e.Field, msg)
	}
	return fmt.Sprintf("validation error in %s %q: %s", e.Entity, e.Name, msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	keyRe        = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidIdentifier reports whether s (after trimming) can be used as a table,
// column, schema or constraint name.
func ValidIdentifier(s string) bool {
	return identifierRe.MatchString(strings.TrimSpace(s))
}

// ValidKey reports whether s (after trimming) can be used as a column key.
// Keys may contain hyphens but must not consist of hyphens only.
func ValidKey(s string) bool {
	s = strings.TrimSpace(s)
	return keyRe.MatchString(s) && strings.Trim(s, "-") != ""
}
