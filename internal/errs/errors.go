// Package errs provides the unified error type used across all of DatEd.
//
// Every subsystem (database drivers, schema inspector, editor, filestore,
// server) wraps its native errors into *errs.Error before returning them to
// callers. Callers use the Is* predicates to handle errors without importing
// driver-specific packages.
//
// Usage:
//
//	// In the editor, reject a bad update:
//	return errs.New(errs.ErrKindInvalidColumn, fmt.Sprintf("invalid column name: %s", name))
//
//	// In a handler, pick the status code:
//	if errs.IsValidation(err) {
//	    // 400
//	} else if errs.IsNotFound(err) {
//	    // 404
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// Backends (SQLite, Postgres, MySQL, MinIO) map their native errors to one
// of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindMissingID                // update request carried no primary key value
	ErrKindNoFields                 // update request carried no fields
	ErrKindUnknownTable             // table is not in the database catalog
	ErrKindInvalidColumn            // field name is not a column of the table
	ErrKindNotFound                 // no row matched the primary key
	ErrKindDatabase                 // SQL or storage operation failure
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindMissingID:
		return "missing_id"
	case ErrKindNoFields:
		return "no_fields"
	case ErrKindUnknownTable:
		return "unknown_table"
	case ErrKindInvalidColumn:
		return "invalid_column"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindDatabase:
		return "database"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all DatEd subsystems.
// Subsystems produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsValidation reports whether err was caused by a rejected update request
// (missing id, no fields, unknown table, or invalid column). These failures
// happen before any statement executes.
func IsValidation(err error) bool {
	switch kindOf(err) {
	case ErrKindMissingID, ErrKindNoFields, ErrKindUnknownTable, ErrKindInvalidColumn:
		return true
	}
	return false
}

// IsNotFound reports whether err means the primary key matched no row
// (or a requested object does not exist).
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsUnknownTable reports whether err was caused by a table name that is not
// in the catalog.
func IsUnknownTable(err error) bool {
	return kindOf(err) == ErrKindUnknownTable
}

// IsInvalidColumn reports whether err was caused by a field name that is not
// a column of the target table.
func IsInvalidColumn(err error) bool {
	return kindOf(err) == ErrKindInvalidColumn
}

// IsDatabase reports whether err is a backend operation failure
// (SQL execution error, storage I/O error).
func IsDatabase(err error) bool {
	return kindOf(err) == ErrKindDatabase
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// Message returns the client-safe message of err when err is a validation
// or not-found error, and the empty string otherwise. Database and unknown
// errors have no client-safe message; their text stays in the server log.
func Message(err error) string {
	if IsValidation(err) || IsNotFound(err) {
		var e *Error
		if errors.As(err, &e) {
			return e.Message
		}
	}
	return ""
}

// kindOf extracts the ErrKind from any error in the chain.
func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
