// Package errors provides error handling for webpify.
//
// This package re-exports github.com/cockroachdb/errors, providing
// stack traces, error wrapping, and typed sentinel errors for the
// conversion pipeline.
//
// Usage:
//
//	// Wrap with context
//	if err := conn.Commit(); err != nil {
//	    return errors.Wrap(err, "checkpoint commit")
//	}
//
//	// Check error class
//	if errors.IsConflictError(err) {
//	    // abort segment, skip object, continue batch
//	}
package errors

import (
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	WithHint     = crdb.WithHint
	WithDetail   = crdb.WithDetail
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Sentinel errors for the conversion pipeline.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrUnreadableImage indicates the stored bytes could not be decoded
	// as any supported image format
	ErrUnreadableImage = New("image bytes are not decodable")

	// ErrEncodeFailed indicates the image decoded but WebP encoding failed
	ErrEncodeFailed = New("webp encode failed")

	// ErrNoData indicates a field exists but carries no bytes
	ErrNoData = New("field has no data")

	// ErrConflict indicates a concurrent-modification conflict detected
	// by the content store
	ErrConflict = New("store conflict")

	// ErrNotFound indicates the requested object does not exist
	ErrNotFound = New("not found")
)

// IsConflictError checks if an error is or wraps ErrConflict.
// Also classifies raw sqlite lock errors, which surface from the driver
// with messages we cannot wrap at the source.
func IsConflictError(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, ErrConflict) {
		return true
	}
	// Fallback: raw driver messages for a lost lock race
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// IsUnreadableImageError checks if an error is or wraps ErrUnreadableImage
func IsUnreadableImageError(err error) bool {
	return err != nil && Is(err, ErrUnreadableImage)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}
