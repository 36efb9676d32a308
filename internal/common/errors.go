// Package common defines the sentinel errors shared by the archive pipelines.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// User-correctable input problems (missing files or password).
	ErrValidation = errors.New("validation error")

	// Read, write and stream failures.
	ErrIO = errors.New("io error")

	// Archive serialization failures.
	ErrEncoding = errors.New("encoding error")

	// Store lookups.
	ErrNotFound = errors.New("not found")

	// Items skipped because the request deadline passed or the caller went away.
	ErrCanceled = errors.New("canceled")
)

// Reason maps an error onto the short kind reported for failed batch items.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "io"
	}
}
