package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy is returned when a save or delete is already in flight for an
	// editor session. The caller retries after the current operation settles.
	ErrBusy = errors.New("operation already in progress")

	// ErrEmptyComment is returned by Post when the trimmed comment text is empty.
	ErrEmptyComment = errors.New("comment text is empty")
)

// ValidationError reports a user-correctable input problem. It names the
// violated field and never reaches the remote store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SaveError wraps a remote-store failure during save. The underlying message
// is surfaced to the acting user; local edit state is retained for retry.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save failed: %v", e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// DeleteError wraps a remote-store failure during delete.
type DeleteError struct {
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete failed: %v", e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
