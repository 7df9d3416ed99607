package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedFile    = errors.New("unsupported file type")
	ErrNoActiveInput      = errors.New("no active input")
	ErrRequestInFlight    = errors.New("request already in flight")
	ErrRemoteRejected     = errors.New("rejected by backend")
	ErrNotFound           = errors.New("not found")
	ErrTemporary          = errors.New("temporary failure")
	ErrPreviewUnavailable = errors.New("preview unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// RemoteError carries the message the backend reported with success=false.
// The message is shown to the user verbatim.
type RemoteError struct {
	Operation string
	Message   string
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "backend rejected request"
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error { return ErrRemoteRejected }
