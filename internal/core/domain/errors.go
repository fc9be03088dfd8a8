package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotMounted         = errors.New("screen not mounted")
	ErrModalState         = errors.New("operation not allowed in current modal state")
	ErrUnsupported        = errors.New("operation not supported by this screen")
)

// BackendError is a non-2xx answer from the REST backend.
type BackendError struct {
	Status  int
	Message string
	// Fields holds per-field messages from an {errors:[{param,msg}]} body.
	Fields map[string]string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend status %d", e.Status)
}

// Is lets callers match 401 and 403 answers against the sentinels.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == 401
	case ErrForbidden:
		return e.Status == 403
	case ErrNotFound:
		return e.Status == 404
	}
	return false
}

// FormError is a local validation failure. No request was sent.
type FormError struct {
	Message string
	Fields  map[string]string
}

func (e *FormError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid form"
}

// Invalid builds a FormError carrying a single message.
func Invalid(msg string) *FormError {
	return &FormError{Message: msg}
}

// MessageOr returns the message the user should see for err: the local
// validation message or the server's own message when there is one,
// otherwise fallback.
func MessageOr(err error, fallback string) string {
	var fe *FormError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}
