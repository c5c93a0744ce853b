package chat

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrQuotaExceeded  = errors.New("quota exceeded")
	ErrUnavailable    = errors.New("service unavailable")
)

// Error is a turn failure whose Message can be shown to the caller as is.
// Kind is one of the sentinel errors above.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func invalid(msg string) error {
	return &Error{Kind: ErrInvalidRequest, Message: msg}
}
