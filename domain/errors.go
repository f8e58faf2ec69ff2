package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrTransient    = errors.New("transient failure")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a caller-facing message and a kind that errors.Is matches against.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// Transient wraps a persistence failure. Business errors already carrying a kind pass through.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		return err
	}

	return &Error{Kind: ErrTransient, Message: err.Error(), Err: err}
}
