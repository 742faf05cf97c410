package domain

import "fmt"

// Kind classifies a request failure. Transport layers map kinds to status
// codes; services never pick status codes themselves.
type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindInvalidInput
	KindForbidden
)

// Error is the failure type every service operation returns for caller
// faults. Two Errors match under errors.Is when their kinds match, so
// handlers and tests can compare against the sentinels below without
// caring about the message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrForbidden       = &Error{Kind: KindForbidden}
)

func Unauthenticatedf(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthenticated, Msg: fmt.Sprintf(format, args...)}
}

func InvalidInputf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}
