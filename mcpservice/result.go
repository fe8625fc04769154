package mcpservice

import (
	"errors"
	"fmt"
)

// Result is what handlers and the dispatcher produce: either an ok payload or
// an *Error. It never reaches a caller directly; the envelope builders render
// it for the surface that asked.
//
// Tool and resource handlers return text payloads. The dispatcher itself
// returns catalogue slices for the list methods.
type Result struct {
	payload any
	err     *Error
}

// OK returns a successful Result carrying payload.
func OK(payload any) Result { return Result{payload: payload} }

// Text returns a successful Result carrying formatted text.
func Text(format string, a ...any) Result {
	if len(a) == 0 {
		return Result{payload: format}
	}
	return Result{payload: fmt.Sprintf(format, a...)}
}

// Fail returns a failed Result of the given kind.
func Fail(kind ErrorKind, format string, a ...any) Result {
	return Result{err: Errorf(kind, format, a...)}
}

// FromError converts err into a failed Result. An *Error anywhere in the
// chain keeps its kind; anything else is reported as an upstream failure.
func FromError(err error) Result {
	if err == nil {
		return Result{err: Errorf(KindInternal, "nil error")}
	}
	var e *Error
	if errors.As(err, &e) {
		return Result{err: e}
	}
	return Result{err: &Error{Kind: KindUpstream, Message: err.Error()}}
}

// IsError reports whether r is a failure.
func (r Result) IsError() bool { return r.err != nil }

// Err returns the failure, or nil for ok results.
func (r Result) Err() *Error { return r.err }

// Payload returns the ok payload, or nil for failures.
func (r Result) Payload() any { return r.payload }

// TextPayload returns the payload rendered as text.
func (r Result) TextPayload() string {
	switch p := r.payload.(type) {
	case nil:
		return ""
	case string:
		return p
	case fmt.Stringer:
		return p.String()
	default:
		return fmt.Sprint(p)
	}
}

// Message returns the failure message, or "" for ok results.
func (r Result) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Message
}

// Prefix returns a copy of a failed result whose message is prefixed. Ok
// results are returned unchanged.
func (r Result) Prefix(prefix string) Result {
	if r.err == nil {
		return r
	}
	return Result{err: &Error{Kind: r.err.Kind, Message: prefix + r.err.Message}}
}
