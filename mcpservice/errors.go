package mcpservice

import "fmt"

// ErrorKind classifies a failure. Envelope builders choose the caller-visible
// shape from the kind alone.
type ErrorKind string

const (
	KindConfiguration   ErrorKind = "ConfigurationError"
	KindUnknownMethod   ErrorKind = "UnknownMethod"
	KindUnknownTool     ErrorKind = "UnknownTool"
	KindUnknownResource ErrorKind = "UnknownResource"
	KindDuplicateName   ErrorKind = "DuplicateNameError"
	KindValidation      ErrorKind = "ValidationError"
	KindUpstream        ErrorKind = "UpstreamError"
	// KindInternal marks a handler that panicked or returned an unusable
	// payload.
	KindInternal ErrorKind = "InternalError"
)

// Error is the failure half of a Result.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so errors.Is(err, ErrUnknownTool)
// holds for every unknown-tool failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, format string, a ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrConfiguration   = &Error{Kind: KindConfiguration}
	ErrUnknownMethod   = &Error{Kind: KindUnknownMethod}
	ErrUnknownTool     = &Error{Kind: KindUnknownTool}
	ErrUnknownResource = &Error{Kind: KindUnknownResource}
	ErrDuplicateName   = &Error{Kind: KindDuplicateName}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUpstream        = &Error{Kind: KindUpstream}
	ErrInternal        = &Error{Kind: KindInternal}
)
