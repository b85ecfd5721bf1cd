package course

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure for the transport layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUpstream:
		return "upstream_error"
	default:
		return "unknown"
	}
}

// Caller-facing messages.
const (
	MsgReferenceRequired     = "either transcript or reference required"
	MsgInvalidReference      = "invalid reference format"
	MsgMalformedReference    = "malformed reference"
	MsgIdentifierNotFound    = "identifier not found"
	MsgNoContent             = "no textual content available"
	MsgGenerationUnparsable  = "generation response unparsable"
	MsgGenerationUnavailable = "generation service unavailable"
)

// Error is a pipeline failure. Msg is safe to show to callers; Err holds the
// upstream detail for operators.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func invalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Msg: msg}
}

func upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the caller-facing message of err, or fallback when err
// is not a pipeline error.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return fallback
}
