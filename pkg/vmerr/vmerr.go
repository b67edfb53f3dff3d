// Package vmerr defines the fatal error taxonomy shared by the field,
// memory, and vm packages. Every fallible operation in the core returns one
// of these kinds instead of a bare string, so a caller can switch on failure
// class without matching error text.
package vmerr

import "fmt"

// Kind identifies which rule in the step pipeline failed.
type Kind int

const (
	// Fetch
	EndOfInstructions Kind = iota
	InstructionEncodingError
	HighBitSet

	// Decode
	InvalidOp1Src
	InvalidResLogic
	InvalidPcUpdate
	InvalidApUpdate
	InvalidOpcode

	// Addressing
	OffsetUnderflow
	SegmentMismatch
	TypeMismatch

	// Memory
	SegmentOutOfBounds
	WriteOnce

	// Semantic
	UnconstrainedRes
	DiffAssertValues
	InvalidOp0ForCall
	InvalidDstForCall
	UnconstrainedJnzDst
	InvalidJumpTarget
	InvalidJumpRelTarget
	InvalidJnzOp1
	InvalidFpUpdate

	// Arithmetic
	DivisionByZero
)

var names = [...]string{
	"EndOfInstructions",
	"InstructionEncodingError",
	"HighBitSet",
	"InvalidOp1Src",
	"InvalidResLogic",
	"InvalidPcUpdate",
	"InvalidApUpdate",
	"InvalidOpcode",
	"OffsetUnderflow",
	"SegmentMismatch",
	"TypeMismatch",
	"SegmentOutOfBounds",
	"WriteOnce",
	"UnconstrainedRes",
	"DiffAssertValues",
	"InvalidOp0ForCall",
	"InvalidDstForCall",
	"UnconstrainedJnzDst",
	"InvalidJumpTarget",
	"InvalidJumpRelTarget",
	"InvalidJnzOp1",
	"InvalidFpUpdate",
	"DivisionByZero",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(names) {
		return "UnknownError"
	}
	return names[k]
}

// Error is the single error type returned from anywhere in the core.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, vmerr.New(vmerr.WriteOnce, "")) without matching text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
