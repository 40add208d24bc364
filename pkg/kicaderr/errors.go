// Package kicaderr classifies the failures reported by the board bridge.
package kicaderr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure. It is carried on the wire as the
// "kind" field of a failure result.
type Kind string

const (
	// KindNotFound means a referenced file, board, component, net or pad does not exist.
	KindNotFound Kind = "not_found"
	// KindInvalidInput means a parameter had the wrong shape.
	KindInvalidInput Kind = "invalid_input"
	// KindNotLoaded means a board operation ran before a successful load.
	KindNotLoaded Kind = "not_loaded"
	// KindLoadError means the board file exists but could not be parsed.
	KindLoadError Kind = "load_error"
	// KindSaveError means writing the board file failed.
	KindSaveError Kind = "save_error"
	KindNetNotFound       Kind = "net_not_found"
	KindInvalidLayer      Kind = "invalid_layer"
	KindInvalidPosition   Kind = "invalid_position"
	KindComponentNotFound Kind = "component_not_found"
	// KindTimeout means the worker process exceeded its deadline and was killed.
	KindTimeout Kind = "timeout"
	// KindSubprocessFailed means the worker process exited nonzero or could not start.
	KindSubprocessFailed Kind = "subprocess_failed"
	// KindParseFailed means the worker printed something that is not a JSON result.
	KindParseFailed Kind = "parse_failed"
	// KindParseError means S-expression text given to a validator is malformed.
	KindParseError Kind = "parse_error"
	// KindStructuralMismatch means well-formed text lacks required keys, properties, pins or pads.
	KindStructuralMismatch Kind = "structural_mismatch"
	KindAlreadyExists      Kind = "already_exists"
	KindInternal           Kind = "internal"
)

// Error wraps an underlying error with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

// Error returns the underlying message; the kind travels separately.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// Unwrap lets errors.Is/As reach the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel comparisons like
// errors.Is(err, kicaderr.NotLoaded) work regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf formats a message and tags it with kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost tagged error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Sentinels for errors.Is checks.
var (
	NotLoaded         = &Error{Kind: KindNotLoaded}
	NotFound          = &Error{Kind: KindNotFound}
	InvalidInput      = &Error{Kind: KindInvalidInput}
	NetNotFound       = &Error{Kind: KindNetNotFound}
	InvalidLayer      = &Error{Kind: KindInvalidLayer}
	InvalidPosition   = &Error{Kind: KindInvalidPosition}
	ComponentNotFound = &Error{Kind: KindComponentNotFound}
)
