package core

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so callers can tell fatal errors
// from tolerable reporting problems.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	// KindConfig covers missing or malformed configuration and source locations.
	KindConfig
	// KindConnection covers authentication and network failures reaching the warehouse.
	KindConnection
	// KindStatement covers a warehouse statement that failed to execute.
	KindStatement
	// KindReporting covers failures rendering verification output.
	KindReporting
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnection:
		return "connection"
	case KindStatement:
		return "statement"
	case KindReporting:
		return "reporting"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by starload stages.
// Phase, Index and Statement are only set for statement and reporting errors.
type Error struct {
	Kind      Kind
	Phase     Phase
	Index     int
	Statement string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatement, KindReporting:
		return fmt.Sprintf("%s error in %s phase, statement %d (%s): %v", e.Kind, e.Phase, e.Index, e.Statement, e.Err)
	default:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigError wraps err as a configuration error.
func ConfigError(err error) error {
	return &Error{Kind: KindConfig, Err: err}
}

// ConnectionError wraps err as a warehouse connection error.
func ConnectionError(err error) error {
	return &Error{Kind: KindConnection, Err: err}
}

// StatementError wraps err as a failure of the statement at index within phase.
func StatementError(phase Phase, index int, name string, err error) error {
	return &Error{Kind: KindStatement, Phase: phase, Index: index, Statement: name, Err: err}
}

// ReportingError wraps err as a failure to report the result of a statement.
func ReportingError(phase Phase, index int, name string, err error) error {
	return &Error{Kind: KindReporting, Phase: phase, Index: index, Statement: name, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err should abort a run.
// Only reporting errors are tolerated.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) != KindReporting
}
