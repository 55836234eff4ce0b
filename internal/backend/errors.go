package backend

import (
	"errors"
	"fmt"
)

// Conflict kinds reported by adapters. None of them stops a run.
var (
	ErrDatabaseExists   = errors.New("database already exists")
	ErrNothingToCommit  = errors.New("nothing to commit")
	ErrBranchExists     = errors.New("branch already exists")
	ErrBranchNotFound   = errors.New("branch not found")
	ErrDatabaseNotFound = errors.New("database not found")
)

// Outcome is how a caller should treat the result of a backend call.
type Outcome int

const (
	OK Outcome = iota
	RecoverableConflict
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case RecoverableConflict:
		return "recoverable-conflict"
	default:
		return "fatal"
	}
}

// Error is a failed backend operation. Kind is one of the sentinel errors
// above, or nil when the failure has no specific kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// NewError builds an *Error. kind may be nil.
func NewError(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": failed"
	}
}

// Unwrap exposes both the kind and the underlying driver error.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

var conflicts = []error{
	ErrDatabaseExists,
	ErrNothingToCommit,
	ErrBranchExists,
	ErrDatabaseNotFound,
}

// Classify maps an error returned by an Adapter to an Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OK
	}
	for _, c := range conflicts {
		if errors.Is(err, c) {
			return RecoverableConflict
		}
	}
	return Fatal
}
