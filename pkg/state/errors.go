package state

import "errors"

// ErrUnauthenticated means session resolution failed. It is terminal for the
// screen activation: the caller must route to sign-in and issue no further
// store calls.
var ErrUnauthenticated = errors.New("not authenticated")

// Op identifies which remote operation a Failure belongs to
type Op int

const (
	OpFetch Op = iota
	OpInsert
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpFetch:
		return "fetch"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Failure wraps a backend error with the operation that produced it. Error()
// returns the backend message untouched so notifications show the store's
// words verbatim.
type Failure struct {
	Op  Op
	Err error
}

func (f *Failure) Error() string {
	return f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}
