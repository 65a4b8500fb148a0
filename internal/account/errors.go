package account

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned when a connection lifecycle operation
	// is invoked on an account with no backend adapter bound.
	ErrNotImplemented = errors.New("operation requires a backend adapter")

	// ErrAccountClosed is returned when a lifecycle operation is invoked
	// on a disconnected account. Disconnected is terminal; reconnecting
	// constructs a new account.
	ErrAccountClosed = errors.New("account is disconnected")

	// ErrResultDiscarded is returned when an adapter result arrives after
	// the account was reloaded or torn down; the result was dropped
	// instead of being applied to the changed container.
	ErrResultDiscarded = errors.New("account changed during fetch, result discarded")
)

// BackendError wraps a failed adapter operation. The account has already
// transitioned to the error status by the time this is returned.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
