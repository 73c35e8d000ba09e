package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMigration is reported through the Notifier. It never fails EstablishSession.
	ErrMigration = errors.New("session: could not move your anonymous data to this account")
	ErrNoSession = errors.New("session: no active session")
)

// AuthError means no session could be obtained or a sign-in request could not
// be issued.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
