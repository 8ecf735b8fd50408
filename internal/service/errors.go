package service

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrUnknownEmail    = errors.New("no account with that email")
	ErrBadPassword     = errors.New("invalid password")
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError reports a form field that was missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// PersistenceError wraps any database failure. Its message is the raw
// driver text, which is what the user gets to see.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return errors.Cause(e.Err).Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: errors.WithStack(err)}
}
