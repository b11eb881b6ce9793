package fault

import (
	"errors"
	"fmt"
)

// Validation errors are checked before any remote call; an operation that
// returns one of these never touched the store.
var (
	ErrUnauthenticated  = errors.New("no active identity")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrMissingReference = errors.New("order has no document reference")
	ErrNotPending       = errors.New("order is not pending")
)

var (
	ErrRemoteWrite = errors.New("remote write failed")
	ErrRemoteRead  = errors.New("remote read failed")
)

// RemoteWrite wraps a store error as ErrRemoteWrite so callers can match it
// with errors.Is while keeping the underlying cause in the chain.
func RemoteWrite(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRemoteWrite, op, err)
}

func RemoteRead(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRemoteRead, op, err)
}

// AuthKind classifies sign-in/sign-up failures the way the identity provider
// reports them.
type AuthKind string

const (
	AuthUserNotFound  AuthKind = "user_not_found"
	AuthWrongPassword AuthKind = "wrong_password"
	AuthEmailInUse    AuthKind = "email_in_use"
	AuthWeakPassword  AuthKind = "weak_password"
	AuthInvalidEmail  AuthKind = "invalid_email"
	AuthUnknown       AuthKind = "unknown"
)

type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth failed (%s)", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

func NewAuthError(kind AuthKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// AuthKindOf returns the classification of err, or AuthUnknown when err is
// not an AuthError.
func AuthKindOf(err error) AuthKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return AuthUnknown
}
