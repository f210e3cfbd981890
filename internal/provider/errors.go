package provider

import (
	"errors"
	"fmt"
)

// ErrorKind separates failures the client handles itself (rate limits,
// exhaustion) from failures the caller must deal with.
type ErrorKind string

const (
	KindRateLimit   ErrorKind = "rate_limit"
	KindTransient   ErrorKind = "transient"
	KindValidation  ErrorKind = "validation"
	KindPersistence ErrorKind = "persistence"
	KindExhaustion  ErrorKind = "exhaustion"
	KindFatal       ErrorKind = "fatal"
)

type Error struct {
	Kind         ErrorKind
	CredentialID string
	StatusCode   int
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s error (credential=%s): %v", e.Kind, e.CredentialID, e.Err)
	}
	return fmt.Sprintf("provider %s error (credential=%s, status=%d)", e.Kind, e.CredentialID, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, credentialID string, statusCode int, err error) *Error {
	return &Error{Kind: kind, CredentialID: credentialID, StatusCode: statusCode, Err: err}
}

// KindOf returns the ErrorKind of err, or KindFatal when err is not a
// provider error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindFatal
}

func IsRateLimit(err error) bool {
	return KindOf(err) == KindRateLimit
}

func IsExhaustion(err error) bool {
	return KindOf(err) == KindExhaustion
}
