// Package apperr defines the request-level error taxonomy shared by services
// and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
)

// AuthenticationError indicates a missing or invalid session.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// AuthorizationError indicates a valid session without ownership or permission.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// ValidationError indicates malformed or rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError indicates a referenced entity is absent.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// PaymentError indicates the payment gateway declined or failed the charge.
type PaymentError struct {
	Message string
	Err     error
}

func (e *PaymentError) Error() string { return e.Message }

func (e *PaymentError) Unwrap() error { return e.Err }

// UpstreamError indicates a datastore or mail transport failure.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Authentication creates an AuthenticationError with a formatted message.
func Authentication(format string, args ...any) *AuthenticationError {
	return &AuthenticationError{Message: fmt.Sprintf(format, args...)}
}

// Authorization creates an AuthorizationError with a formatted message.
func Authorization(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// Validation creates a ValidationError with a formatted message.
func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a NotFoundError with a formatted message.
func NotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// Payment wraps a gateway failure.
func Payment(err error, format string, args ...any) *PaymentError {
	return &PaymentError{Message: fmt.Sprintf(format, args...), Err: err}
}

// Upstream wraps a collaborator failure. Errors that already belong to the
// taxonomy are returned unchanged.
func Upstream(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if Kind(err) != KindInternal {
		return err
	}
	return &UpstreamError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrorKind classifies an error for transport mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindNotFound
	KindPayment
	KindUpstream
)

// Kind returns the taxonomy class of err, or KindInternal when err is not
// one of the package's types.
func Kind(err error) ErrorKind {
	var (
		authn    *AuthenticationError
		authz    *AuthorizationError
		valid    *ValidationError
		notFound *NotFoundError
		pay      *PaymentError
		up       *UpstreamError
	)
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &authn):
		return KindAuthentication
	case errors.As(err, &authz):
		return KindAuthorization
	case errors.As(err, &valid):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &pay):
		return KindPayment
	case errors.As(err, &up):
		return KindUpstream
	default:
		return KindInternal
	}
}
