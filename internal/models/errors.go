package models

import (
	"errors"
)

var (
	ErrValidation = errors.New("validation error")

	// ErrConfiguration covers a missing label set or a missing credential.
	// It is always detected before any call to the model.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransport is returned when the call to the model fails.
	ErrTransport = errors.New("transport error")
	// ErrContract is returned when the model answers with an empty or malformed body.
	ErrContract = errors.New("contract violation")
)

// ClassificationError tags an underlying failure with one of the kinds above.
// Error() reports the underlying message so it can be shown to the user verbatim,
// while errors.Is matches both the kind and the wrapped error.
type ClassificationError struct {
	Kind error
	Err  error
}

func (e *ClassificationError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

func (e *ClassificationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewConfigurationError builds an ErrConfiguration with a user-facing message.
func NewConfigurationError(msg string) error {
	return &ClassificationError{Kind: ErrConfiguration, Err: errors.New(msg)}
}

// NewTransportError wraps a failed model call.
func NewTransportError(err error) error {
	if err == nil {
		err = errors.New("failed to classify text")
	}
	return &ClassificationError{Kind: ErrTransport, Err: err}
}

// NewContractError reports a response that is empty or does not match the declared schema.
func NewContractError(detail string, err error) error {
	msg := "contract violation: " + detail
	if err != nil {
		msg += ": " + err.Error()
	}
	return &ClassificationError{Kind: ErrContract, Err: errors.New(msg)}
}
