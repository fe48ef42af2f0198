package errors

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

func NewNotFoundError(entity string) error {
	return &NotFoundError{Entity: entity}
}

func IsNotFoundError(err error) bool {
	var notFoundError *NotFoundError
	return errors.As(err, &notFoundError)
}

type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func NewConflictError(msg string) error {
	return &ConflictError{Msg: msg}
}

func IsConflictError(err error) bool {
	var conflictError *ConflictError
	return errors.As(err, &conflictError)
}

// UpstreamError wraps a failure from the banking aggregator or a market-data
// source. Sync treats it as retryable: the page is abandoned and the cursor
// stays where it was.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(source string, err error) error {
	return &UpstreamError{Source: source, Err: err}
}

func IsUpstreamError(err error) bool {
	var upstreamError *UpstreamError
	return errors.As(err, &upstreamError)
}

type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

func NewPreconditionError(msg string) error {
	return &PreconditionError{Msg: msg}
}

func IsPreconditionError(err error) bool {
	var preconditionError *PreconditionError
	return errors.As(err, &preconditionError)
}
