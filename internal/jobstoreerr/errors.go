// Package jobstoreerr defines the store's semantic error kinds (spec.md §7).
// It adapts the teacher's AppError pattern: a structured error with a code,
// message and optional cause, usable with errors.Is/errors.As.
package jobstoreerr

import (
	"errors"
	"fmt"
)

// Code categorizes a store error.
type Code string

const (
	// CodeAlreadyExists: storing with replace=false when the id is taken.
	CodeAlreadyExists Code = "already_exists"
	// CodeJobPersistence: data corruption, or a reference to a missing job.
	CodeJobPersistence Code = "job_persistence"
	// CodeConfiguration: recovery failure wrapping any underlying error.
	CodeConfiguration Code = "configuration"
	// CodeConcurrency: a CAS loss on a document's version. Always handled
	// locally by the retry wrapper; callers never see it.
	CodeConcurrency Code = "concurrency"
	// CodeTransient: network/session failure from the document database.
	CodeTransient Code = "transient"
	// CodeUnreachable: a logic bug — a state the store should never reach.
	CodeUnreachable Code = "unreachable"
)

// StoreError is the concrete error type raised by every component.
type StoreError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StoreError) Unwrap() error { return e.Cause }

func newf(code Code, format string, args ...any) *StoreError {
	return &StoreError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExistsf builds an ObjectAlreadyExists error.
func AlreadyExistsf(format string, args ...any) *StoreError {
	return newf(CodeAlreadyExists, format, args...)
}

// JobPersistencef builds a JobPersistenceFailure error.
func JobPersistencef(format string, args ...any) *StoreError {
	return newf(CodeJobPersistence, format, args...)
}

// Concurrencyf builds a ConcurrencyConflict error.
func Concurrencyf(format string, args ...any) *StoreError {
	return newf(CodeConcurrency, format, args...)
}

// Transientf builds a TransientStoreError.
func Transientf(format string, args ...any) *StoreError {
	return newf(CodeTransient, format, args...)
}

// Unreachablef builds an UnreachableState error.
func Unreachablef(format string, args ...any) *StoreError {
	return newf(CodeUnreachable, format, args...)
}

// WrapConfiguration wraps err as a ConfigurationFailure, as Recovery does
// when the underlying cause can be anything from a session timeout to a
// codec error.
func WrapConfiguration(err error, message string) *StoreError {
	if err == nil {
		return nil
	}
	return &StoreError{Code: CodeConfiguration, Message: message, Cause: err}
}

// WrapTransient wraps err as a TransientStoreError. MapMongoError uses it
// for context, network and every other driver error it does not map to a
// more specific kind.
func WrapTransient(err error, message string) *StoreError {
	if err == nil {
		return nil
	}
	return &StoreError{Code: CodeTransient, Message: message, Cause: err}
}

func isCode(err error, code Code) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == code
}

// IsAlreadyExists reports whether err is an ObjectAlreadyExists error.
func IsAlreadyExists(err error) bool { return isCode(err, CodeAlreadyExists) }

// IsConcurrency reports whether err is a ConcurrencyConflict error.
func IsConcurrency(err error) bool { return isCode(err, CodeConcurrency) }

// IsJobPersistence reports whether err is a JobPersistenceFailure error.
func IsJobPersistence(err error) bool { return isCode(err, CodeJobPersistence) }

// IsConfiguration reports whether err is a ConfigurationFailure error.
func IsConfiguration(err error) bool { return isCode(err, CodeConfiguration) }
