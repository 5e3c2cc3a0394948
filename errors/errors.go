// Package errors provides standardized error handling for the supervision
// framework. It includes error classification, standard error variables, the
// supervision error taxonomy, and helper functions for consistent error
// wrapping across the system.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Description and spec errors
	ErrInvalidSpec    = errors.New("invalid component spec")
	ErrDuplicateChild = errors.New("duplicate child name")
	ErrUnresolvedLink = errors.New("unresolved environment link")

	// Component lifecycle errors
	ErrComponentShutdown = errors.New("component is shutdown")
	ErrMissingChild      = errors.New("child component missing")
	ErrChildShutdown     = errors.New("child component is shutdown")
	ErrAlreadyStarted    = errors.New("supervisor already started")
	ErrNoLoader          = errors.New("no loader registered in context")

	// Loader errors
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrBadModulePath    = errors.New("malformed module path")
	ErrFactoryFailed    = errors.New("component factory failed")
)

// ArtifactNotFoundError reports that the loader exhausted every resolver
// while looking for an artifact. Resolvers lists the IDs tried, in order.
type ArtifactNotFoundError struct {
	Name      string
	Resolvers []string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("artifact %q not found (resolvers tried: %s)",
		e.Name, strings.Join(e.Resolvers, ", "))
}

func (e *ArtifactNotFoundError) Unwrap() error { return ErrArtifactNotFound }

// FactoryPanicError wraps a panic raised inside a component factory,
// distinguishing it from an ordinary application error returned by the
// factory. WasThrown is always true.
type FactoryPanicError struct {
	Value     any
	WasThrown bool
}

func (e *FactoryPanicError) Error() string {
	return fmt.Sprintf("component factory panicked: %v", e.Value)
}

// TimeoutError reports that a bounded timeout wrapper fired before the
// wrapped operation completed. Timeout is always true.
type TimeoutError struct {
	Op      string
	After   time.Duration
	Timeout bool
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s timed out after %s", e.Op, e.After)
}

// IsTimeout reports whether err carries a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// HangError reports that the supervisor found the previous health check
// still in flight when a new tick fired. CheckingForHang is always true.
type HangError struct {
	Retries         int
	CheckingForHang bool
}

func (e *HangError) Error() string {
	return fmt.Sprintf("health check still in progress (hang retry %d)", e.Retries)
}

// IsHang reports whether err carries a HangError.
func IsHang(err error) bool {
	var he *HangError
	return errors.As(err, &he)
}

// RetryExhaustedError reports that a retried operation gave up. It carries
// the last underlying error.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// FatalError is the supervisor's terminal escalation. Once raised, the tree
// is shutting down and, unless exit is disabled, the process will follow.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fatal: %s", e.Reason)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatalError reports whether err carries a FatalError.
func IsFatalError(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	if errors.Is(err, ErrMissingChild) ||
		errors.Is(err, ErrChildShutdown) ||
		errors.Is(err, context.DeadlineExceeded) ||
		IsTimeout(err) {
		return true
	}

	return false
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return IsFatalError(err)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrInvalidSpec) ||
		errors.Is(err, ErrDuplicateChild) ||
		errors.Is(err, ErrBadModulePath)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	// Default to transient for unknown errors to allow retry
	return ErrorTransient
}

func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// Pretty renders err with its own enumerable properties for operator-facing
// output, one property line per recognized error layer.
func Pretty(err error) string {
	if err == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(err.Error())

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		fmt.Fprintf(&b, "\n  class=%s component=%s operation=%s", ce.Class, ce.Component, ce.Operation)
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		fmt.Fprintf(&b, "\n  timeout=true op=%s after=%s", te.Op, te.After)
	}
	var he *HangError
	if errors.As(err, &he) {
		fmt.Fprintf(&b, "\n  checkingForHang=true retries=%d", he.Retries)
	}
	var fpe *FactoryPanicError
	if errors.As(err, &fpe) {
		fmt.Fprintf(&b, "\n  wasThrown=true value=%v", fpe.Value)
	}
	var re *RetryExhaustedError
	if errors.As(err, &re) {
		fmt.Fprintf(&b, "\n  retryExhausted=true attempts=%d", re.Attempts)
	}
	var ane *ArtifactNotFoundError
	if errors.As(err, &ane) {
		fmt.Fprintf(&b, "\n  artifact=%s resolvers=%s", ane.Name, strings.Join(ane.Resolvers, ","))
	}
	return b.String()
}

// Standard library re-exports so callers need only one errors import.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// New returns an error that formats as the given text.
func New(text string) error { return errors.New(text) }
