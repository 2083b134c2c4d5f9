package discovery

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition is matched by construction and parse failures.
	ErrPrecondition = errors.New("precondition violated")

	// ErrMethodNotFound is the cause of a method resolution failure when no
	// declared method matches.
	ErrMethodNotFound = errors.New("no matching method")

	// ErrAmbiguousMethod is the cause of a method resolution failure when
	// more than one declared method matches.
	ErrAmbiguousMethod = errors.New("more than one matching method")
)

// PreconditionError reports invalid selector input. It is returned
// synchronously by constructors and Parse, never deferred to resolution.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func preconditionf(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

// ResolutionError reports that a declared name could not be resolved.
// Error returns a fixed message naming the failing class or method; the
// loader's original failure is kept as the cause.
type ResolutionError struct {
	// Name is the class name that failed to load, or for method lookups the
	// declaring class name.
	Name string

	// Message is the fixed diagnostic text.
	Message string

	// Err is the original failure.
	Err error
}

func (e *ResolutionError) Error() string {
	return e.Message
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Cause returns the original failure.
func (e *ResolutionError) Cause() error {
	return e.Err
}

func classLoadError(name string, cause error) *ResolutionError {
	return &ResolutionError{
		Name:    name,
		Message: "Could not load class with name: " + name,
		Err:     cause,
	}
}

func methodLookupError(className, methodName, parameterTypeNames string, cause error) *ResolutionError {
	return &ResolutionError{
		Name: className,
		Message: fmt.Sprintf("Could not find method with name [%s] and parameter types [%s] in class [%s].",
			methodName, parameterTypeNames, className),
		Err: cause,
	}
}
