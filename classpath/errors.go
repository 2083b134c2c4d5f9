package classpath

import (
	"errors"
	"fmt"
)

// ErrClassNotFound is matched by every error a loader returns for a name it
// cannot define.
var ErrClassNotFound = errors.New("class not found")

// ClassNotFoundError reports that no loader in the chain could produce Name.
type ClassNotFoundError struct {
	// Name is the requested binary name.
	Name string
	// Loader is the name of the loader that gave up.
	Loader string
	// Err is an optional lower-level cause (I/O, parse failures).
	Err error
}

func (e *ClassNotFoundError) Error() string {
	msg := "class not found: " + e.Name
	if e.Loader != "" {
		msg = fmt.Sprintf("%s (loader %s)", msg, e.Loader)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrClassNotFound.
func (e *ClassNotFoundError) Is(target error) bool {
	return target == ErrClassNotFound
}

func (e *ClassNotFoundError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err is, or wraps, a class-not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClassNotFound)
}
