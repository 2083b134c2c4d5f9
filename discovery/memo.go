package discovery

import (
	"log/slog"
	"sync/atomic"

	"github.com/c360studio/testselect/classpath"
)

// outcome is the settled state of a cell: a value or an error.
type outcome[T any] struct {
	value T
	err   error
}

// cell is a single-assignment memo for one derived property. A nil pointer
// means unresolved. Once an outcome is published it never changes.
//
// Concurrent first accesses may each run resolve; the first outcome
// published wins and every caller returns it.
type cell[T any] struct {
	p atomic.Pointer[outcome[T]]
}

func (c *cell[T]) get(resolve func() (T, error)) (T, error) {
	if o := c.p.Load(); o != nil {
		return o.value, o.err
	}

	value, err := resolve()
	o := &outcome[T]{value: value, err: err}
	if !c.p.CompareAndSwap(nil, o) {
		o = c.p.Load()
	}
	return o.value, o.err
}

// preset publishes value. Only used while a selector is being constructed.
func (c *cell[T]) preset(value T) {
	c.p.Store(&outcome[T]{value: value})
}

func (c *cell[T]) resolved() bool {
	return c.p.Load() != nil
}

// loadClass asks loader for name and translates failures into a
// *ResolutionError that keeps the original cause.
func loadClass(loader classpath.ClassLoader, name string) (*classpath.Class, error) {
	c, err := loader.LoadClass(name)
	if err == nil && c == nil {
		err = &classpath.ClassNotFoundError{Name: name, Loader: loader.Name()}
	}
	if err != nil {
		slog.Debug("Class resolution failed",
			"class", name,
			"loader", loader.Name(),
			"error", err)
		return nil, classLoadError(name, err)
	}
	return c, nil
}

// effectiveLoader returns explicit if set, otherwise the default loader.
func effectiveLoader(explicit classpath.ClassLoader) func() (classpath.ClassLoader, error) {
	return func() (classpath.ClassLoader, error) {
		if explicit != nil {
			return explicit, nil
		}
		return classpath.Default(), nil
	}
}
