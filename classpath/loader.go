package classpath

import (
	"errors"
	"sync/atomic"
)

// ClassLoader produces class handles from binary names.
//
// Implementations must be safe for concurrent use, and loading the same name
// twice must yield equivalent handles.
type ClassLoader interface {
	// Name identifies the loader in logs and diagnostics.
	Name() string

	// Parent returns the loader consulted first, or nil.
	Parent() ClassLoader

	// LoadClass returns the class named name. A missing class yields an
	// error matching ErrClassNotFound.
	LoadClass(name string) (*Class, error)
}

// Delegate implements parent-first loading: the parent chain is asked first
// and find is only called when the parent reports the class as missing. Any
// other parent failure is returned as is.
func Delegate(parent ClassLoader, name string, find func(string) (*Class, error)) (*Class, error) {
	if parent != nil {
		c, err := parent.LoadClass(name)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrClassNotFound) {
			return nil, err
		}
	}
	return find(name)
}

// NameOf returns l.Name(), or none for a nil loader.
func NameOf(l ClassLoader, none string) string {
	if l == nil {
		return none
	}
	return l.Name()
}

type loaderHolder struct {
	loader ClassLoader
}

var (
	systemLoader  = NewMemoryLoader("system", nil)
	defaultLoader atomic.Pointer[loaderHolder]
)

// System returns the built-in root loader. It starts empty; embedders may
// define shared classes on it.
func System() *MemoryLoader {
	return systemLoader
}

// Default returns the process-wide fallback loader used by selectors that
// were built without an explicit loader.
func Default() ClassLoader {
	if h := defaultLoader.Load(); h != nil {
		return h.loader
	}
	return systemLoader
}

// SetDefault replaces the fallback loader and returns the previous one.
// Passing nil restores the system loader.
func SetDefault(l ClassLoader) ClassLoader {
	var next *loaderHolder
	if l != nil {
		next = &loaderHolder{loader: l}
	}
	prev := defaultLoader.Swap(next)
	if prev == nil {
		return systemLoader
	}
	return prev.loader
}
