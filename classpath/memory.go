package classpath

import (
	"fmt"
	"sort"
	"sync"
)

var _ ClassLoader = (*MemoryLoader)(nil)

// MemoryLoader is a thread-safe define-then-load registry with parent-first
// delegation.
type MemoryLoader struct {
	name   string
	parent ClassLoader

	mu      sync.RWMutex
	classes map[string]*Class // binary name → class
}

// NewMemoryLoader creates an empty loader.
func NewMemoryLoader(name string, parent ClassLoader) *MemoryLoader {
	return &MemoryLoader{
		name:    name,
		parent:  parent,
		classes: make(map[string]*Class),
	}
}

// Name returns the loader name.
func (l *MemoryLoader) Name() string { return l.name }

// Parent returns the parent loader.
func (l *MemoryLoader) Parent() ClassLoader { return l.parent }

// Define binds def to this loader. Defining the same name twice fails.
func (l *MemoryLoader) Define(def ClassDef) (*Class, error) {
	c, err := NewClass(def, l)
	if err != nil {
		return nil, fmt.Errorf("define class: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.classes[c.Name()]; exists {
		return nil, fmt.Errorf("class already defined in loader %s: %s", l.name, c.Name())
	}
	l.classes[c.Name()] = c
	return c, nil
}

// LoadClass returns the class named name, asking the parent first.
func (l *MemoryLoader) LoadClass(name string) (*Class, error) {
	return Delegate(l.parent, name, l.findClass)
}

func (l *MemoryLoader) findClass(name string) (*Class, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if c, ok := l.classes[name]; ok {
		return c, nil
	}
	return nil, &ClassNotFoundError{Name: name, Loader: l.name}
}

// ClassNames returns the names defined directly on this loader, sorted.
func (l *MemoryLoader) ClassNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.classes))
	for name := range l.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
