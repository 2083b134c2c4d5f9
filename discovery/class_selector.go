package discovery

import (
	"fmt"

	"github.com/c360studio/testselect/classpath"
)

// ClassSelector selects a class by binary name.
type ClassSelector struct {
	className string
	loader    classpath.ClassLoader

	class           cell[*classpath.Class]
	effectiveLoader cell[classpath.ClassLoader]
}

// SelectClassName creates a lazy selector for className. A nil loader means
// the default loader at resolution time.
func SelectClassName(className string, loader classpath.ClassLoader) (*ClassSelector, error) {
	if err := requireName("Class name", className); err != nil {
		return nil, err
	}
	return &ClassSelector{className: className, loader: loader}, nil
}

// SelectClass creates a selector for an already resolved class. No load is
// performed; the effective loader is the class's defining loader.
func SelectClass(class *classpath.Class) (*ClassSelector, error) {
	if class == nil {
		return nil, preconditionf("Class must not be null")
	}
	s := &ClassSelector{className: class.Name(), loader: class.Loader()}
	s.class.preset(class)
	return s, nil
}

// ClassName returns the declared class name.
func (s *ClassSelector) ClassName() string { return s.className }

// ClassLoader returns the effective loader.
func (s *ClassSelector) ClassLoader() classpath.ClassLoader {
	l, _ := s.effectiveLoader.get(effectiveLoader(s.loader))
	return l
}

// Class returns the resolved class, loading it on first call.
func (s *ClassSelector) Class() (*classpath.Class, error) {
	return s.class.get(func() (*classpath.Class, error) {
		return loadClass(s.ClassLoader(), s.className)
	})
}

// Resolve resolves the class.
func (s *ClassSelector) Resolve() error {
	_, err := s.Class()
	return err
}

// Key returns "class:" followed by the class name.
func (s *ClassSelector) Key() string {
	return PrefixClass + ":" + s.className
}

// Hash returns a hash of Key.
func (s *ClassSelector) Hash() uint64 { return hashKey(s.Key()) }

// Equal compares class names only.
func (s *ClassSelector) Equal(other Selector) bool {
	o, ok := other.(*ClassSelector)
	if !ok || o == nil {
		return false
	}
	return s.className == o.className
}

func (s *ClassSelector) String() string {
	return fmt.Sprintf("ClassSelector [className = '%s', classLoader = %s]",
		s.className, classpath.NameOf(s.loader, "<default>"))
}
