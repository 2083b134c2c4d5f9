package discovery

import (
	"fmt"
	"strings"

	"github.com/c360studio/testselect/classpath"
)

// NestedClassSelector selects a nested class together with the chain of
// classes enclosing it, outermost first.
//
// Enclosing classes and the nested class resolve independently: the nested
// class is loaded by its own name even when an enclosing class is missing.
type NestedClassSelector struct {
	enclosingClassNames []string
	nestedClassName     string
	loader              classpath.ClassLoader

	enclosing       []cell[*classpath.Class]
	nested          cell[*classpath.Class]
	effectiveLoader cell[classpath.ClassLoader]
}

// SelectNestedClassNames creates a lazy selector. enclosingClassNames must
// be non-empty, outermost first.
func SelectNestedClassNames(enclosingClassNames []string, nestedClassName string, loader classpath.ClassLoader) (*NestedClassSelector, error) {
	if err := requireNames("Enclosing class names", enclosingClassNames); err != nil {
		return nil, err
	}
	if err := requireName("Nested class name", nestedClassName); err != nil {
		return nil, err
	}

	names := make([]string, len(enclosingClassNames))
	copy(names, enclosingClassNames)

	return &NestedClassSelector{
		enclosingClassNames: names,
		nestedClassName:     nestedClassName,
		loader:              loader,
		enclosing:           make([]cell[*classpath.Class], len(names)),
	}, nil
}

// SelectNestedClass creates a selector from resolved classes. Names are
// taken from the handles and the nested class's loader becomes the
// effective loader.
func SelectNestedClass(enclosingClasses []*classpath.Class, nestedClass *classpath.Class) (*NestedClassSelector, error) {
	if len(enclosingClasses) == 0 {
		return nil, preconditionf("Enclosing classes must not be null or empty")
	}
	if nestedClass == nil {
		return nil, preconditionf("Nested class must not be null")
	}

	names := make([]string, len(enclosingClasses))
	for i, c := range enclosingClasses {
		if c == nil {
			return nil, preconditionf("Enclosing classes must not contain null elements")
		}
		names[i] = c.Name()
	}

	s, err := SelectNestedClassNames(names, nestedClass.Name(), nestedClass.Loader())
	if err != nil {
		return nil, err
	}
	for i, c := range enclosingClasses {
		s.enclosing[i].preset(c)
	}
	s.nested.preset(nestedClass)
	return s, nil
}

// EnclosingClassNames returns a copy of the enclosing class names.
func (s *NestedClassSelector) EnclosingClassNames() []string {
	out := make([]string, len(s.enclosingClassNames))
	copy(out, s.enclosingClassNames)
	return out
}

// NestedClassName returns the declared nested class name.
func (s *NestedClassSelector) NestedClassName() string { return s.nestedClassName }

// ClassLoader returns the effective loader.
func (s *NestedClassSelector) ClassLoader() classpath.ClassLoader {
	l, _ := s.effectiveLoader.get(effectiveLoader(s.loader))
	return l
}

// EnclosingClasses resolves the enclosing chain in order. The first failure
// is returned and later names are not attempted.
func (s *NestedClassSelector) EnclosingClasses() ([]*classpath.Class, error) {
	out := make([]*classpath.Class, len(s.enclosingClassNames))
	for i := range s.enclosing {
		name := s.enclosingClassNames[i]
		c, err := s.enclosing[i].get(func() (*classpath.Class, error) {
			return loadClass(s.ClassLoader(), name)
		})
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// NestedClass returns the resolved nested class.
func (s *NestedClassSelector) NestedClass() (*classpath.Class, error) {
	return s.nested.get(func() (*classpath.Class, error) {
		return loadClass(s.ClassLoader(), s.nestedClassName)
	})
}

// Resolve resolves the enclosing chain and then the nested class.
func (s *NestedClassSelector) Resolve() error {
	if _, err := s.EnclosingClasses(); err != nil {
		return err
	}
	_, err := s.NestedClass()
	return err
}

func (s *NestedClassSelector) path() string {
	return strings.Join(s.enclosingClassNames, "/") + "/" + s.nestedClassName
}

// Key returns "nested-class:" followed by the slash-separated chain.
func (s *NestedClassSelector) Key() string {
	return PrefixNestedClass + ":" + s.path()
}

// Hash returns a hash of Key.
func (s *NestedClassSelector) Hash() uint64 { return hashKey(s.Key()) }

// Equal compares the enclosing names in order and the nested name.
func (s *NestedClassSelector) Equal(other Selector) bool {
	o, ok := other.(*NestedClassSelector)
	if !ok || o == nil {
		return false
	}
	return s.equalNames(o)
}

func (s *NestedClassSelector) equalNames(o *NestedClassSelector) bool {
	return s.nestedClassName == o.nestedClassName &&
		equalStrings(s.enclosingClassNames, o.enclosingClassNames)
}

func (s *NestedClassSelector) String() string {
	return fmt.Sprintf("NestedClassSelector [enclosingClassNames = [%s], nestedClassName = '%s', classLoader = %s]",
		strings.Join(s.enclosingClassNames, ", "), s.nestedClassName, classpath.NameOf(s.loader, "<default>"))
}
