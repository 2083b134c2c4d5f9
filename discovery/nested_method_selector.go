package discovery

import (
	"fmt"
	"strings"

	"github.com/c360studio/testselect/classpath"
)

// NestedMethodSelector selects a method of a nested class. The class part
// is a NestedClassSelector.
type NestedMethodSelector struct {
	nestedClassSelector *NestedClassSelector
	methodName          string
	parameterTypeNames  string

	method cell[*classpath.Method]
}

// SelectNestedMethodNames creates a lazy selector.
func SelectNestedMethodNames(enclosingClassNames []string, nestedClassName, methodName, parameterTypeNames string, loader classpath.ClassLoader) (*NestedMethodSelector, error) {
	ncs, err := SelectNestedClassNames(enclosingClassNames, nestedClassName, loader)
	if err != nil {
		return nil, err
	}
	return newNestedMethodSelector(ncs, methodName, parameterTypeNames)
}

// SelectNestedMethod creates a selector from resolved classes. The method is
// looked up on first access.
func SelectNestedMethod(enclosingClasses []*classpath.Class, nestedClass *classpath.Class, methodName, parameterTypeNames string) (*NestedMethodSelector, error) {
	ncs, err := SelectNestedClass(enclosingClasses, nestedClass)
	if err != nil {
		return nil, err
	}
	return newNestedMethodSelector(ncs, methodName, parameterTypeNames)
}

// SelectNestedMethodHandle creates a fully resolved selector. The method
// name and parameter-type text are derived from method.
func SelectNestedMethodHandle(enclosingClasses []*classpath.Class, nestedClass *classpath.Class, method *classpath.Method) (*NestedMethodSelector, error) {
	if method == nil {
		return nil, preconditionf("Method must not be null")
	}
	s, err := SelectNestedMethod(enclosingClasses, nestedClass, method.Name(), method.ParameterTypeNames())
	if err != nil {
		return nil, err
	}
	s.method.preset(method)
	return s, nil
}

func newNestedMethodSelector(ncs *NestedClassSelector, methodName, parameterTypeNames string) (*NestedMethodSelector, error) {
	if err := requireName("Method name", methodName); err != nil {
		return nil, err
	}
	if err := requireParameterText(parameterTypeNames); err != nil {
		return nil, err
	}
	return &NestedMethodSelector{
		nestedClassSelector: ncs,
		methodName:          methodName,
		parameterTypeNames:  parameterTypeNames,
	}, nil
}

// NestedClassSelector returns the selector for the class part.
func (s *NestedMethodSelector) NestedClassSelector() *NestedClassSelector {
	return s.nestedClassSelector
}

// EnclosingClassNames returns a copy of the enclosing class names.
func (s *NestedMethodSelector) EnclosingClassNames() []string {
	return s.nestedClassSelector.EnclosingClassNames()
}

// NestedClassName returns the declared nested class name.
func (s *NestedMethodSelector) NestedClassName() string {
	return s.nestedClassSelector.NestedClassName()
}

// MethodName returns the declared method name.
func (s *NestedMethodSelector) MethodName() string { return s.methodName }

// ParameterTypeNames returns the declared parameter-type text.
func (s *NestedMethodSelector) ParameterTypeNames() string { return s.parameterTypeNames }

// ClassLoader returns the effective loader.
func (s *NestedMethodSelector) ClassLoader() classpath.ClassLoader {
	return s.nestedClassSelector.ClassLoader()
}

// EnclosingClasses resolves the enclosing chain.
func (s *NestedMethodSelector) EnclosingClasses() ([]*classpath.Class, error) {
	return s.nestedClassSelector.EnclosingClasses()
}

// NestedClass returns the resolved nested class.
func (s *NestedMethodSelector) NestedClass() (*classpath.Class, error) {
	return s.nestedClassSelector.NestedClass()
}

// Method returns the resolved method. It needs only the nested class; a
// nested class failure is returned as is.
func (s *NestedMethodSelector) Method() (*classpath.Method, error) {
	return s.method.get(func() (*classpath.Method, error) {
		class, err := s.NestedClass()
		if err != nil {
			return nil, err
		}
		return findMethod(class, s.methodName, s.parameterTypeNames)
	})
}

// Resolve resolves the enclosing chain, the nested class and the method.
func (s *NestedMethodSelector) Resolve() error {
	if err := s.nestedClassSelector.Resolve(); err != nil {
		return err
	}
	_, err := s.Method()
	return err
}

// Key returns "nested-method:" followed by the chain and method reference.
func (s *NestedMethodSelector) Key() string {
	return PrefixNestedMethod + ":" +
		methodReference(s.nestedClassSelector.path(), s.methodName, s.parameterTypeNames)
}

// Hash returns a hash of Key.
func (s *NestedMethodSelector) Hash() uint64 { return hashKey(s.Key()) }

// Equal compares the class chain, method name and parameter-type text.
func (s *NestedMethodSelector) Equal(other Selector) bool {
	o, ok := other.(*NestedMethodSelector)
	if !ok || o == nil {
		return false
	}
	return s.methodName == o.methodName &&
		s.parameterTypeNames == o.parameterTypeNames &&
		s.nestedClassSelector.equalNames(o.nestedClassSelector)
}

func (s *NestedMethodSelector) String() string {
	ncs := s.nestedClassSelector
	return fmt.Sprintf("NestedMethodSelector [enclosingClassNames = [%s], nestedClassName = '%s', methodName = '%s', parameterTypeNames = '%s', classLoader = %s]",
		strings.Join(ncs.enclosingClassNames, ", "), ncs.nestedClassName,
		s.methodName, s.parameterTypeNames, classpath.NameOf(ncs.loader, "<default>"))
}
