package discovery

import (
	"fmt"

	"github.com/c360studio/testselect/classpath"
)

// MethodSelector selects a method of a class by class name, method name and
// parameter-type text.
type MethodSelector struct {
	className          string
	methodName         string
	parameterTypeNames string
	loader             classpath.ClassLoader

	class           cell[*classpath.Class]
	method          cell[*classpath.Method]
	effectiveLoader cell[classpath.ClassLoader]
}

// SelectMethodName creates a lazy method selector. parameterTypeNames is a
// comma-separated list of type names; "" selects a method without
// parameters.
func SelectMethodName(className, methodName, parameterTypeNames string, loader classpath.ClassLoader) (*MethodSelector, error) {
	if err := requireName("Class name", className); err != nil {
		return nil, err
	}
	if err := requireName("Method name", methodName); err != nil {
		return nil, err
	}
	if err := requireParameterText(parameterTypeNames); err != nil {
		return nil, err
	}
	return &MethodSelector{
		className:          className,
		methodName:         methodName,
		parameterTypeNames: parameterTypeNames,
		loader:             loader,
	}, nil
}

// SelectClassMethod creates a selector over an already resolved class; the
// method is looked up on first access.
func SelectClassMethod(class *classpath.Class, methodName, parameterTypeNames string) (*MethodSelector, error) {
	if class == nil {
		return nil, preconditionf("Class must not be null")
	}
	s, err := SelectMethodName(class.Name(), methodName, parameterTypeNames, class.Loader())
	if err != nil {
		return nil, err
	}
	s.class.preset(class)
	return s, nil
}

// SelectMethod creates a fully resolved selector for method of class.
func SelectMethod(class *classpath.Class, method *classpath.Method) (*MethodSelector, error) {
	if method == nil {
		return nil, preconditionf("Method must not be null")
	}
	s, err := SelectClassMethod(class, method.Name(), method.ParameterTypeNames())
	if err != nil {
		return nil, err
	}
	s.method.preset(method)
	return s, nil
}

// ClassName returns the declared class name.
func (s *MethodSelector) ClassName() string { return s.className }

// MethodName returns the declared method name.
func (s *MethodSelector) MethodName() string { return s.methodName }

// ParameterTypeNames returns the declared parameter-type text.
func (s *MethodSelector) ParameterTypeNames() string { return s.parameterTypeNames }

// ClassLoader returns the effective loader.
func (s *MethodSelector) ClassLoader() classpath.ClassLoader {
	l, _ := s.effectiveLoader.get(effectiveLoader(s.loader))
	return l
}

// Class returns the resolved class.
func (s *MethodSelector) Class() (*classpath.Class, error) {
	return s.class.get(func() (*classpath.Class, error) {
		return loadClass(s.ClassLoader(), s.className)
	})
}

// Method returns the resolved method. A class failure is returned as is.
func (s *MethodSelector) Method() (*classpath.Method, error) {
	return s.method.get(func() (*classpath.Method, error) {
		class, err := s.Class()
		if err != nil {
			return nil, err
		}
		return findMethod(class, s.methodName, s.parameterTypeNames)
	})
}

// Resolve resolves the class and the method.
func (s *MethodSelector) Resolve() error {
	_, err := s.Method()
	return err
}

// Key returns "method:" followed by the method reference.
func (s *MethodSelector) Key() string {
	return PrefixMethod + ":" + methodReference(s.className, s.methodName, s.parameterTypeNames)
}

// Hash returns a hash of Key.
func (s *MethodSelector) Hash() uint64 { return hashKey(s.Key()) }

// Equal compares class name, method name and parameter-type text.
func (s *MethodSelector) Equal(other Selector) bool {
	o, ok := other.(*MethodSelector)
	if !ok || o == nil {
		return false
	}
	return s.className == o.className &&
		s.methodName == o.methodName &&
		s.parameterTypeNames == o.parameterTypeNames
}

func (s *MethodSelector) String() string {
	return fmt.Sprintf("MethodSelector [className = '%s', methodName = '%s', parameterTypeNames = '%s', classLoader = %s]",
		s.className, s.methodName, s.parameterTypeNames, classpath.NameOf(s.loader, "<default>"))
}
