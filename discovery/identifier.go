package discovery

import (
	"strings"

	"github.com/c360studio/testselect/classpath"
)

// Identifier prefixes.
const (
	PrefixClass        = "class"
	PrefixMethod       = "method"
	PrefixNestedClass  = "nested-class"
	PrefixNestedMethod = "nested-method"
)

// Identifier returns the textual form of s, accepted by Parse.
func Identifier(s Selector) string {
	return s.Key()
}

// Parse creates a lazy selector from its textual form:
//
//	class:org.example.Foo
//	method:org.example.Foo#bar(int, java.lang.String)
//	nested-class:org.example.Outer/org.example.Outer$Inner
//	nested-method:org.example.Outer/org.example.Outer$Inner#bar(int)
//
// A nil loader means the default loader.
func Parse(identifier string, loader classpath.ClassLoader) (Selector, error) {
	prefix, value, ok := strings.Cut(identifier, ":")
	if !ok {
		return nil, preconditionf("Identifier must have the form prefix:value: %q", identifier)
	}

	switch strings.TrimSpace(prefix) {
	case PrefixClass:
		return SelectClassName(value, loader)

	case PrefixMethod:
		className, methodName, params, err := ParseMethodReference(value)
		if err != nil {
			return nil, err
		}
		return SelectMethodName(className, methodName, params, loader)

	case PrefixNestedClass:
		enclosing, nested, err := splitNestedPath(value)
		if err != nil {
			return nil, err
		}
		return SelectNestedClassNames(enclosing, nested, loader)

	case PrefixNestedMethod:
		path, methodName, params, err := ParseMethodReference(value)
		if err != nil {
			return nil, err
		}
		enclosing, nested, err := splitNestedPath(path)
		if err != nil {
			return nil, err
		}
		return SelectNestedMethodNames(enclosing, nested, methodName, params, loader)

	default:
		return nil, preconditionf("Unknown selector prefix %q in identifier %q", prefix, identifier)
	}
}

// ParseAll parses every identifier. The first failure is returned.
func ParseAll(identifiers []string, loader classpath.ClassLoader) ([]Selector, error) {
	out := make([]Selector, 0, len(identifiers))
	for _, id := range identifiers {
		s, err := Parse(id, loader)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseMethodReference splits "class#method(params)" into its parts. The
// parenthesized parameter list is optional; without it the parameter text
// is empty.
func ParseMethodReference(ref string) (className, methodName, parameterTypeNames string, err error) {
	hash := strings.IndexByte(ref, '#')
	if hash <= 0 || hash == len(ref)-1 {
		return "", "", "", preconditionf("Method reference must have the form class#method(params): %q", ref)
	}
	className, rest := ref[:hash], ref[hash+1:]

	methodName = rest
	if open := strings.IndexByte(rest, '('); open >= 0 {
		if !strings.HasSuffix(rest, ")") {
			return "", "", "", preconditionf("Method reference has unbalanced parentheses: %q", ref)
		}
		methodName = rest[:open]
		parameterTypeNames = rest[open+1 : len(rest)-1]
	}

	if strings.TrimSpace(methodName) == "" {
		return "", "", "", preconditionf("Method reference must name a method: %q", ref)
	}
	return className, methodName, parameterTypeNames, nil
}

func splitNestedPath(path string) (enclosing []string, nested string, err error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return nil, "", preconditionf("Nested class path must name at least one enclosing class: %q", path)
	}
	return parts[:len(parts)-1], parts[len(parts)-1], nil
}
