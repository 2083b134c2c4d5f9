package discovery

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/c360studio/testselect/classpath"
)

// ParseParameterTypeNames splits parameter-type text into normalized type
// names. Whitespace is ignored, "T..." becomes "T[]" and JVM array
// descriptors such as "[I" or "[Ljava.lang.String;" become source form.
// Blank text yields an empty list.
func ParseParameterTypeNames(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	parts := strings.Split(text, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = normalizeTypeName(p)
	}
	return out
}

func normalizeTypeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)

	if strings.HasSuffix(name, "...") {
		name = strings.TrimSuffix(name, "...") + "[]"
	}
	if strings.HasPrefix(name, "[") {
		if n, ok := fromDescriptor(name); ok {
			return n
		}
	}
	return name
}

var primitiveDescriptors = map[byte]string{
	'Z': "boolean",
	'B': "byte",
	'C': "char",
	'S': "short",
	'I': "int",
	'J': "long",
	'F': "float",
	'D': "double",
}

// fromDescriptor converts a JVM array type descriptor to source form.
func fromDescriptor(desc string) (string, bool) {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	elem := desc[dims:]

	var base string
	switch {
	case len(elem) == 1:
		p, ok := primitiveDescriptors[elem[0]]
		if !ok {
			return "", false
		}
		base = p
	case len(elem) > 2 && elem[0] == 'L' && elem[len(elem)-1] == ';':
		base = elem[1 : len(elem)-1]
	default:
		return "", false
	}
	return base + strings.Repeat("[]", dims), true
}

func parametersMatch(declared, want []string) bool {
	if len(declared) != len(want) {
		return false
	}
	for i := range declared {
		if normalizeTypeName(declared[i]) != want[i] {
			return false
		}
	}
	return true
}

// findMethod returns the single method of class named methodName whose
// parameter types match parameterTypeNames.
func findMethod(class *classpath.Class, methodName, parameterTypeNames string) (*classpath.Method, error) {
	want := ParseParameterTypeNames(parameterTypeNames)

	var matches []*classpath.Method
	for _, m := range class.DeclaredMethods(methodName) {
		if parametersMatch(m.ParameterTypes(), want) {
			matches = append(matches, m)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, methodLookupError(class.Name(), methodName, parameterTypeNames, ErrMethodNotFound)
	default:
		return nil, methodLookupError(class.Name(), methodName, parameterTypeNames,
			fmt.Errorf("%w: %d candidates", ErrAmbiguousMethod, len(matches)))
	}
}

// methodReference renders "class#method(params)".
func methodReference(className, methodName, parameterTypeNames string) string {
	return className + "#" + methodName + "(" + parameterTypeNames + ")"
}
