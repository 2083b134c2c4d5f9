package discovery

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/c360studio/testselect/classpath"
)

// Selector is the contract shared by all selector kinds.
//
// Key, Hash and Equal are computed from the declared names only; the loader
// and any resolved handles never take part. Two selectors with the same
// names and different loaders are equal.
type Selector interface {
	fmt.Stringer

	// Key returns the canonical identifier text, e.g. "class:org.example.Foo".
	// Equal selectors have equal keys.
	Key() string

	// Hash returns a stable hash of Key.
	Hash() uint64

	// Equal reports whether other declares the same names.
	Equal(other Selector) bool

	// ClassLoader returns the effective loader, fixed on first access.
	ClassLoader() classpath.ClassLoader

	// Resolve resolves every derived property and returns the first failure.
	Resolve() error
}

var (
	_ Selector = (*ClassSelector)(nil)
	_ Selector = (*MethodSelector)(nil)
	_ Selector = (*NestedClassSelector)(nil)
	_ Selector = (*NestedMethodSelector)(nil)
)

func hashKey(key string) uint64 {
	return xxhash.Sum64String(key)
}

// reservedNameChars separate the parts of a selector key and may not
// appear inside a single name.
const reservedNameChars = "/#()"

func requireName(what, name string) error {
	if strings.TrimSpace(name) == "" {
		return preconditionf("%s must not be null or blank", what)
	}
	if strings.ContainsAny(name, reservedNameChars) {
		return preconditionf("%s must not contain any of / # ( ): %q", what, name)
	}
	return nil
}

func requireParameterText(text string) error {
	if strings.ContainsAny(text, reservedNameChars) {
		return preconditionf("Parameter types must not contain any of / # ( ): %q", text)
	}
	return nil
}

func requireNames(what string, names []string) error {
	if len(names) == 0 {
		return preconditionf("%s must not be null or empty", what)
	}
	for _, name := range names {
		if err := requireName(what+" element", name); err != nil {
			return err
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
