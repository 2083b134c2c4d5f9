// Package discovery provides name-based test selectors that resolve lazily
// into class and method handles.
//
// A selector is an immutable value built from names. Its identity (Key,
// Hash, Equal) depends only on those names, so selector sets can be merged
// and deduplicated before any class is loaded. The resolved form is computed
// on first access through a classpath.ClassLoader and memoized, failures
// included: every later access returns the same handle or the same
// *ResolutionError.
//
// Selector kinds:
//   - ClassSelector: a class by binary name
//   - MethodSelector: a method of a class, by name and parameter-type text
//   - NestedClassSelector: a class nested in a chain of enclosing classes
//   - NestedMethodSelector: a method of a nested class
//
// Each kind has a by-name constructor (lazy) and a by-handle constructor
// (eager, cache pre-populated). Selectors also have a textual identifier
// form, see Parse.
package discovery
