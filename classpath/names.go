package classpath

import (
	"fmt"
	"path"
	"strings"
)

// BinaryName is a parsed binary class name.
//
//	"org.example.Outer$Middle$Inner"
//	  Package:  "org.example"
//	  TopLevel: "Outer"
//	  Nested:   ["Middle", "Inner"]
type BinaryName struct {
	Package  string
	TopLevel string
	Nested   []string
}

// ParseBinaryName splits a binary class name into its parts.
func ParseBinaryName(name string) (BinaryName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return BinaryName{}, fmt.Errorf("empty class name")
	}

	var bn BinaryName
	simple := name
	if dollar := strings.IndexByte(name, '$'); dollar >= 0 {
		if lastDot := strings.LastIndexByte(name[:dollar], '.'); lastDot >= 0 {
			bn.Package = name[:lastDot]
			simple = name[lastDot+1:]
		}
	} else if lastDot := strings.LastIndexByte(name, '.'); lastDot >= 0 {
		bn.Package = name[:lastDot]
		simple = name[lastDot+1:]
	}

	parts := strings.Split(simple, "$")
	for _, part := range parts {
		if part == "" {
			return BinaryName{}, fmt.Errorf("malformed class name %q", name)
		}
	}
	if bn.Package != "" {
		for _, seg := range strings.Split(bn.Package, ".") {
			if seg == "" {
				return BinaryName{}, fmt.Errorf("malformed package in class name %q", name)
			}
		}
	}

	bn.TopLevel = parts[0]
	if len(parts) > 1 {
		bn.Nested = parts[1:]
	}
	return bn, nil
}

// String returns the binary name.
func (n BinaryName) String() string {
	name := strings.Join(append([]string{n.TopLevel}, n.Nested...), "$")
	if n.Package == "" {
		return name
	}
	return n.Package + "." + name
}

// SimpleName returns the innermost simple name.
func (n BinaryName) SimpleName() string {
	if len(n.Nested) > 0 {
		return n.Nested[len(n.Nested)-1]
	}
	return n.TopLevel
}

// Enclosing returns the binary name of the directly enclosing class, or ""
// for a top-level class.
func (n BinaryName) Enclosing() string {
	if len(n.Nested) == 0 {
		return ""
	}
	return BinaryName{
		Package:  n.Package,
		TopLevel: n.TopLevel,
		Nested:   n.Nested[:len(n.Nested)-1],
	}.String()
}

// SourceFile returns the slash-separated path of the compilation unit that
// declares the top-level class, e.g. "org/example/Outer.java".
func (n BinaryName) SourceFile() string {
	file := n.TopLevel + ".java"
	if n.Package == "" {
		return file
	}
	return path.Join(strings.ReplaceAll(n.Package, ".", "/"), file)
}
