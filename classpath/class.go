package classpath

import (
	"strings"
)

// Kind classifies a type declaration.
type Kind string

const (
	KindClass      Kind = "class"
	KindInterface  Kind = "interface"
	KindEnum       Kind = "enum"
	KindRecord     Kind = "record"
	KindAnnotation Kind = "annotation"
)

// ClassDef describes a class before it is bound to its defining loader.
type ClassDef struct {
	// Name is the binary name, e.g. "org.example.Outer$Inner".
	Name string
	Kind Kind
	// Methods are the declared methods in source order.
	Methods []MethodDef
	// SourcePath is the file the class was read from (optional).
	SourcePath string
}

// MethodDef describes a declared method.
type MethodDef struct {
	Name string
	// ParameterTypes are fully qualified type names in declaration order.
	ParameterTypes []string
}

// Class is a resolved class handle. It is immutable once created.
type Class struct {
	name       BinaryName
	binaryName string
	kind       Kind
	loader     ClassLoader
	methods    []*Method
	sourcePath string
}

// NewClass binds def to its defining loader.
func NewClass(def ClassDef, loader ClassLoader) (*Class, error) {
	bn, err := ParseBinaryName(def.Name)
	if err != nil {
		return nil, err
	}

	kind := def.Kind
	if kind == "" {
		kind = KindClass
	}

	c := &Class{
		name:       bn,
		binaryName: bn.String(),
		kind:       kind,
		loader:     loader,
		sourcePath: def.SourcePath,
		methods:    make([]*Method, 0, len(def.Methods)),
	}
	for _, md := range def.Methods {
		params := make([]string, len(md.ParameterTypes))
		copy(params, md.ParameterTypes)
		c.methods = append(c.methods, &Method{
			name:           md.Name,
			declaringClass: c,
			parameterTypes: params,
		})
	}
	return c, nil
}

// Name returns the binary name.
func (c *Class) Name() string { return c.binaryName }

// SimpleName returns the innermost simple name.
func (c *Class) SimpleName() string { return c.name.SimpleName() }

// PackageName returns the package, "" for the default package.
func (c *Class) PackageName() string { return c.name.Package }

// Kind returns the declaration kind.
func (c *Class) Kind() Kind { return c.kind }

// Loader returns the defining loader.
func (c *Class) Loader() ClassLoader { return c.loader }

// SourcePath returns the file the class was read from, if known.
func (c *Class) SourcePath() string { return c.sourcePath }

// EnclosingClassName returns the binary name of the directly enclosing class,
// or "" for a top-level class.
func (c *Class) EnclosingClassName() string { return c.name.Enclosing() }

// IsNested reports whether the class is declared inside another class.
func (c *Class) IsNested() bool { return len(c.name.Nested) > 0 }

// Methods returns the declared methods.
func (c *Class) Methods() []*Method {
	out := make([]*Method, len(c.methods))
	copy(out, c.methods)
	return out
}

// DeclaredMethods returns the declared methods named name.
func (c *Class) DeclaredMethods(name string) []*Method {
	var out []*Method
	for _, m := range c.methods {
		if m.name == name {
			out = append(out, m)
		}
	}
	return out
}

func (c *Class) String() string {
	return string(c.kind) + " " + c.binaryName
}

// Method is a declared method handle.
type Method struct {
	name           string
	declaringClass *Class
	parameterTypes []string
}

// Name returns the method name.
func (m *Method) Name() string { return m.name }

// DeclaringClass returns the class that declares m.
func (m *Method) DeclaringClass() *Class { return m.declaringClass }

// ParameterTypes returns the parameter type names in order.
func (m *Method) ParameterTypes() []string {
	out := make([]string, len(m.parameterTypes))
	copy(out, m.parameterTypes)
	return out
}

// ParameterTypeNames returns the parameter types joined with ", ".
func (m *Method) ParameterTypeNames() string {
	return strings.Join(m.parameterTypes, ", ")
}

// String renders the method as "org.example.Foo#bar(int, java.lang.String)".
func (m *Method) String() string {
	return m.declaringClass.Name() + "#" + m.name + "(" + m.ParameterTypeNames() + ")"
}
