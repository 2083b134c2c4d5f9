package discovery

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/testselect/classpath"
)

// newFixtureLoader defines the classes used across selector tests.
func newFixtureLoader(t *testing.T, name string) *classpath.MemoryLoader {
	t.Helper()

	l := classpath.NewMemoryLoader(name, nil)
	defs := []classpath.ClassDef{
		{
			Name: "org.example.Foo",
			Methods: []classpath.MethodDef{
				{Name: "bar"},
				{Name: "bar", ParameterTypes: []string{"int"}},
				{Name: "bar", ParameterTypes: []string{"java.lang.String", "int[]"}},
				{Name: "dup", ParameterTypes: []string{"int"}},
				{Name: "dup", ParameterTypes: []string{"int"}},
				{Name: "format", ParameterTypes: []string{"java.lang.String", "java.lang.Object[]"}},
			},
		},
		{Name: "org.example.Outer"},
		{
			Name: "org.example.Outer$Inner",
			Methods: []classpath.MethodDef{
				{Name: "method", ParameterTypes: []string{"int", "boolean"}},
				{Name: "method"},
			},
		},
		{
			Name: "org.example.Outer$Inner$Deep",
			Methods: []classpath.MethodDef{
				{Name: "run", ParameterTypes: []string{"long[][]"}},
			},
		},
	}
	for _, def := range defs {
		_, err := l.Define(def)
		require.NoError(t, err)
	}
	return l
}

func mustLoad(t *testing.T, l classpath.ClassLoader, name string) *classpath.Class {
	t.Helper()
	c, err := l.LoadClass(name)
	require.NoError(t, err)
	return c
}

// countingLoader records LoadClass calls per name.
type countingLoader struct {
	inner classpath.ClassLoader

	mu    sync.Mutex
	calls map[string]int
}

func newCountingLoader(inner classpath.ClassLoader) *countingLoader {
	return &countingLoader{inner: inner, calls: make(map[string]int)}
}

func (l *countingLoader) Name() string                  { return l.inner.Name() }
func (l *countingLoader) Parent() classpath.ClassLoader { return l.inner.Parent() }

func (l *countingLoader) LoadClass(name string) (*classpath.Class, error) {
	l.mu.Lock()
	l.calls[name]++
	l.mu.Unlock()
	return l.inner.LoadClass(name)
}

func (l *countingLoader) Calls(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[name]
}

func (l *countingLoader) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

// useDefault installs l as the default loader for the duration of the test.
func useDefault(t *testing.T, l classpath.ClassLoader) {
	t.Helper()
	classpath.SetDefault(l)
	t.Cleanup(func() { classpath.SetDefault(nil) })
}
