package java

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/testselect/classpath"
)

func writeSource(t *testing.T, root, rel, code string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(code), 0644))
	return path
}

func TestSourceLoader_LoadClass(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "org/example/Outer.java", outerSource)

	l, err := NewSourceLoader(LoaderConfig{Name: "test-src", Roots: []string{root}})
	require.NoError(t, err)
	assert.Equal(t, "test-src", l.Name())
	assert.Nil(t, l.Parent())

	inner, err := l.LoadClass("org.example.Outer$Inner")
	require.NoError(t, err)
	assert.Equal(t, "org.example.Outer$Inner", inner.Name())
	assert.Equal(t, "org.example.Outer", inner.EnclosingClassName())
	assert.Same(t, l, inner.Loader())
	assert.Equal(t, path, inner.SourcePath())
	assert.Len(t, inner.DeclaredMethods("method"), 2)

	outer, err := l.LoadClass("org.example.Outer")
	require.NoError(t, err)
	assert.False(t, outer.IsNested())

	again, err := l.LoadClass("org.example.Outer$Inner")
	require.NoError(t, err)
	assert.Same(t, inner, again)
	assert.Equal(t, 1, l.Cached(), "one compilation unit parsed once")
}

func TestSourceLoader_NotFound(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "org/example/Outer.java", outerSource)

	l, err := NewSourceLoader(LoaderConfig{Roots: []string{root}})
	require.NoError(t, err)
	assert.Equal(t, "source", l.Name())

	for _, name := range []string{
		"org.example.Missing",
		"org.example.Outer$Missing",
		"org.example.Helper", // declared in Outer.java, not in its own unit
		"org..Broken",
	} {
		_, err := l.LoadClass(name)
		require.Error(t, err, name)
		assert.True(t, classpath.IsNotFound(err), name)

		var cnf *classpath.ClassNotFoundError
		require.True(t, errors.As(err, &cnf), name)
		assert.Equal(t, name, cnf.Name)
		assert.Equal(t, "source", cnf.Loader)
	}
}

func TestSourceLoader_MultipleRoots(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeSource(t, first, "org/example/A.java", "package org.example;\nclass A {}\n")
	writeSource(t, second, "org/example/B.java", "package org.example;\nclass B {}\n")

	l, err := NewSourceLoader(LoaderConfig{Roots: []string{first, second}})
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, l.Roots())

	a, err := l.LoadClass("org.example.A")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "org", "example", "A.java"), a.SourcePath())

	b, err := l.LoadClass("org.example.B")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "org", "example", "B.java"), b.SourcePath())
}

func TestSourceLoader_ParentFirst(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "org/example/Outer.java", outerSource)

	parent := classpath.NewMemoryLoader("parent", nil)
	fromParent, err := parent.Define(classpath.ClassDef{Name: "org.example.Outer"})
	require.NoError(t, err)

	l, err := NewSourceLoader(LoaderConfig{Roots: []string{root}, Parent: parent})
	require.NoError(t, err)

	got, err := l.LoadClass("org.example.Outer")
	require.NoError(t, err)
	assert.Same(t, fromParent, got)

	nested, err := l.LoadClass("org.example.Outer$Inner")
	require.NoError(t, err)
	assert.Same(t, l, nested.Loader())
}

func TestSourceLoader_Exclude(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "org/example/generated/Gen.java", "package org.example.generated;\nclass Gen {}\n")

	l, err := NewSourceLoader(LoaderConfig{Roots: []string{root}, Exclude: []string{"**/generated/**"}})
	require.NoError(t, err)

	_, err = l.LoadClass("org.example.generated.Gen")
	assert.True(t, classpath.IsNotFound(err))
	assert.Equal(t, 0, l.Cached())
}

func TestSourceLoader_RefreshAndInvalidate(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "org/example/A.java", "package org.example;\nclass A { void one() {} }\n")

	l, err := NewSourceLoader(LoaderConfig{Roots: []string{root}})
	require.NoError(t, err)

	before, err := l.LoadClass("org.example.A")
	require.NoError(t, err)
	assert.Len(t, before.Methods(), 1)

	assert.False(t, l.Refresh(path), "unchanged content keeps the cache")

	writeSource(t, root, "org/example/A.java", "package org.example;\nclass A { void one() {} void two() {} }\n")
	assert.True(t, l.Refresh(path))
	assert.False(t, l.Refresh(path), "nothing cached any more")

	after, err := l.LoadClass("org.example.A")
	require.NoError(t, err)
	assert.Len(t, after.Methods(), 2)
	assert.Len(t, before.Methods(), 1, "old handles are immutable")

	assert.True(t, l.Invalidate(path))
	assert.False(t, l.Invalidate(path))
}

func TestNewSourceLoader_Errors(t *testing.T) {
	root := t.TempDir()
	file := writeSource(t, root, "A.java", "class A {}\n")

	_, err := NewSourceLoader(LoaderConfig{Roots: []string{filepath.Join(root, "missing")}})
	assert.Error(t, err)

	_, err = NewSourceLoader(LoaderConfig{Roots: []string{file}})
	assert.Error(t, err)

	_, err = NewSourceLoader(LoaderConfig{Roots: []string{root}, Exclude: []string{"[bad"}})
	assert.Error(t, err)
}

func TestSourceLoader_ConcurrentLoads(t *testing.T) {
	root := t.TempDir()
	const files = 8
	for i := 0; i < files; i++ {
		writeSource(t, root, fmt.Sprintf("org/example/C%d.java", i),
			fmt.Sprintf("package org.example;\nclass C%d { void run(int n) {} class Inner {} }\n", i))
	}

	l, err := NewSourceLoader(LoaderConfig{Roots: []string{root}})
	require.NoError(t, err)

	const workers = 32
	got := make([][]*classpath.Class, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < files; i++ {
				name := fmt.Sprintf("org.example.C%d", i)
				if w%2 == 1 {
					name += "$Inner"
				}
				c, err := l.LoadClass(name)
				assert.NoError(t, err)
				got[w] = append(got[w], c)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, files, l.Cached())
	for w := 2; w < workers; w++ {
		for i := 0; i < files; i++ {
			assert.Same(t, got[w%2][i], got[w][i], "worker %d class %d", w, i)
		}
	}
	// Nested classes come from the same published unit as their top-level class.
	for i := 0; i < files; i++ {
		assert.Equal(t, got[0][i].SourcePath(), got[1][i].SourcePath())
	}
}
