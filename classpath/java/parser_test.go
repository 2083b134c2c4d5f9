package java

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/testselect/classpath"
)

const outerSource = `package org.example;

import java.util.List;
import java.util.Map;
import static org.junit.Assert.assertTrue;
import java.io.*;

public class Outer<T extends Comparable<T>> {
    void top() {}
    void method(int a, boolean b) {}
    void strings(String s, List<String> list, Map.Entry<String, Integer> e) {}
    void arrays(int[] a, String[][] b, long c[]) {}
    void varargs(Object... rest) {}
    void generic(T value) {}
    <E extends Number> void bounded(E value, Helper h) {}

    class Inner {
        void method() {}
        void method(Inner other, Deep d) {}

        class Deep {
            void deep(Outer o) {}
        }
    }

    static class NestedTestCase {
        void method() {}
    }

    interface Callback {
        void call(Inner i);
    }

    enum Mode {
        FAST, SLOW;

        void apply(Mode m) {}
    }
}

class Helper {}
`

func parseSource(t *testing.T, code string) *CompilationUnit {
	t.Helper()

	p := NewParser()
	unit, err := p.Parse(context.Background(), "Test.java", []byte(code))
	require.NoError(t, err)
	return unit
}

func findDef(t *testing.T, unit *CompilationUnit, name string) classpath.ClassDef {
	t.Helper()

	for _, def := range unit.Classes {
		if def.Name == name {
			return def
		}
	}
	t.Fatalf("class %s not found", name)
	return classpath.ClassDef{}
}

func methodParams(def classpath.ClassDef, name string) [][]string {
	var out [][]string
	for _, m := range def.Methods {
		if m.Name == name {
			out = append(out, m.ParameterTypes)
		}
	}
	return out
}

func TestParse_PackageAndImports(t *testing.T) {
	unit := parseSource(t, outerSource)

	assert.Equal(t, "org.example", unit.Package)
	assert.Equal(t, []string{
		"java.util.List",
		"java.util.Map",
		"org.junit.Assert.assertTrue",
		"java.io",
	}, unit.Imports)
	assert.NotEmpty(t, unit.Hash)
}

func TestParse_ClassOrder(t *testing.T) {
	unit := parseSource(t, outerSource)

	var names []string
	for _, def := range unit.Classes {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{
		"org.example.Outer",
		"org.example.Outer$Inner",
		"org.example.Outer$Inner$Deep",
		"org.example.Outer$NestedTestCase",
		"org.example.Outer$Callback",
		"org.example.Outer$Mode",
		"org.example.Helper",
	}, names)

	assert.Equal(t, classpath.KindClass, findDef(t, unit, "org.example.Outer").Kind)
	assert.Equal(t, classpath.KindInterface, findDef(t, unit, "org.example.Outer$Callback").Kind)
	assert.Equal(t, classpath.KindEnum, findDef(t, unit, "org.example.Outer$Mode").Kind)
	assert.Equal(t, "Test.java", findDef(t, unit, "org.example.Helper").SourcePath)
}

func TestParse_ParameterTypes(t *testing.T) {
	unit := parseSource(t, outerSource)
	outer := findDef(t, unit, "org.example.Outer")

	tests := []struct {
		method string
		want   []string
	}{
		{"top", []string{}},
		{"method", []string{"int", "boolean"}},
		{"strings", []string{"java.lang.String", "java.util.List", "java.util.Map$Entry"}},
		{"arrays", []string{"int[]", "java.lang.String[][]", "long[]"}},
		{"varargs", []string{"java.lang.Object[]"}},
		{"generic", []string{"java.lang.Comparable"}},
		{"bounded", []string{"java.lang.Number", "org.example.Helper"}},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got := methodParams(outer, tt.method)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestParse_NestedScopes(t *testing.T) {
	unit := parseSource(t, outerSource)

	inner := findDef(t, unit, "org.example.Outer$Inner")
	assert.Equal(t, [][]string{
		{},
		{"org.example.Outer$Inner", "org.example.Outer$Inner$Deep"},
	}, methodParams(inner, "method"))

	deep := findDef(t, unit, "org.example.Outer$Inner$Deep")
	assert.Equal(t, [][]string{{"org.example.Outer"}}, methodParams(deep, "deep"))

	callback := findDef(t, unit, "org.example.Outer$Callback")
	assert.Equal(t, [][]string{{"org.example.Outer$Inner"}}, methodParams(callback, "call"))

	mode := findDef(t, unit, "org.example.Outer$Mode")
	assert.Equal(t, [][]string{{"org.example.Outer$Mode"}}, methodParams(mode, "apply"))
}

func TestParse_DefaultPackageRecordAndAnnotation(t *testing.T) {
	code := `record Point(int x, int y) {
    int sum() { return x + y; }
}

@interface Tag {
    String value();
}

class EnclosingClass {
    class NestedTestClass {
        void method(int a, boolean b) {}
    }
}
`
	unit := parseSource(t, code)

	assert.Equal(t, "", unit.Package)

	point := findDef(t, unit, "Point")
	assert.Equal(t, classpath.KindRecord, point.Kind)
	assert.Equal(t, [][]string{{}}, methodParams(point, "sum"))

	tag := findDef(t, unit, "Tag")
	assert.Equal(t, classpath.KindAnnotation, tag.Kind)
	assert.Len(t, methodParams(tag, "value"), 1)

	nested := findDef(t, unit, "EnclosingClass$NestedTestClass")
	assert.Equal(t, [][]string{{"int", "boolean"}}, methodParams(nested, "method"))
}

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "Outer.java")
	require.NoError(t, os.WriteFile(filePath, []byte(outerSource), 0644))

	unit, err := NewParser().ParseFile(context.Background(), filePath)
	require.NoError(t, err)
	assert.Equal(t, filePath, unit.Path)
	assert.Len(t, unit.Classes, 7)

	_, err = NewParser().ParseFile(context.Background(), filepath.Join(tmpDir, "Missing.java"))
	assert.Error(t, err)
}

func TestToBinaryName(t *testing.T) {
	assert.Equal(t, "java.util.Map$Entry", toBinaryName("java.util.Map.Entry"))
	assert.Equal(t, "java.util.List", toBinaryName("java.util.List"))
	assert.Equal(t, "org.example", toBinaryName("org.example"))
}

func TestParser_ConcurrentUse(t *testing.T) {
	p := NewParser()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unit, err := p.Parse(context.Background(), "Outer.java", []byte(outerSource))
			assert.NoError(t, err)
			assert.Len(t, unit.Classes, 7)
		}()
	}
	wg.Wait()
}

func TestParse_AnnotatedVarargs(t *testing.T) {
	unit := parseSource(t, `package org.example;

import java.util.List;

class Annotated {
    void d1(@Deprecated String... xs) {}
    void d3(String @Deprecated ... xs) {}
    void d4(final List<String> a, int @Deprecated ... rest) {}
}
`)
	def := findDef(t, unit, "org.example.Annotated")

	tests := []struct {
		method string
		want   []string
	}{
		{"d1", []string{"java.lang.String[]"}},
		{"d3", []string{"java.lang.String[]"}},
		{"d4", []string{"java.util.List", "int[]"}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got := methodParams(def, tt.method)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestParameterType(t *testing.T) {
	tests := []struct {
		param string
		base  string
		dims  int
		ok    bool
	}{
		{"String @Deprecated ... xs", "String", 1, true},
		{"@Deprecated final String... xs", "String", 1, true},
		{"@A(x = 1, y = \"b\") java.util.Map<K, List<V>> m", "java.util.Map", 0, true},
		{"int values[][]", "int", 2, true},
		{"long @A [] a", "long", 1, true},
		{"Outer this", "", 0, false},
		{"   ", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			base, dims, ok := parameterType(tt.param)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.dims, dims)
		})
	}
}

func TestSplitParameters(t *testing.T) {
	got := splitParameters(" Map<K, V> m, @A(x = 1, y = 2) int i ,String... s ")
	assert.Equal(t, []string{" Map<K, V> m", " @A(x = 1, y = 2) int i ", "String... s "}, got)
	assert.Empty(t, splitParameters("  "))
}
