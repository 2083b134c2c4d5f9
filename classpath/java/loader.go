package java

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/c360studio/testselect/classpath"
)

var _ classpath.ClassLoader = (*SourceLoader)(nil)

// LoaderConfig configures a SourceLoader.
type LoaderConfig struct {
	// Name identifies the loader in diagnostics (default "source").
	Name string

	// Roots are source root directories, searched in order.
	Roots []string

	// Exclude holds doublestar patterns matched against root-relative,
	// slash-separated source paths (e.g. "**/generated/**").
	Exclude []string

	// Parent is consulted before this loader.
	Parent classpath.ClassLoader

	// Logger for loader events.
	Logger *slog.Logger
}

// SourceLoader defines classes by locating and parsing the compilation unit
// that declares them. A binary name maps to exactly one relative file path
// ("org.example.Outer$Inner" → "org/example/Outer.java"), so lookups never
// scan a root.
//
// Parsed units are cached per file until Invalidate or Refresh drops them.
type SourceLoader struct {
	name    string
	roots   []string
	exclude []string
	parent  classpath.ClassLoader
	parser  *Parser
	logger  *slog.Logger

	mu    sync.Mutex
	units map[string]*loadedUnit // absolute path → parsed unit
}

type loadedUnit struct {
	hash    string
	classes map[string]*classpath.Class
}

// NewSourceLoader creates a loader over existing root directories.
func NewSourceLoader(cfg LoaderConfig) (*SourceLoader, error) {
	name := cfg.Name
	if name == "" {
		name = "source"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := validateExcludes(cfg.Exclude); err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %q: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root is not a directory: %s", abs)
		}
		roots = append(roots, abs)
	}

	return &SourceLoader{
		name:    name,
		roots:   roots,
		exclude: cfg.Exclude,
		parent:  cfg.Parent,
		parser:  NewParser(),
		logger:  logger,
		units:   make(map[string]*loadedUnit),
	}, nil
}

// Name returns the loader name.
func (l *SourceLoader) Name() string { return l.name }

// Parent returns the parent loader.
func (l *SourceLoader) Parent() classpath.ClassLoader { return l.parent }

// Roots returns the absolute source roots.
func (l *SourceLoader) Roots() []string {
	out := make([]string, len(l.roots))
	copy(out, l.roots)
	return out
}

// LoadClass returns the class named name, asking the parent first.
func (l *SourceLoader) LoadClass(name string) (*classpath.Class, error) {
	return classpath.Delegate(l.parent, name, l.findClass)
}

func (l *SourceLoader) findClass(name string) (*classpath.Class, error) {
	bn, err := classpath.ParseBinaryName(name)
	if err != nil {
		return nil, &classpath.ClassNotFoundError{Name: name, Loader: l.name, Err: err}
	}

	rel := bn.SourceFile()
	if isExcluded(l.exclude, rel) {
		l.logger.Debug("Source excluded", "class", name, "path", rel)
		return nil, &classpath.ClassNotFoundError{Name: name, Loader: l.name}
	}

	for _, root := range l.roots {
		path := filepath.Join(root, filepath.FromSlash(rel))
		unit, err := l.unit(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s from %s: %w", name, path, err)
		}
		if c, ok := unit.classes[name]; ok {
			return c, nil
		}
	}

	return nil, &classpath.ClassNotFoundError{Name: name, Loader: l.name}
}

// unit returns the parsed compilation unit at path, parsing it on first use.
// Reading and parsing happen outside the lock; when two callers parse the
// same file concurrently the first one to publish wins.
func (l *SourceLoader) unit(path string) (*loadedUnit, error) {
	l.mu.Lock()
	u, ok := l.units[path]
	l.mu.Unlock()
	if ok {
		return u, nil
	}

	parsed, err := l.parse(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok := l.units[path]; ok {
		return u, nil
	}
	l.units[path] = parsed

	l.logger.Debug("Parsed compilation unit",
		"loader", l.name,
		"path", path,
		"classes", len(parsed.classes))

	return parsed, nil
}

func (l *SourceLoader) parse(path string) (*loadedUnit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cu, err := l.parser.Parse(context.Background(), path, content)
	if err != nil {
		return nil, err
	}

	u := &loadedUnit{
		hash:    cu.Hash,
		classes: make(map[string]*classpath.Class, len(cu.Classes)),
	}
	for _, def := range cu.Classes {
		c, err := classpath.NewClass(def, l)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", def.Name, err)
		}
		u.classes[c.Name()] = c
	}
	return u, nil
}

// Invalidate drops the cached unit for path. It returns true if an entry
// was cached.
func (l *SourceLoader) Invalidate(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.units[path]
	delete(l.units, path)
	return ok
}

// Refresh drops the cached unit for path if the file was removed or its
// content changed. It returns true if an entry was dropped.
func (l *SourceLoader) Refresh(path string) bool {
	content, readErr := os.ReadFile(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.units[path]
	if !ok {
		return false
	}
	if readErr == nil && computeHash(content) == u.hash {
		return false
	}
	delete(l.units, path)
	return true
}

// Cached returns the number of parsed units held.
func (l *SourceLoader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.units)
}
