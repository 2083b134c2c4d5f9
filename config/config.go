// Package config provides configuration loading and management for testselect.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the complete testselect configuration
type Config struct {
	Classpath ClasspathConfig `yaml:"classpath"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       LogConfig       `yaml:"log"`

	// BaseDir anchors relative classpath roots. Set by Loader, never persisted.
	BaseDir string `yaml:"-"`
}

// ClasspathConfig configures the source-backed class loader
type ClasspathConfig struct {
	// Roots are source root directories or doublestar globs
	// (e.g. "modules/*/src/test/java")
	Roots []string `yaml:"roots"`
	// Exclude holds doublestar patterns matched against root-relative source paths
	Exclude []string `yaml:"exclude"`
	// Watch keeps the parse cache in sync with the roots
	Watch bool `yaml:"watch"`
	// Debounce is how long the watcher waits for more changes
	Debounce time.Duration `yaml:"debounce"`
}

// DiscoveryConfig configures selector resolution
type DiscoveryConfig struct {
	// Concurrency bounds concurrent resolutions per request
	Concurrency int `yaml:"concurrency"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Classpath: ClasspathConfig{
			Roots:    []string{"src/test/java"},
			Exclude:  nil,
			Watch:    false,
			Debounce: 100 * time.Millisecond,
		},
		Discovery: DiscoveryConfig{
			Concurrency: 8,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if len(c.Classpath.Roots) == 0 {
		return fmt.Errorf("classpath.roots is required")
	}
	for _, root := range c.Classpath.Roots {
		if root == "" {
			return fmt.Errorf("classpath.roots must not contain empty entries")
		}
	}
	for _, p := range c.Classpath.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("classpath.exclude has invalid pattern %q", p)
		}
	}
	if c.Classpath.Debounce < 0 {
		return fmt.Errorf("classpath.debounce must not be negative")
	}
	if c.Discovery.Concurrency < 1 {
		return fmt.Errorf("discovery.concurrency must be at least 1")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ResolvedRoots returns the root patterns with relative entries anchored at
// BaseDir. Without a BaseDir the roots are returned unchanged.
func (c *Config) ResolvedRoots() []string {
	out := make([]string, len(c.Classpath.Roots))
	for i, root := range c.Classpath.Roots {
		if c.BaseDir != "" && !filepath.IsAbs(root) {
			root = filepath.Join(c.BaseDir, root)
		}
		out[i] = root
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Classpath
	if len(other.Classpath.Roots) > 0 {
		c.Classpath.Roots = other.Classpath.Roots
	}
	if len(other.Classpath.Exclude) > 0 {
		c.Classpath.Exclude = other.Classpath.Exclude
	}
	if other.Classpath.Watch {
		c.Classpath.Watch = true
	}
	if other.Classpath.Debounce != 0 {
		c.Classpath.Debounce = other.Classpath.Debounce
	}

	// Discovery
	if other.Discovery.Concurrency != 0 {
		c.Discovery.Concurrency = other.Discovery.Concurrency
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}

	if other.BaseDir != "" {
		c.BaseDir = other.BaseDir
	}
}
