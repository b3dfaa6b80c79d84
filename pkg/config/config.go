// Package config loads the project settings from .bake.yml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/specvital/bake/pkg/introspect"
	"github.com/specvital/bake/pkg/resolver"
)

// FileName is the configuration file looked up at the project root.
const FileName = ".bake.yml"

// Defaults applied to fields left empty.
const (
	DefaultSrc        = "src"
	DefaultTests      = "tests"
	DefaultPluginsDir = "plugins"
	DefaultCachePath  = ".bake/cache.db"
)

// Config is the content of .bake.yml.
type Config struct {
	// Namespace is the application root namespace.
	Namespace string `yaml:"namespace"`
	// Src is the application source directory.
	Src string `yaml:"src"`
	// Tests is the application tests directory.
	Tests string `yaml:"tests"`
	// Plugins maps plugin names to their directories.
	Plugins map[string]string `yaml:"plugins"`
	// PluginsDir holds plugins not listed in Plugins.
	PluginsDir string `yaml:"plugins_dir"`
	// Exclude lists doublestar globs of files left out of the class index.
	Exclude []string `yaml:"exclude"`
	// Workers bounds concurrent parsing. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Lifecycle is "include" or "exclude".
	Lifecycle string `yaml:"lifecycle"`
	// Cache configures the parse cache.
	Cache CacheConfig `yaml:"cache"`
	// Templates is a directory of template overrides.
	Templates string `yaml:"templates"`
}

// CacheConfig configures the parse cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ValidationError is a configuration value that cannot be used.
type ValidationError struct {
	Field    string
	Message  string
	Expected string
}

func (e ValidationError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("%s: %s (expected: %s)", e.Field, e.Message, e.Expected)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{Cache: CacheConfig{Enabled: true}}
	c.applyDefaults()
	return c
}

// LoadConfig reads path. A missing file yields Default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Cache is on unless the file turns it off.
	config := Config{Cache: CacheConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	if errs := config.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config file %s: %w", path, errs[0])
	}
	return &config, nil
}

// Load reads .bake.yml from the project root.
func Load(root string) (*Config, error) {
	return LoadConfig(filepath.Join(root, FileName))
}

func (c *Config) applyDefaults() {
	if c.Namespace == "" {
		c.Namespace = resolver.DefaultNamespace
	}
	if c.Src == "" {
		c.Src = DefaultSrc
	}
	if c.Tests == "" {
		c.Tests = DefaultTests
	}
	if c.PluginsDir == "" {
		c.PluginsDir = DefaultPluginsDir
	}
	if c.Lifecycle == "" {
		c.Lifecycle = string(introspect.LifecycleInclude)
	}
	if c.Cache.Path == "" {
		c.Cache.Path = DefaultCachePath
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if _, err := introspect.ParseLifecyclePolicy(c.Lifecycle); err != nil {
		errs = append(errs, ValidationError{
			Field:    "lifecycle",
			Message:  fmt.Sprintf("invalid value: %s", c.Lifecycle),
			Expected: "include or exclude",
		})
	}

	if c.Workers < 0 || c.Workers > introspect.MaxWorkers {
		errs = append(errs, ValidationError{
			Field:    "workers",
			Message:  fmt.Sprintf("out of range: %d", c.Workers),
			Expected: fmt.Sprintf("0..%d", introspect.MaxWorkers),
		})
	}

	for name, dir := range c.Plugins {
		if dir == "" {
			errs = append(errs, ValidationError{
				Field:   "plugins." + name,
				Message: "empty path",
			})
		}
	}

	return errs
}

// Paths returns the directory layout of the project rooted at root.
func (c *Config) Paths(root string) *resolver.DirPaths {
	return &resolver.DirPaths{
		Root:       root,
		Src:        c.Src,
		Tests:      c.Tests,
		Plugins:    c.Plugins,
		PluginsDir: c.PluginsDir,
	}
}

// SourceDirs lists the directories the class index is built from: the
// application sources, every configured plugin's src directory and the
// plugins directory. Files reachable twice are parsed once.
func (c *Config) SourceDirs() []string {
	var plugins []string
	for _, dir := range c.Plugins {
		plugins = append(plugins, filepath.ToSlash(filepath.Join(dir, "src")))
	}
	sort.Strings(plugins)

	dirs := append([]string{c.Src}, plugins...)
	return append(dirs, c.PluginsDir)
}

// IndexOptions returns the class index options for this configuration.
func (c *Config) IndexOptions() []introspect.Option {
	return []introspect.Option{
		introspect.WithWorkers(c.Workers),
		introspect.WithExcludePatterns(c.Exclude),
		introspect.WithSourceDirs(c.SourceDirs()...),
	}
}

// CachePath returns the absolute cache database path.
func (c *Config) CachePath(root string) string {
	if filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(root, filepath.FromSlash(c.Cache.Path))
}

// TemplatesDir returns the absolute template override directory, empty if unset.
func (c *Config) TemplatesDir(root string) string {
	if c.Templates == "" || filepath.IsAbs(c.Templates) {
		return c.Templates
	}
	return filepath.Join(root, filepath.FromSlash(c.Templates))
}
