package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnknownPlugin is returned when a plugin has no known location.
var ErrUnknownPlugin = errors.New("resolver: unknown plugin")

// DirPaths resolves application and plugin directories from a project root.
type DirPaths struct {
	// Root is the application root directory.
	Root string
	// Src is the application source directory, relative to Root.
	Src string
	// Tests is the application tests directory, relative to Root.
	Tests string
	// Plugins maps plugin names to directories, relative to Root or absolute.
	Plugins map[string]string
	// PluginsDir is searched for plugins that are not listed in Plugins.
	PluginsDir string
}

// PluginRoot returns the directory of a plugin.
func (p *DirPaths) PluginRoot(plugin string) (string, error) {
	if dir, ok := p.Plugins[plugin]; ok {
		return p.abs(dir), nil
	}
	if p.PluginsDir == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlugin, plugin)
	}
	return filepath.Join(p.abs(p.PluginsDir), filepath.FromSlash(plugin)), nil
}

// TestsRoot implements Paths.
func (p *DirPaths) TestsRoot(plugin string) (string, error) {
	if plugin == "" {
		return p.abs(p.Tests), nil
	}
	dir, err := p.PluginRoot(plugin)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tests"), nil
}

// SrcRoot returns the source directory of the application or a plugin.
func (p *DirPaths) SrcRoot(plugin string) (string, error) {
	if plugin == "" {
		return p.abs(p.Src), nil
	}
	dir, err := p.PluginRoot(plugin)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "src"), nil
}

func (p *DirPaths) abs(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.Root, filepath.FromSlash(dir))
}
