package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "App", cfg.Namespace)
	assert.Equal(t, "src", cfg.Src)
	assert.Equal(t, "tests", cfg.Tests)
	assert.Equal(t, "plugins", cfg.PluginsDir)
	assert.Equal(t, "include", cfg.Lifecycle)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, ".bake/cache.db", cfg.Cache.Path)
}

func TestLoad_File(t *testing.T) {
	root := writeConfig(t, `
namespace: MyApp
src: lib
plugins:
  Blog: vendor/acme/blog
  Admin: plugins/Admin
exclude:
  - "**/Legacy/**"
workers: 4
lifecycle: exclude
cache:
  enabled: false
templates: .bake/templates
`)

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "MyApp", cfg.Namespace)
	assert.Equal(t, "lib", cfg.Src)
	assert.Equal(t, "tests", cfg.Tests)
	assert.Equal(t, map[string]string{"Blog": "vendor/acme/blog", "Admin": "plugins/Admin"}, cfg.Plugins)
	assert.Equal(t, []string{"**/Legacy/**"}, cfg.Exclude)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "exclude", cfg.Lifecycle)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, ".bake/cache.db", cfg.Cache.Path)
	assert.Equal(t, filepath.Join(root, ".bake", "templates"), cfg.TemplatesDir(root))
	assert.Equal(t, []string{"lib", "plugins/Admin/src", "vendor/acme/blog/src", "plugins"}, cfg.SourceDirs())
	assert.Len(t, cfg.IndexOptions(), 3)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad yaml",
			content: "namespace: [unclosed",
			wantErr: "failed to parse config file",
		},
		{
			name:    "bad lifecycle",
			content: "lifecycle: sometimes",
			wantErr: "lifecycle: invalid value: sometimes (expected: include or exclude)",
		},
		{
			name:    "negative workers",
			content: "workers: -1",
			wantErr: "workers: out of range: -1",
		},
		{
			name:    "empty plugin path",
			content: "plugins:\n  Blog: \"\"",
			wantErr: "plugins.Blog: empty path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Unreadable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, FileName), 0o755))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.Plugins = map[string]string{"Blog": "vendor/acme/blog"}

	paths := cfg.Paths("/app")

	src, err := paths.SrcRoot("")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/app/src"), src)

	tests, err := paths.TestsRoot("Blog")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/app/vendor/acme/blog/tests"), tests)

	tests, err = paths.TestsRoot("Other")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/app/plugins/Other/tests"), tests)
}

func TestCachePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/app", ".bake", "cache.db"), cfg.CachePath("/app"))

	cfg.Cache.Path = "/var/cache/bake.db"
	assert.Equal(t, "/var/cache/bake.db", cfg.CachePath("/app"))
}
