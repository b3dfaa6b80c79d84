package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specvital/bake/pkg/cache"
	"github.com/specvital/bake/pkg/domain"
	"github.com/specvital/bake/pkg/introspect"
)

var (
	_ introspect.Cache = (*cache.Memory)(nil)
	_ introspect.Cache = (*cache.SQLite)(nil)
)

var articles = []domain.ClassInfo{
	{
		Name:   `App\Model\Table\ArticlesTable`,
		File:   "src/Model/Table/ArticlesTable.php",
		Kind:   domain.KindClass,
		Parent: `Cake\ORM\Table`,
		Methods: []domain.Method{
			{Name: "initialize", Visibility: domain.VisibilityPublic},
			{Name: "helper", Visibility: domain.VisibilityProtected, Static: true},
		},
		Associations: []domain.Association{
			{Type: domain.BelongsToMany, Alias: "Tags", Through: "ArticlesTags"},
		},
		Traits: []string{`App\Model\PublishableTrait`},
	},
}

func openSQLite(t *testing.T) *cache.SQLite {
	t.Helper()
	c, err := cache.Open(filepath.Join(t.TempDir(), ".bake", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCaches(t *testing.T) {
	impls := map[string]func(t *testing.T) introspect.Cache{
		"memory": func(t *testing.T) introspect.Cache { return cache.NewMemory() },
		"sqlite": func(t *testing.T) introspect.Cache { return openSQLite(t) },
	}
	modTime := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)

	for name, newCache := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("miss on empty cache", func(t *testing.T) {
				c := newCache(t)
				_, ok := c.Load("a.php", 10, modTime)
				assert.False(t, ok)
			})

			t.Run("round trip", func(t *testing.T) {
				c := newCache(t)
				require.NoError(t, c.Store("a.php", 10, modTime, articles))

				got, ok := c.Load("a.php", 10, modTime)
				require.True(t, ok)
				assert.Equal(t, articles, got)
			})

			t.Run("changed file misses", func(t *testing.T) {
				c := newCache(t)
				require.NoError(t, c.Store("a.php", 10, modTime, articles))

				_, ok := c.Load("a.php", 11, modTime)
				assert.False(t, ok)
				_, ok = c.Load("a.php", 10, modTime.Add(time.Second))
				assert.False(t, ok)
			})

			t.Run("store replaces", func(t *testing.T) {
				c := newCache(t)
				require.NoError(t, c.Store("a.php", 10, modTime, articles))
				require.NoError(t, c.Store("a.php", 12, modTime, []domain.ClassInfo{}))

				got, ok := c.Load("a.php", 12, modTime)
				require.True(t, ok)
				assert.Empty(t, got)
			})
		})
	}
}

func TestSQLite_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	modTime := time.Unix(1700000000, 0)

	c, err := cache.Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Store("a.php", 10, modTime, articles))
	require.NoError(t, c.Close())

	c, err = cache.Open(path)
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Load("a.php", 10, modTime)
	require.True(t, ok)
	assert.Equal(t, articles, got)

	n, err := c.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, c.Clear(context.Background()))
	n, err = c.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_ConcurrentStores(t *testing.T) {
	c := openSQLite(t)
	modTime := time.Unix(1700000000, 0)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := filepath.Join("src", string(rune('a'+i))+".php")
			assert.NoError(t, c.Store(path, int64(i), modTime, articles))
		}()
	}
	wg.Wait()

	n, err := c.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestMemory_Clear(t *testing.T) {
	c := cache.NewMemory()
	require.NoError(t, c.Store("a.php", 1, time.Unix(1, 0), articles))
	require.NoError(t, c.Store("b.php", 1, time.Unix(1, 0), nil))
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Zero(t, c.Size())
}

func TestBuildUsesSQLiteCache(t *testing.T) {
	root := t.TempDir()
	writePHP(t, root, "src/Model/Table/ArticlesTable.php", `<?php
namespace App\Model\Table;

class ArticlesTable extends \Cake\ORM\Table
{
    public function findPublished() {}
}
`)
	c := openSQLite(t)

	first, err := introspect.Build(context.Background(), root, introspect.WithCache(c))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stats.FilesParsed)

	second, err := introspect.Build(context.Background(), root, introspect.WithCache(c))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Stats.FilesCached)
	assert.Equal(t, first.Classes(), second.Classes())
}

func writePHP(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
