package introspect_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specvital/bake/pkg/domain"
	"github.com/specvital/bake/pkg/introspect"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func tableSource(name string) string {
	return "<?php\nnamespace App\\Model\\Table;\n\nuse Cake\\ORM\\Table;\n\nclass " + name + " extends Table\n{\n}\n"
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]domain.ClassInfo
	loads   int
}

func (c *memoryCache) key(path string, size int64, modTime time.Time) string {
	return fmt.Sprintf("%s|%d|%d", path, size, modTime.UnixNano())
}

func (c *memoryCache) Load(path string, size int64, modTime time.Time) ([]domain.ClassInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	classes, ok := c.entries[c.key(path, size, modTime)]
	if ok {
		c.loads++
	}
	return classes, ok
}

func (c *memoryCache) Store(path string, size int64, modTime time.Time, classes []domain.ClassInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string][]domain.ClassInfo)
	}
	c.entries[c.key(path, size, modTime)] = classes
	return nil
}

func TestBuild(t *testing.T) {
	t.Run("should return empty index for empty directory", func(t *testing.T) {
		ix, err := introspect.Build(context.Background(), t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, ix.Classes())
		assert.Equal(t, 0, ix.Stats.FilesScanned)
	})

	t.Run("should index classes sorted by path", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"src/Model/Table/UsersTable.php":    tableSource("UsersTable"),
			"src/Model/Table/ArticlesTable.php": tableSource("ArticlesTable"),
			"src/Model/Table/CommentsTable.php": tableSource("CommentsTable"),
		})

		ix, err := introspect.Build(context.Background(), root, introspect.WithWorkers(2))
		require.NoError(t, err)

		var names []string
		for _, c := range ix.Classes() {
			names = append(names, c.ShortName())
		}
		assert.Equal(t, []string{"ArticlesTable", "CommentsTable", "UsersTable"}, names)
		assert.Equal(t, 3, ix.Stats.FilesScanned)
		assert.Equal(t, 3, ix.Stats.FilesParsed)
		assert.Equal(t, "src/Model/Table/ArticlesTable.php", ix.Classes()[0].File)
	})

	t.Run("should skip vendor and excluded paths", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"src/Model/Table/UsersTable.php":      tableSource("UsersTable"),
			"vendor/cakephp/Table.php":            tableSource("VendorTable"),
			"src/Model/Table/Legacy/OldTable.php": tableSource("OldTable"),
			"src/README.md":                       "# not php",
		})

		ix, err := introspect.Build(context.Background(), root,
			introspect.WithExcludePatterns([]string{"src/**/Legacy"}),
		)
		require.NoError(t, err)
		require.Len(t, ix.Classes(), 1)
		assert.Equal(t, `App\Model\Table\UsersTable`, ix.Classes()[0].Name)
	})

	t.Run("should restrict to source dirs", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"src/Model/Table/UsersTable.php":    tableSource("UsersTable"),
			"tests/TestCase/UsersTableTest.php": "<?php\nclass UsersTableTest {}\n",
		})

		ix, err := introspect.Build(context.Background(), root, introspect.WithSourceDirs("src", "missing"))
		require.NoError(t, err)
		require.Len(t, ix.Classes(), 1)
		assert.Empty(t, ix.Errors)
	})

	t.Run("should skip files over max size", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"src/Small.php": "<?php\nclass Small {}\n",
			"src/Large.php": "<?php\nclass Large {}\n// " + string(make([]byte, 512)),
		})

		ix, err := introspect.Build(context.Background(), root, introspect.WithMaxFileSize(100))
		require.NoError(t, err)
		require.Len(t, ix.Classes(), 1)
		assert.Equal(t, "Small", ix.Classes()[0].Name)
	})

	t.Run("should serve unchanged files from cache", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"src/Model/Table/UsersTable.php": tableSource("UsersTable"),
		})
		cache := &memoryCache{}

		first, err := introspect.Build(context.Background(), root, introspect.WithCache(cache))
		require.NoError(t, err)
		assert.Equal(t, 1, first.Stats.FilesParsed)

		second, err := introspect.Build(context.Background(), root, introspect.WithCache(cache))
		require.NoError(t, err)
		assert.Equal(t, 1, second.Stats.FilesCached)
		assert.Equal(t, 0, second.Stats.FilesParsed)
		assert.Equal(t, first.Classes(), second.Classes())
	})

	t.Run("should report cancellation", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{"src/A.php": "<?php class A {}"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ix, err := introspect.Build(ctx, root)
		assert.ErrorIs(t, err, introspect.ErrBuildCancelled)
		assert.NotNil(t, ix)
	})
}

func TestIndex_Lookup(t *testing.T) {
	ix := introspect.NewIndex("", []domain.ClassInfo{
		{Name: `App\Model\Table\PostsTable`},
		{Name: `App\Model\Table\PostsTable`, File: "duplicate.php"},
	})

	info, ok := ix.Lookup(`\app\model\table\poststable`)
	require.True(t, ok)
	assert.Empty(t, info.File)

	_, ok = ix.Lookup(`App\Model\Table\MissingTable`)
	assert.False(t, ok)

	var nilIndex *introspect.Index
	_, ok = nilIndex.Lookup("X")
	assert.False(t, ok)
}

func TestIndex_Extends(t *testing.T) {
	ix := introspect.NewIndex("", []domain.ClassInfo{
		{Name: `App\Model\Table\AppTable`, Parent: `Cake\ORM\Table`},
		{Name: `App\Model\Table\PostsTable`, Parent: `App\Model\Table\AppTable`},
		{Name: `App\Loop\A`, Parent: `App\Loop\B`},
		{Name: `App\Loop\B`, Parent: `App\Loop\A`},
	})

	assert.True(t, ix.Extends(`App\Model\Table\PostsTable`, `Cake\ORM\Table`))
	assert.True(t, ix.Extends(`App\Model\Table\PostsTable`, `\Cake\ORM\Table`))
	assert.False(t, ix.Extends(`App\Model\Table\PostsTable`, `Cake\Controller\Controller`))
	assert.False(t, ix.Extends(`App\Loop\A`, `Cake\ORM\Table`))
	assert.False(t, ix.Extends(`App\Unknown`, `Cake\ORM\Table`))
}

func TestDiscoverClassNames(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Model/Table/UsersTable.php":    tableSource("UsersTable"),
		"Model/Table/ArticlesTable.php": tableSource("ArticlesTable"),
		"Model/Table/notes.txt":         "",
		"Model/Table/Sub/DeepTable.php": tableSource("DeepTable"),
	})

	names, err := introspect.DiscoverClassNames(root, "Model/Table")
	require.NoError(t, err)
	assert.Equal(t, []string{"ArticlesTable", "UsersTable"}, names)

	names, err = introspect.DiscoverClassNames(root, "Shell/Task")
	require.NoError(t, err)
	assert.Empty(t, names)
}
