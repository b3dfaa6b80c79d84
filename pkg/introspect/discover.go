package introspect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoverClassNames lists the class names found directly in a category
// directory: `<srcRoot>/<segment>/*.php`, sorted by file name.
// A missing directory yields an empty list.
func DiscoverClassNames(srcRoot, segment string) ([]string, error) {
	fsys := os.DirFS(srcRoot)
	pattern := path.Join(strings.Trim(segment, "/"), "*.php")

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("introspect: discover %s: %w", pattern, err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), ".php"))
	}
	sort.Strings(names)
	return names, nil
}
