// Package introspect builds an in-memory index of the PHP classes of an
// application by parsing its sources with tree-sitter.
//
// The index stands in for runtime reflection: method lists, traits,
// parent classes and table associations are all read from the class
// declarations. An Index is immutable once built and safe for concurrent reads.
package introspect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/specvital/bake/pkg/domain"
)

const (
	// DefaultTimeout is the default build timeout.
	DefaultTimeout = 2 * time.Minute
	// MaxWorkers is the maximum number of concurrent parsers allowed.
	MaxWorkers = 1024
	// DefaultMaxFileSize is the default maximum size of a parsed file (2MB).
	DefaultMaxFileSize = 2 * 1024 * 1024
)

// DefaultSkipPatterns contains directory names that are never walked.
var DefaultSkipPatterns = []string{
	".git",
	"vendor",
	"node_modules",
	"tmp",
	"logs",
	"webroot",
	".bake",
}

var (
	// ErrBuildCancelled is returned when building is cancelled via context.
	ErrBuildCancelled = errors.New("introspect: build cancelled")
	// ErrBuildTimeout is returned when building exceeds the timeout.
	ErrBuildTimeout = errors.New("introspect: build timeout")
)

// Parse phases recorded on ParseError.
const (
	PhaseDiscovery = "discovery"
	PhaseParsing   = "parsing"
)

// Cache stores parse results keyed by file identity.
// A changed size or modification time invalidates an entry.
type Cache interface {
	Load(path string, size int64, modTime time.Time) ([]domain.ClassInfo, bool)
	Store(path string, size int64, modTime time.Time, classes []domain.ClassInfo) error
}

// ParseError is a non-fatal error recorded while building the index.
type ParseError struct {
	// Err is the underlying error.
	Err error
	// Path is the file the error occurred in, empty for non-file errors.
	Path string
	// Phase is PhaseDiscovery or PhaseParsing.
	Phase string
}

// Error implements the error interface.
func (e ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Phase, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ParseError) Unwrap() error {
	return e.Err
}

// Stats summarises a build.
type Stats struct {
	FilesScanned int
	FilesParsed  int
	FilesCached  int
	FilesFailed  int
	Classes      int
	Duration     time.Duration
}

// Index is the set of classes declared in an application's sources.
type Index struct {
	// Root is the directory file paths are relative to.
	Root string
	// Errors contains non-fatal errors encountered while building.
	Errors []ParseError
	// Stats describes the build.
	Stats Stats

	classes []domain.ClassInfo
	byName  map[string]int
}

// NewIndex creates an index over already parsed classes.
// When two classes share a name the first one wins.
func NewIndex(root string, classes []domain.ClassInfo) *Index {
	ix := &Index{
		Root:    root,
		classes: classes,
		byName:  make(map[string]int, len(classes)),
	}
	for i, c := range classes {
		key := strings.ToLower(strings.TrimPrefix(c.Name, `\`))
		if _, exists := ix.byName[key]; !exists {
			ix.byName[key] = i
		}
	}
	ix.Stats.Classes = len(classes)
	return ix
}

// Lookup finds a class by fully-qualified name. PHP class names are case-insensitive.
func (ix *Index) Lookup(fqn string) (*domain.ClassInfo, bool) {
	if ix == nil {
		return nil, false
	}
	i, ok := ix.byName[strings.ToLower(strings.TrimPrefix(fqn, `\`))]
	if !ok {
		return nil, false
	}
	return &ix.classes[i], true
}

// Classes returns all classes ordered by file path and declaration order.
func (ix *Index) Classes() []domain.ClassInfo {
	if ix == nil {
		return nil
	}
	out := make([]domain.ClassInfo, len(ix.classes))
	copy(out, ix.classes)
	return out
}

// Extends reports whether fqn is base or has base among its known ancestors.
// Ancestors outside the index end the walk.
func (ix *Index) Extends(fqn, base string) bool {
	base = strings.TrimPrefix(base, `\`)
	seen := make(map[string]bool)
	for name := strings.TrimPrefix(fqn, `\`); name != ""; {
		if strings.EqualFold(name, base) {
			return true
		}
		key := strings.ToLower(name)
		if seen[key] {
			return false
		}
		seen[key] = true
		info, ok := ix.Lookup(name)
		if !ok {
			return false
		}
		name = info.Parent
	}
	return false
}

type candidate struct {
	rel     string
	size    int64
	modTime time.Time
}

type builder struct {
	root    string
	options *Options
}

// Build walks root, parses every PHP file and returns the index.
//
// Parse failures do not abort the build; they are recorded on Index.Errors.
// The returned error is only set on cancellation or timeout, in which case
// the partial index is returned as well.
func Build(ctx context.Context, root string, opts ...Option) (*Index, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	applyDefaults(options)

	b := &builder{root: root, options: options}
	return b.build(ctx)
}

func (b *builder) build(ctx context.Context) (*Index, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, b.options.Timeout)
	defer cancel()

	var errs []ParseError
	files, discoveryErrs := b.discover(ctx)
	for _, err := range discoveryErrs {
		errs = append(errs, ParseError{Err: err, Phase: PhaseDiscovery})
	}

	classes, stats, parseErrs := b.parseParallel(ctx, files)
	errs = append(errs, parseErrs...)

	ix := NewIndex(b.root, classes)
	ix.Errors = errs
	stats.FilesScanned = len(files)
	stats.Classes = len(classes)
	stats.Duration = time.Since(start)
	ix.Stats = stats

	b.options.Logger.Debug("class index built",
		"root", b.root,
		"files", stats.FilesScanned,
		"cached", stats.FilesCached,
		"failed", stats.FilesFailed,
		"classes", stats.Classes,
		"duration", stats.Duration,
	)

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ix, ErrBuildTimeout
		}
		if errors.Is(err, context.Canceled) {
			return ix, ErrBuildCancelled
		}
	}
	return ix, nil
}

// discover walks the source directories for PHP files.
// Paths are relative to the root and slash separated.
func (b *builder) discover(ctx context.Context) ([]candidate, []error) {
	skipSet := buildSkipSet(DefaultSkipPatterns)

	var (
		files []candidate
		errs  []error
		seen  = make(map[string]bool)
	)

	for _, dir := range b.options.SourceDirs {
		start := dir
		if !filepath.IsAbs(start) {
			start = filepath.Join(b.root, filepath.FromSlash(dir))
		}
		if _, err := os.Stat(start); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("stat source dir %s: %w", dir, err))
			}
			continue
		}

		err := filepath.WalkDir(start, func(path string, d fs.DirEntry, walkErr error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if walkErr != nil {
				errs = append(errs, fmt.Errorf("access error at %s: %w", path, walkErr))
				return nil
			}

			rel, err := filepath.Rel(b.root, path)
			if err != nil {
				errs = append(errs, fmt.Errorf("compute relative path for %s: %w", path, err))
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path != start && (skipSet[d.Name()] || matchesAnyPattern(rel, b.options.ExcludePatterns)) {
					return filepath.SkipDir
				}
				return nil
			}

			if !strings.EqualFold(filepath.Ext(path), ".php") || seen[rel] {
				return nil
			}
			if matchesAnyPattern(rel, b.options.ExcludePatterns) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to get file info for %s: %w", path, err))
				return nil
			}
			if b.options.MaxFileSize > 0 && info.Size() > b.options.MaxFileSize {
				b.options.Logger.Debug("skipping large file", "path", rel, "size", info.Size())
				return nil
			}

			seen[rel] = true
			files = append(files, candidate{rel: rel, size: info.Size(), modTime: info.ModTime()})
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			errs = append(errs, err)
		}
	}

	return files, errs
}

type parsedFile struct {
	rel     string
	classes []domain.ClassInfo
}

func (b *builder) parseParallel(ctx context.Context, files []candidate) ([]domain.ClassInfo, Stats, []ParseError) {
	var stats Stats
	if len(files) == 0 {
		return nil, stats, nil
	}

	workers := b.options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, gCtx := errgroup.WithContext(ctx)

	var (
		mu      sync.Mutex
		results = make([]parsedFile, 0, len(files))
		errs    []ParseError
	)

	for _, file := range files {
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			classes, cached, parseErr := b.parseFile(gCtx, file)

			mu.Lock()
			defer mu.Unlock()

			if parseErr != nil {
				errs = append(errs, *parseErr)
				stats.FilesFailed++
				return nil
			}
			if cached {
				stats.FilesCached++
			} else {
				stats.FilesParsed++
			}
			results = append(results, parsedFile{rel: file.rel, classes: classes})
			return nil
		})
	}

	_ = g.Wait()

	// Goroutines finish in arbitrary order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].rel < results[j].rel
	})
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].Path < errs[j].Path
	})

	var classes []domain.ClassInfo
	for _, r := range results {
		classes = append(classes, r.classes...)
	}
	return classes, stats, errs
}

func (b *builder) parseFile(ctx context.Context, file candidate) ([]domain.ClassInfo, bool, *ParseError) {
	if err := ctx.Err(); err != nil {
		return nil, false, &ParseError{Err: err, Path: file.rel, Phase: PhaseParsing}
	}

	if b.options.Cache != nil {
		if classes, ok := b.options.Cache.Load(file.rel, file.size, file.modTime); ok {
			return classes, true, nil
		}
	}

	content, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(file.rel)))
	if err != nil {
		return nil, false, &ParseError{Err: fmt.Errorf("read file: %w", err), Path: file.rel, Phase: PhaseParsing}
	}

	classes, err := ParseSource(ctx, content, file.rel)
	if err != nil {
		return nil, false, &ParseError{Err: err, Path: file.rel, Phase: PhaseParsing}
	}

	if b.options.Cache != nil {
		if err := b.options.Cache.Store(file.rel, file.size, file.modTime, classes); err != nil {
			b.options.Logger.Debug("cache store failed", "path", file.rel, "error", err)
		}
	}
	return classes, false, nil
}

func buildSkipSet(patterns []string) map[string]bool {
	skipSet := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		skipSet[p] = true
	}
	return skipSet
}

func matchesAnyPattern(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
