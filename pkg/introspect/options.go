package introspect

import (
	"log/slog"
	"time"
)

// Options configures index building.
type Options struct {
	// Cache stores parsed classes between runs. Nil disables caching.
	Cache Cache

	// ExcludePatterns are doublestar globs, relative to the index root,
	// of files and directories to skip. Combined with DefaultSkipPatterns.
	ExcludePatterns []string

	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger

	// MaxFileSize is the maximum file size in bytes to parse.
	// Larger files are skipped.
	MaxFileSize int64

	// SourceDirs are the directories, relative to the index root, that are
	// walked for PHP files. Empty means the root itself.
	SourceDirs []string

	// Timeout is the maximum duration for the whole build.
	// Zero or negative values use DefaultTimeout.
	Timeout time.Duration

	// Workers specifies the number of concurrent file parsers.
	// Zero or negative values use runtime.GOMAXPROCS(0).
	Workers int
}

// Option is a functional option for Build.
type Option func(*Options)

// WithWorkers sets the number of concurrent file parsers.
// Negative values are ignored.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.Workers = n
		}
	}
}

// WithTimeout sets the build timeout.
// Negative values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.Timeout = d
		}
	}
}

// WithExcludePatterns adds glob patterns to skip during file discovery.
func WithExcludePatterns(patterns []string) Option {
	return func(o *Options) {
		o.ExcludePatterns = patterns
	}
}

// WithMaxFileSize sets the maximum file size to parse.
func WithMaxFileSize(size int64) Option {
	return func(o *Options) {
		if size >= 0 {
			o.MaxFileSize = size
		}
	}
}

// WithSourceDirs restricts discovery to the given directories.
func WithSourceDirs(dirs ...string) Option {
	return func(o *Options) {
		o.SourceDirs = dirs
	}
}

// WithCache sets the parse cache.
func WithCache(c Cache) Option {
	return func(o *Options) {
		o.Cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func applyDefaults(opts *Options) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.SourceDirs) == 0 {
		opts.SourceDirs = []string{"."}
	}
}
