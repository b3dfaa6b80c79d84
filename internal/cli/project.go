package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/specvital/bake/internal/logger"
	"github.com/specvital/bake/pkg/cache"
	"github.com/specvital/bake/pkg/config"
	"github.com/specvital/bake/pkg/introspect"
)

// project is a loaded application: its configuration and class index.
type project struct {
	root   string
	config *config.Config
	index  *introspect.Index
	logger *slog.Logger
	cache  *cache.SQLite
}

func (p *project) Close() {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			p.logger.Warn("failed to close parse cache", "error", err)
		}
	}
}

// loadConfig resolves the application root and reads its configuration.
func loadConfig(cmd *cobra.Command, g *globalOptions) (*project, error) {
	log := logger.Init(cmd.ErrOrStderr(), g.verbose)

	root := g.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to get working directory: %w", err)}
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, &ExitError{Code: ExitFailure, Err: fmt.Errorf("invalid root %s: %w", g.root, err)}
	}

	path := g.configPath
	var cfg *config.Config
	if path == "" {
		path = filepath.Join(root, config.FileName)
		cfg, err = config.Load(root)
	} else {
		cfg, err = config.LoadConfig(path)
	}
	if err != nil {
		return nil, &ExitError{Code: ExitFailure, Err: err}
	}
	log.Debug("configuration loaded", "root", root, "config", path, "namespace", cfg.Namespace)

	return &project{root: root, config: cfg, logger: log}, nil
}

// buildIndex parses the application sources into the class index.
// A cache that cannot be opened degrades to an in-memory one.
func (p *project) buildIndex(ctx context.Context, g *globalOptions, rebuild bool) error {
	opts := append(p.config.IndexOptions(), introspect.WithLogger(p.logger))

	if p.config.Cache.Enabled && !g.noCache {
		c, err := cache.Open(p.config.CachePath(p.root))
		if err != nil {
			p.logger.Warn("parse cache unavailable, using memory", "path", p.config.CachePath(p.root), "error", err)
			opts = append(opts, introspect.WithCache(cache.NewMemory()))
		} else {
			p.cache = c
			if rebuild {
				if err := c.Clear(ctx); err != nil {
					return &ExitError{Code: ExitFailure, Err: err}
				}
			}
			opts = append(opts, introspect.WithCache(c))
		}
	}

	ix, err := introspect.Build(ctx, p.root, opts...)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to build class index: %w", err)}
	}
	for _, e := range ix.Errors {
		p.logger.Warn("source file skipped", "path", e.Path, "phase", e.Phase, "error", e.Err)
	}
	p.index = ix
	return nil
}
