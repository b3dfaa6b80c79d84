package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/specvital/bake/pkg/category"
	"github.com/specvital/bake/pkg/domain"
	"github.com/specvital/bake/pkg/introspect"
)

// IndexCmd creates the `bake index` command.
func IndexCmd(g *globalOptions) *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "List the classes found in the application sources",
		Long: `Build the class index and list the indexed classes per type.
Useful to check what test cases can be baked and which files fail to parse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.buildIndex(cmd.Context(), g, rebuild); err != nil {
				return err
			}

			printIndex(cmd.OutOrStdout(), p.index)
			if p.cache != nil {
				n, err := p.cache.Count(cmd.Context())
				if err != nil {
					return &ExitError{Code: ExitFailure, Err: err}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nCache: %d files in %s\n", n, p.config.CachePath(p.root))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "clear the parse cache before indexing")

	return cmd
}

func printIndex(w io.Writer, ix *introspect.Index) {
	byCategory := make(map[category.Name][]string)
	for _, info := range ix.Classes() {
		if info.Kind != domain.KindClass {
			continue
		}
		cat, ok := introspect.CategoryOf(ix, &info)
		if !ok {
			continue
		}
		byCategory[cat.Name] = append(byCategory[cat.Name], info.Name)
	}

	stats := ix.Stats
	fmt.Fprintf(w, "Indexed %d classes from %d files (%d cached, %d failed) in %s\n",
		stats.Classes, stats.FilesScanned, stats.FilesCached, stats.FilesFailed, stats.Duration.Round(time.Millisecond))

	for _, cat := range category.All() {
		names := byCategory[cat.Name]
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d):\n", cat.Name, len(names))
		for _, name := range names {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}

	if len(ix.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d):\n", len(ix.Errors))
		for _, e := range ix.Errors {
			fmt.Fprintf(w, "  %v\n", e)
		}
	}
}
