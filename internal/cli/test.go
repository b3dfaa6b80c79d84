package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specvital/bake/pkg/bake"
	"github.com/specvital/bake/pkg/console"
	"github.com/specvital/bake/pkg/fixture"
	"github.com/specvital/bake/pkg/introspect"
	"github.com/specvital/bake/pkg/render"
	"github.com/specvital/bake/pkg/resolver"
)

type testOptions struct {
	all       bool
	fixtures  string
	noFixture bool
	plugin    string
	prefix    string
	force     bool
	dryRun    bool
	lifecycle string
	strict    bool
}

// TestCmd creates the `bake test` command.
func TestCmd(g *globalOptions) *cobra.Command {
	o := &testOptions{}

	cmd := &cobra.Command{
		Use:   "test [type] [name]",
		Short: "Bake a test case skeleton",
		Long: `Bake the test case skeleton for a class.

Without arguments the supported class types are listed; with a type only,
the classes of that type are listed.

Examples:
  bake test Table Articles
  bake test Controller Admin/Posts
  bake test table Blog.Comments
  bake test Table --all`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := bake.Request{
				Plugin:    o.plugin,
				Prefix:    o.prefix,
				Fixtures:  o.fixtures,
				All:       o.all,
				NoFixture: o.noFixture,
				DryRun:    o.dryRun,
			}
			if len(args) > 0 {
				req.Type = args[0]
			}
			if len(args) > 1 {
				req.Name = args[1]
			}
			return runTest(cmd, g, o, req)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&o.all, "all", false, "bake a test case for every class of the type")
	flags.StringVar(&o.fixtures, "fixtures", "", "comma separated fixtures to use instead of discovered ones")
	flags.BoolVar(&o.noFixture, "no-fixture", false, "do not generate a fixtures property")
	flags.StringVarP(&o.plugin, "plugin", "p", "", "plugin to bake into")
	flags.StringVar(&o.prefix, "prefix", "", "controller routing prefix, e.g. Admin")
	flags.BoolVarP(&o.force, "force", "f", false, "overwrite existing files without asking")
	flags.BoolVar(&o.dryRun, "dry-run", false, "print test cases instead of writing them")
	flags.StringVar(&o.lifecycle, "lifecycle", "", "include or exclude framework lifecycle methods (default from config)")
	flags.BoolVar(&o.strict, "strict", false, "fail when a class type is not supported")

	return cmd
}

func runTest(cmd *cobra.Command, g *globalOptions, o *testOptions, req bake.Request) error {
	p, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}

	lifecycle := p.config.Lifecycle
	if o.lifecycle != "" {
		lifecycle = o.lifecycle
	}
	policy, err := introspect.ParseLifecyclePolicy(lifecycle)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	defer p.Close()
	if err := p.buildIndex(cmd.Context(), g, false); err != nil {
		return err
	}

	out := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr(),
		console.WithInput(cmd.InOrStdin(), console.IsTerminal(cmd.InOrStdin())),
	)
	paths := p.config.Paths(p.root)

	orc := bake.New(bake.Deps{
		Resolver:   resolver.New(p.config.Namespace, paths),
		Classes:    p.index,
		Discoverer: bake.DirDiscoverer{Roots: paths},
		Fixtures:   fixture.NewCollector(p.index, p.config.Namespace, fixture.WithLogger(p.logger)),
		Renderer:   render.New(render.WithOverrideDir(p.config.TemplatesDir(p.root))),
		Writer:     console.NewFileWriter(out, o.force),
		Console:    out,
	}, bake.WithLifecyclePolicy(policy), bake.WithLogger(p.logger))

	report, err := orc.Run(cmd.Context(), req)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	for _, res := range report.Skipped() {
		out.Warn(fmt.Sprintf("Skipped: %v", res.Err))
	}
	if report.Aborted() {
		out.Warn(fmt.Sprintf("Stopped; %d remaining test cases were not written", report.Remaining()))
	}
	if failed := report.Failed(); len(failed) > 0 {
		return &ExitError{
			Code: ExitWriteFailed,
			Err:  fmt.Errorf("%d of %d test cases could not be written", len(failed), len(report.Results)),
		}
	}
	if o.strict && len(report.Skipped()) > 0 {
		return &ExitError{
			Code: ExitSkipped,
			Err:  fmt.Errorf("%d test cases skipped", len(report.Skipped())),
		}
	}
	return nil
}
