// Package cli implements the bake command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/specvital/bake/internal/version"
)

// Exit codes.
const (
	ExitOK = iota
	// ExitFailure covers configuration, index and usage errors.
	ExitFailure
	// ExitSkipped is returned in strict mode when a bake was skipped.
	ExitSkipped
	// ExitWriteFailed is returned when a test case could not be written.
	ExitWriteFailed
)

// ExitError carries the exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	root       string
	configPath string
	noCache    bool
	verbose    bool
}

// NewRootCmd creates the bake command tree.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "bake",
		Short:   "Generate PHPUnit test case skeletons for CakePHP applications",
		Version: version.String(),
		Long: `bake reads the PHP sources of a CakePHP application and generates
test case skeletons: fixtures from table associations, a subject built in
setUp and one incomplete test per method.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.root, "root", "", "application root directory (default: current directory)")
	flags.StringVar(&g.configPath, "config", "", "config file (default: <root>/.bake.yml)")
	flags.BoolVar(&g.noCache, "no-cache", false, "parse every source file, ignoring the parse cache")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log debug output")

	rootCmd.AddCommand(TestCmd(g))
	rootCmd.AddCommand(IndexCmd(g))
	rootCmd.AddCommand(VersionCmd())

	return rootCmd
}

// Run executes the command line and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	fmt.Fprintln(stderr, "Error:", err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
