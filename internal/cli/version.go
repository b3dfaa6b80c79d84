package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specvital/bake/internal/version"
)

// VersionCmd creates the `bake version` command.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
