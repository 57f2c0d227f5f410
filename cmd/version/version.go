package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farmwatch/farmwatch/internal/buildinfo"
)

// Command creates a new cobra.Command that prints build information.
func Command(info *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "FarmWatch %s\n", info.GetVersion())
			fmt.Fprintf(out, "Build date: %s\n", info.GetBuildDate())
			fmt.Fprintf(out, "System ID:  %s\n", info.GetSystemID())
		},
	}
}
