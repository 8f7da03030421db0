package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	WanderlyVersion, WanderlyCommit, WanderlyDate string
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display version, commit hash, build date, and other build information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wanderly version: %s\n", WanderlyVersion)
		fmt.Fprintf(out, "Commit: %s\n", WanderlyCommit)
		fmt.Fprintf(out, "Built: %s\n", WanderlyDate)
	},
}

func init() {
	rootCommand.AddCommand(versionCommand)
}
