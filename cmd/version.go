package cmd

import (
	"fmt"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the version of Code Copilot`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Code Copilot v%s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
