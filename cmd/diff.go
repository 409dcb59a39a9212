package cmd

import (
	"fmt"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/diff"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <original> <revised>",
	Short: "Print the unified diff of two files",
	Long:  `Print the unified diff of two files the way suggestions are shown. Identical files print nothing.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")

		original, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		revised, err := readSource(args[1], cmd.InOrStdin())
		if err != nil {
			return err
		}

		unified := diff.UnifiedWithLabels(original, revised, args[0], args[1])
		if !plain {
			unified = diff.Colorize(unified)
		}
		fmt.Fprint(cmd.OutOrStdout(), unified)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().Bool("plain", false, "Print without colors")
}
