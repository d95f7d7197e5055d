package cmd

import (
	"fmt"

	"github.com/agentic-research/libcat/internal/version"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions VERSION...",
	Short: "Print version identifiers most recent first",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, v := range version.SortDescending(args) {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}
