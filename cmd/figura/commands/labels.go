package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tsawler/figura/classify"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List the figure classification labels",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		key := color.New(color.FgCyan)
		for _, l := range classify.Labels() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", key.Sprintf("%-20s", l.Key), l.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
