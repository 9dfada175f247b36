package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ContactPort/internal/core"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported source formats",
	Long: `Formats lists every source format this build can convert, grouped by
vendor. Pass a format key to 'convert --format' to select one.`,
	RunE: runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	for _, group := range core.Groups() {
		fmt.Fprintf(w, "%s:\n", group)
		for _, f := range core.ByGroup(group) {
			fmt.Fprintf(w, "  %s\t%s\n", f.Key, f.Description)
		}
	}

	return w.Flush()
}
