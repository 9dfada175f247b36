// Package main is the entry point for the contactport CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ContactPort/internal/core"
	_ "github.com/JonMunkholm/ContactPort/internal/core/formats" // Register all source formats
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the contactport CLI.
var rootCmd = &cobra.Command{
	Use:   "contactport",
	Short: "Convert audience exports into SES contact import files",
	Long: `contactport converts contact list exports (Mailchimp audience exports
and similar) into the CSV layout Amazon SES expects for contact list
imports.

Conversion streams row by row, so input size is bounded by disk rather
than memory. Topic preferences can be stamped onto every contact with
--topic flags or a YAML topics file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", core.FormatUserError(err))
		os.Exit(1)
	}
}
