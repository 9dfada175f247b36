package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ContactPort/internal/config"
	"github.com/JonMunkholm/ContactPort/internal/core"
	"github.com/JonMunkholm/ContactPort/internal/logging"
	"github.com/JonMunkholm/ContactPort/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and convert CSV files as they arrive",
	Long: `Watch monitors a directory for CSV files and converts each one once it
stops changing. Converted output lands in the output directory and
processed inputs move to the done directory (both created under the
watched directory unless absolute paths are given).

Runs until interrupted. Flags override the WATCH_* environment variables.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("format", core.DefaultFormatKey, "source format key (see 'contactport formats')")
	watchCmd.Flags().StringArray("topic", nil, "topic preference as NAME=OPT_IN or NAME=OPT_OUT (repeatable)")
	watchCmd.Flags().String("topics-file", "", "YAML file with topic preferences")
	watchCmd.Flags().String("output-dir", "", "directory for converted files (default: "+watch.DefaultOutputDir+")")
	watchCmd.Flags().String("done-dir", "", "directory for processed inputs (default: "+watch.DefaultDoneDir+")")
	watchCmd.Flags().Duration("debounce", 0, "quiet period before a file is converted (default: 2s)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Environment supplies defaults the same way the server gets them;
	// flags win when set.
	godotenv.Overload()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	formatKey, _ := cmd.Flags().GetString("format")
	topicFlags, _ := cmd.Flags().GetStringArray("topic")
	topicsFile, _ := cmd.Flags().GetString("topics-file")

	topics, err := collectTopics(topicsFile, topicFlags)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = cfg.Watch.OutputDir
	}
	doneDir, _ := cmd.Flags().GetString("done-dir")
	if doneDir == "" {
		doneDir = cfg.Watch.DoneDir
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if debounce == 0 {
		debounce = cfg.Watch.Debounce
	}

	w, err := watch.New(watch.Options{
		Dir:       args[0],
		OutputDir: outputDir,
		DoneDir:   doneDir,
		Debounce:  debounce,
		Convert: core.Options{
			Format: formatKey,
			Topics: topics,
		},
	})
	if err != nil {
		return err
	}

	if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("watcher stopped")
	return nil
}
