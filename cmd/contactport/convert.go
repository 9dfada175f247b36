package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ContactPort/internal/core"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.csv>",
	Short: "Convert a contact export to an SES import file",
	Long: `Convert reads a contact list export and writes an SES contact import
file next to it (or at the path given with --output).

Topic preferences apply to every contact in the file:

  contactport convert audience.csv --topic "Weekly Digest=OPT_IN" --topic "Promotions=OPT_OUT"

or from a YAML file:

  contactport convert audience.csv --topics-file topics.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output file (default: <input>-converted.csv)")
	convertCmd.Flags().String("format", core.DefaultFormatKey, "source format key (see 'contactport formats')")
	convertCmd.Flags().StringArray("topic", nil, "topic preference as NAME=OPT_IN or NAME=OPT_OUT (repeatable)")
	convertCmd.Flags().String("topics-file", "", "YAML file with topic preferences")
	convertCmd.Flags().BoolP("quiet", "q", false, "suppress the summary line")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath)
	}

	formatKey, _ := cmd.Flags().GetString("format")
	topicFlags, _ := cmd.Flags().GetStringArray("topic")
	topicsFile, _ := cmd.Flags().GetString("topics-file")
	quiet, _ := cmd.Flags().GetBool("quiet")

	topics, err := collectTopics(topicsFile, topicFlags)
	if err != nil {
		return err
	}

	start := time.Now()
	rows, err := core.ConvertFile(cmd.Context(), inputPath, outputPath, core.Options{
		Format: formatKey,
		Topics: topics,
	})
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Converted %d rows to %s in %s\n",
			rows, outputPath, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// collectTopics merges topics from a YAML file and repeated --topic flags.
// Flags come after file entries, so flag order is preserved in the output
// columns.
func collectTopics(topicsFile string, topicFlags []string) ([]core.TopicPreference, error) {
	var topics []core.TopicPreference

	if topicsFile != "" {
		fromFile, err := core.LoadTopicsFile(topicsFile)
		if err != nil {
			return nil, err
		}
		topics = fromFile
	}

	for _, flag := range topicFlags {
		tp, err := core.ParseTopicFlag(flag)
		if err != nil {
			return nil, err
		}
		topics = append(topics, tp)
	}

	return topics, nil
}

// defaultOutputPath derives the output file name from the input path.
func defaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "-converted.csv"
}
