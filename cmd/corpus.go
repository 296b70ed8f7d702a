package cmd

import (
	"github.com/spf13/cobra"
	"swissdox-cli/internal/app"
)

var (
	segmentOutput     string
	segmentTranslated bool
	segmentDetectLang bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment <result.tsv>",
	Short: "Split a downloaded result into paragraphs, one JSON document per row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunSegment(cmd.Context(), app.SegmentOptions{
			CommonOptions: commonOptions(),
			Input:         args[0],
			Output:        segmentOutput,
			Translated:    segmentTranslated,
			DetectLang:    segmentDetectLang,
		})
	},
}

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List submissions made from this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunHistory(cmd.Context(), app.HistoryOptions{
			CommonOptions: commonOptions(),
			Limit:         historyLimit,
			JSON:          historyJSON,
		})
	},
}

func init() {
	segmentCmd.Flags().StringVarP(&segmentOutput, "out", "o", "", "output JSONL file, - for stdout (default next to the input)")
	segmentCmd.Flags().BoolVar(&segmentTranslated, "translated", false, "use the translated head, subhead and text")
	segmentCmd.Flags().BoolVar(&segmentDetectLang, "detect-lang", false, "tag each document with its detected language")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries, 0 for all")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON instead of a table")
}
