package cli

import (
	"github.com/spf13/cobra"
)

func newStatsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print corpus and index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.openEngine(cmd)
			if err != nil {
				return err
			}
			stats, report := eng.Statistics(), eng.LoadReport()
			if opts.jsonOutput {
				return printJSON(cmd, map[string]any{"statistics": stats, "load": report})
			}
			printTitle(cmd, "Corpus statistics")
			printf(cmd, "  total courses:        %d\n", stats.TotalCourses)
			printf(cmd, "  vocabulary size:      %d\n", stats.VocabularySize)
			printf(cmd, "  index entries:        %d\n", stats.IndexEntries)
			printf(cmd, "  avg words per course: %.2f\n", stats.AvgWordsPerCourse)
			printf(cmd, "  skipped index rows:   %d\n", report.SkippedRows)
			for _, e := range report.Errors {
				printf(cmd, "  %s\n", mutedStyle.Render("warning: "+e))
			}
			return nil
		},
	}
}
