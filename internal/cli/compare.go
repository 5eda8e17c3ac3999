package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/similarity"
)

func newCompareCommand(opts *options) *cobra.Command {
	var (
		method      string
		withMetrics bool
		all         bool
	)
	cmd := &cobra.Command{
		Use:   "compare <course-a> <course-b>",
		Short: "Score the similarity of two courses",
		Long: `Compares two courses by id. Unknown ids score 0 and identical ids score 1.
Use --all to run every method and print a timing report.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if method == "" {
				method = opts.cfg.Search.SimilarityMethod
			}
			eng, err := opts.openEngine(cmd)
			if err != nil {
				return err
			}
			a, b := args[0], args[1]

			if all {
				report := eng.CompareAll(a, b)
				if opts.jsonOutput {
					return printJSON(cmd, report)
				}
				printTitle(cmd, "Similarity report: %s vs %s", a, b)
				rows := make([][]string, 0, len(report))
				for _, m := range report {
					rows = append(rows, metricsRow(m))
				}
				printTable(cmd, []string{"Method", "Score", "Time", "Shared", "Overlap", "Complexity"}, rows)
				return nil
			}

			if withMetrics {
				m, err := eng.CompareWithMetrics(a, b, method)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd, m)
				}
				printf(cmd, "%s(%s, %s) = %.4f\n", m.Method, a, b, m.Score)
				printf(cmd, "  execution time:     %s\n", m.ExecutionTime)
				printf(cmd, "  heap in use:        %.2f MB\n", m.HeapAllocMB)
				printf(cmd, "  words:              %d / %d\n", m.Course1WordCount, m.Course2WordCount)
				printf(cmd, "  shared words:       %d\n", m.SharedWords)
				printf(cmd, "  vocabulary overlap: %.4f\n", m.VocabularyOverlap)
				printf(cmd, "  complexity:         %s\n", m.Complexity)
				return nil
			}

			score, err := eng.Compare(a, b, method)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd, map[string]any{"course_a": a, "course_b": b, "method": method, "score": score})
			}
			printf(cmd, "%s(%s, %s) = %.4f\n", method, a, b, score)
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", "", fmt.Sprintf("similarity method %v (default from config)", similarity.Methods()))
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "print execution metrics")
	cmd.Flags().BoolVar(&all, "all", false, "run every similarity method")
	return cmd
}

func metricsRow(m similarity.Metrics) []string {
	return []string{
		string(m.Method),
		fmt.Sprintf("%.4f", m.Score),
		m.ExecutionTime.String(),
		fmt.Sprintf("%d", m.SharedWords),
		fmt.Sprintf("%.4f", m.VocabularyOverlap),
		m.Complexity,
	}
}
