package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/Adithya-Monish-Kumar-K/course-search/pkg/errors"
)

func newSimilarCommand(opts *options) *cobra.Command {
	var (
		method string
		k      int
	)
	cmd := &cobra.Command{
		Use:   "similar <course-id>",
		Short: "List the courses most similar to one course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if method == "" {
				method = opts.cfg.Search.SimilarityMethod
			}
			eng, err := opts.openEngine(cmd)
			if err != nil {
				return err
			}
			ref := args[0]
			if _, ok := eng.Course(ref); !ok {
				return apperrors.CourseNotFound(ref)
			}
			matches, err := eng.FindSimilar(ref, k, method)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd, matches)
			}

			printTitle(cmd, "Courses similar to %s (%s)", ref, method)
			if len(matches) == 0 {
				printf(cmd, "No results found.\n")
				return nil
			}
			rows := make([][]string, 0, len(matches))
			for i, m := range matches {
				c, _ := eng.Course(m.CourseID)
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					m.CourseID,
					truncate(c.Title, 48),
					fmt.Sprintf("%.4f", m.Score),
				})
			}
			printTable(cmd, []string{"#", "Course", "Title", "Score"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", "", "similarity method (default from config)")
	cmd.Flags().IntVarP(&k, "top", "k", 5, "number of courses to list")
	return cmd
}
