package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/ranker"
)

type searchFlags struct {
	method      string
	limit       int
	category    string
	detailed    bool
	urls        bool
	performance bool
}

func newSearchCommand(opts *options) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Rank courses against a free-text query",
		Long: `Searches the course index. The query is lower-cased, stripped of accents
and Spanish stop-words before ranking.

  --category   keep results whose title or description mention the category
  --urls       print only the URLs of the matching courses
  --performance  report stage timings and precision instead of results`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.method == "" {
				f.method = opts.cfg.Search.DefaultStrategy
			}
			if f.limit <= 0 {
				f.limit = opts.cfg.Search.DefaultLimit
			}
			eng, err := opts.openEngine(cmd)
			if err != nil {
				return err
			}
			return runSearch(cmd, opts, f, eng, strings.Join(args, " "))
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.method, "method", "m", "", fmt.Sprintf("ranking strategy %v (default from config)", ranker.Strategies()))
	flags.IntVarP(&f.limit, "limit", "n", 0, "maximum number of results (default from config)")
	flags.StringVar(&f.category, "category", "", "filter results by category words")
	flags.BoolVar(&f.detailed, "detailed", false, "add keyword frequency and URL columns")
	flags.BoolVar(&f.urls, "urls", false, "print course URLs only")
	flags.BoolVar(&f.performance, "performance", false, "measure the cosine search instead of printing results")
	cmd.MarkFlagsMutuallyExclusive("urls", "performance", "category")
	return cmd
}

func runSearch(cmd *cobra.Command, opts *options, f *searchFlags, eng *engine.Engine, query string) error {
	ctx := cmd.Context()

	switch {
	case f.performance:
		perf := eng.MeasurePerformance(ctx, query, f.limit)
		if opts.jsonOutput {
			return printJSON(cmd, perf)
		}
		printPerformance(cmd, perf)
		return nil

	case f.urls:
		urls := eng.SearchURLs(ctx, query, f.limit)
		if opts.jsonOutput {
			return printJSON(cmd, urls)
		}
		for _, u := range urls {
			printf(cmd, "%s\n", u.URL)
		}
		return nil
	}

	var result *executor.SearchResult
	if f.category != "" {
		result = eng.SearchByCategory(ctx, query, f.category, f.limit)
	} else {
		var err error
		if result, err = eng.Search(ctx, query, f.limit, f.method); err != nil {
			return err
		}
	}
	if opts.jsonOutput {
		return printJSON(cmd, result)
	}

	printTitle(cmd, "Results for %q (%s)", query, result.Strategy)
	printf(cmd, "%s\n", mutedStyle.Render(fmt.Sprintf("tokens: %v  candidates: %d", result.Tokens, result.TotalHits)))
	if len(result.Results) == 0 {
		printf(cmd, "No results found.\n")
		return nil
	}

	headers := []string{"#", "Course", "Title", "Score"}
	if f.detailed {
		headers = append(headers, "Keyword freq", "URL")
	}
	rows := make([][]string, 0, len(result.Results))
	for i, h := range result.Results {
		row := []string{
			fmt.Sprintf("%d", i+1),
			h.CourseID,
			truncate(h.Course.Title, 48),
			fmt.Sprintf("%.4f", h.Score),
		}
		if f.detailed {
			row = append(row,
				fmt.Sprintf("%d", eng.KeywordFrequency(h.CourseID, query)),
				h.Course.URL,
			)
		}
		rows = append(rows, row)
	}
	printTable(cmd, headers, rows)
	return nil
}

func printPerformance(cmd *cobra.Command, p *executor.Performance) {
	printTitle(cmd, "Search performance for %q", p.Query)
	printf(cmd, "  query words:        %v\n", p.QueryWords)
	printf(cmd, "  preprocessing:      %.3f ms\n", p.PreprocessingMS)
	printf(cmd, "  candidate search:   %.3f ms\n", p.CandidateSearchMS)
	printf(cmd, "  scoring:            %.3f ms\n", p.ScoringMS)
	printf(cmd, "  total:              %.3f ms\n", p.TotalMS)
	printf(cmd, "  candidates:         %d\n", p.CandidateCourses)
	printf(cmd, "  results:            %d found, %d returned\n", p.ResultsFound, p.ResultsReturned)
	printf(cmd, "  coverage:           %.4f\n", p.Coverage)
	printf(cmd, "  precision@k:        %.4f (threshold %.2f)\n", p.PrecisionAtK, p.RelevanceThreshold)
	printf(cmd, "  avg relevance:      %.4f\n", p.AvgRelevanceScore)
}
