// Package cli implements the courses command line: one-shot comparisons and
// searches over the corpus files, and the long-running HTTP server.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/logger"
)

// options is shared by every subcommand. cfg is filled in by the root's
// PersistentPreRunE.
type options struct {
	configPath  string
	coursesFile string
	indexFile   string
	mappingFile string
	logLevel    string
	jsonOutput  bool

	cfg *config.Config
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "courses",
		Short: "Course similarity and search engine",
		Long: `Loads the crawled course catalog, its inverted index and the id mapping,
then compares courses (jaccard, cosine, overlap, semantic, combined) or ranks
them against free-text queries (cosine, relevance, tfidf, smart).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.coursesFile != "" {
				cfg.Corpus.CoursesFile = opts.coursesFile
			}
			if opts.indexFile != "" {
				cfg.Corpus.IndexFile = opts.indexFile
			}
			if opts.mappingFile != "" {
				cfg.Corpus.MappingFile = opts.mappingFile
			}
			if opts.logLevel != "" {
				cfg.Logging.Level = opts.logLevel
			}
			if err := logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&opts.coursesFile, "courses", "", "courses JSON file (overrides config)")
	flags.StringVar(&opts.indexFile, "index", "", "pipe-delimited index file (overrides config)")
	flags.StringVar(&opts.mappingFile, "mapping", "", "id mapping JSON file (default: derived from --index)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newCompareCommand(opts),
		newSimilarCommand(opts),
		newSearchCommand(opts),
		newStatsCommand(opts),
		newServeCommand(opts),
		newLoadtestCommand(),
	)
	return root
}

func (o *options) openEngine(cmd *cobra.Command) (*engine.Engine, error) {
	return engine.New(cmd.Context(), engine.Paths{
		Courses: o.cfg.Corpus.CoursesFile,
		Index:   o.cfg.Corpus.IndexFile,
		Mapping: o.cfg.Corpus.MappingFile,
	})
}
