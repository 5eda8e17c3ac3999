package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/course-search/pkg/redis"
)

func newServeCommand(opts *options) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search and similarity API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if port > 0 {
				cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting course search service", "port", cfg.Server.Port)

	eng, err := engine.New(ctx, engine.Paths{
		Courses: cfg.Corpus.CoursesFile,
		Index:   cfg.Corpus.IndexFile,
		Mapping: cfg.Corpus.MappingFile,
	})
	if err != nil {
		return err
	}

	srv := newServer(ctx, cfg, eng)
	defer srv.close()

	if cfg.Metrics.Enabled {
		go func() {
			if err := srv.metrics.Serve(ctx, cfg.Metrics.Port, cfg.Server.ShutdownTimeout); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("course search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	// In-flight requests may still track analytics until Shutdown returns.
	<-shutdownDone
	slog.Info("course search service stopped")
	return nil
}

// server is the fully wired HTTP stack around one engine.
type server struct {
	handler http.Handler
	metrics *metrics.Metrics
	checker *health.Checker
	closers []func()
}

func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// corpusHealth lists the load errors and skipped rows that readiness
// reports alongside the corpus size.
func corpusHealth(stats engine.Statistics, report engine.LoadReport) health.Corpus {
	return health.Corpus{
		Courses:     stats.TotalCourses,
		Vocabulary:  stats.VocabularySize,
		IndexRows:   report.IndexRows,
		SkippedRows: report.SkippedRows,
		LoadErrors:  report.Errors,
	}
}

// newServer connects the optional Redis cache and Kafka publisher, starts the
// analytics collector and mounts every route. Redis and Kafka failures only
// disable their feature.
func newServer(ctx context.Context, cfg *config.Config, eng *engine.Engine) *server {
	s := &server{
		metrics: metrics.New(prometheus.NewRegistry()),
	}

	stats, report := eng.Statistics(), eng.LoadReport()
	s.checker = health.NewChecker(func() health.Corpus {
		return corpusHealth(eng.Statistics(), eng.LoadReport())
	}, 0)
	s.metrics.CorpusCourses.Set(float64(stats.TotalCourses))
	s.metrics.CorpusVocabulary.Set(float64(stats.VocabularySize))
	s.metrics.IndexSkippedRows.Set(float64(report.SkippedRows))

	var (
		queryCache  *cache.QueryCache
		redisClient *pkgredis.Client
	)
	if cfg.Redis.Addr != "" {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			redisClient = client
			s.closers = append(s.closers, func() { client.Close() })
			queryCache = cache.New(client, cfg.Redis.CacheTTL, s.metrics)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var (
		publisher analytics.Publisher
		producer  *kafka.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka)
		publisher = producer
		s.closers = append(s.closers, func() {
			if err := producer.Close(); err != nil {
				slog.Error("closing kafka producer", "error", err)
			}
		})
		slog.Info("analytics publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.AnalyticsTopic)
	}
	aggregator := analytics.NewAggregator()
	collector := analytics.NewCollector(publisher, aggregator, analytics.CollectorConfig{})
	collector.Start(ctx)
	// Closers run in reverse, so the collector flushes before the producer closes.
	s.closers = append(s.closers, collector.Close)

	var redisPing, kafkaPing health.Pinger
	if redisClient != nil {
		redisPing = redisClient.Ping
	}
	if producer != nil {
		kafkaPing = producer.Ping
	}
	s.checker.AddDependency("redis", cfg.Redis.Addr, redisPing)
	s.checker.AddDependency("kafka", cfg.Kafka.AnalyticsTopic, kafkaPing)

	h := handler.New(eng, queryCache, collector, s.metrics, cfg.Search)
	mux := http.NewServeMux()
	h.Register(mux)
	analytics.NewHandler(aggregator).Register(mux)
	s.checker.Register(mux)
	if !cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Metrics(s.metrics),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		mws = append(mws, middleware.CORS(middleware.CORSConfig{AllowOrigins: cfg.Server.CORSOrigins}))
	}
	mws = append(mws, middleware.Timeout(requestTimeout(cfg.Server.WriteTimeout)))
	s.handler = middleware.Chain(mux, mws...)
	return s
}

// requestTimeout leaves the handler a margin to answer before the server's
// write deadline closes the connection.
func requestTimeout(write time.Duration) time.Duration {
	if write <= time.Second {
		return write
	}
	return write - 500*time.Millisecond
}
