package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/handler"
)

var defaultLoadQueries = []string{
	"python para principiantes",
	"análisis de datos",
	"marketing digital",
	"redes sociales",
	"diseño gráfico",
	"gestión de proyectos",
	"desarrollo web",
	"finanzas personales",
	"fotografía",
	"educación virtual",
	"derecho laboral",
	"salud mental",
	"programación en java",
	"inteligencia artificial",
	"ventas y publicidad",
}

type loadConfig struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Strategy    string
	Queries     []string
}

type loadStats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	cacheHits     atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
	statusCodes   map[int]*atomic.Int64
	statusCodesMu sync.Mutex
}

func newLoadStats() *loadStats {
	return &loadStats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]*atomic.Int64),
	}
}

func (s *loadStats) record(duration time.Duration, statusCode int, cacheHit bool, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}
	if cacheHit {
		s.cacheHits.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()

	s.statusCodesMu.Lock()
	if _, ok := s.statusCodes[statusCode]; !ok {
		s.statusCodes[statusCode] = &atomic.Int64{}
	}
	s.statusCodes[statusCode].Add(1)
	s.statusCodesMu.Unlock()
}

func newLoadtestCommand() *cobra.Command {
	cfg := loadConfig{Queries: defaultLoadQueries}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive concurrent searches against a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Concurrency < 1 {
				return errors.New("concurrency must be at least 1")
			}
			printTitle(cmd, "Course search load test")
			printf(cmd, "Target:      %s\n", cfg.BaseURL)
			printf(cmd, "Concurrency: %d\n", cfg.Concurrency)
			printf(cmd, "Duration:    %s\n", cfg.Duration)
			printf(cmd, "Strategy:    %s\n", cfg.Strategy)
			printf(cmd, "Queries:     %d unique\n\n", len(cfg.Queries))

			stats := runLoadTest(cmd.Context(), cfg)
			return printLoadReport(cmd, stats, cfg.Duration)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the search service")
	flags.IntVar(&cfg.Concurrency, "concurrency", 10, "number of concurrent workers")
	flags.DurationVar(&cfg.Duration, "duration", 30*time.Second, "test duration")
	flags.StringVar(&cfg.Strategy, "strategy", "cosine", "ranking strategy sent with each query")
	return cmd
}

func runLoadTest(parent context.Context, cfg loadConfig) *loadStats {
	stats := newLoadStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(parent, cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			queryIdx := workerID
			for ctx.Err() == nil {
				query := cfg.Queries[queryIdx%len(cfg.Queries)]
				queryIdx++

				searchURL := fmt.Sprintf("%s/api/v1/search?q=%s&method=%s&limit=10",
					cfg.BaseURL, url.QueryEscape(query), url.QueryEscape(cfg.Strategy))
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
				if err != nil {
					stats.record(0, 0, false, err)
					return
				}

				start := time.Now()
				resp, err := client.Do(req)
				duration := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.record(duration, 0, false, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.record(duration, resp.StatusCode, resp.Header.Get(handler.CacheHeader) == "HIT", nil)
			}
		}(w)
	}
	wg.Wait()
	return stats
}

func printLoadReport(cmd *cobra.Command, stats *loadStats, duration time.Duration) error {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	failed := stats.errorCount.Load()

	printTitle(cmd, "Results")
	printf(cmd, "Total Requests:  %d\n", total)
	printf(cmd, "Successful:      %d\n", success)
	printf(cmd, "Errors:          %d\n", failed)
	if total > 0 {
		printf(cmd, "Error Rate:      %.2f%%\n", float64(failed)/float64(total)*100)
		printf(cmd, "Cache Hit Rate:  %.2f%%\n", float64(stats.cacheHits.Load())/float64(total)*100)
		printf(cmd, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}

	stats.latenciesMu.Lock()
	latencies := make([]time.Duration, len(stats.latencies))
	copy(latencies, stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		var sumSquared float64
		for _, l := range latencies {
			diff := float64(l) - float64(avg)
			sumSquared += diff * diff
		}

		printf(cmd, "\n")
		printTitle(cmd, "Latency")
		printTable(cmd, []string{"Min", "Avg", "P50", "P90", "P95", "P99", "Max", "StdDev"}, [][]string{{
			latencies[0].String(),
			avg.String(),
			latencyPercentile(latencies, 50).String(),
			latencyPercentile(latencies, 90).String(),
			latencyPercentile(latencies, 95).String(),
			latencyPercentile(latencies, 99).String(),
			latencies[len(latencies)-1].String(),
			time.Duration(math.Sqrt(sumSquared / float64(len(latencies)))).String(),
		}})
	}

	printf(cmd, "\n")
	printTitle(cmd, "Status Codes")
	stats.statusCodesMu.Lock()
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		printf(cmd, "  %d: %d\n", code, stats.statusCodes[code].Load())
	}
	stats.statusCodesMu.Unlock()

	if total == 0 {
		return errors.New("no requests completed; is the service running?")
	}
	return nil
}

// latencyPercentile uses the nearest-rank method on sorted latencies.
func latencyPercentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
