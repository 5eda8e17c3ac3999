// Package health reports whether the search service can answer queries. The
// loaded corpus decides readiness; Redis and Kafka failures only mark the
// service degraded because search works without them.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

func worse(a, b Status) Status {
	rank := map[Status]int{StatusUp: 0, StatusDegraded: 1, StatusDown: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// Corpus describes what the engine loaded at startup.
type Corpus struct {
	Courses     int      `json:"courses"`
	Vocabulary  int      `json:"vocabulary"`
	IndexRows   int      `json:"index_rows"`
	SkippedRows int      `json:"skipped_rows"`
	LoadErrors  []string `json:"load_errors,omitempty"`
}

// Status is down for an empty catalog and degraded when a corpus file failed
// to load or index rows were skipped.
func (c Corpus) Status() Status {
	switch {
	case c.Courses == 0:
		return StatusDown
	case len(c.LoadErrors) > 0 || c.SkippedRows > 0:
		return StatusDegraded
	}
	return StatusUp
}

// Pinger checks one network dependency and returns why it is unusable.
type Pinger func(ctx context.Context) error

type DependencyHealth struct {
	Status    Status  `json:"status"`
	Detail    string  `json:"detail,omitempty"`
	Error     string  `json:"error,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
}

type Report struct {
	Status       Status                      `json:"status"`
	Corpus       Corpus                      `json:"corpus"`
	Dependencies map[string]DependencyHealth `json:"dependencies"`
	CheckedAt    time.Time                   `json:"checked_at"`
}

type dependency struct {
	name   string
	detail string
	ping   Pinger
}

// Checker builds readiness reports from the corpus and the registered
// optional dependencies.
type Checker struct {
	corpus  func() Corpus
	timeout time.Duration
	logger  *slog.Logger

	mu   sync.RWMutex
	deps []dependency
}

// NewChecker reads the corpus through corpus on every report. Each
// dependency ping is bounded by timeout, 2s when zero.
func NewChecker(corpus func() Corpus, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		corpus:  corpus,
		timeout: timeout,
		logger:  slog.Default().With("component", "health"),
	}
}

// AddDependency registers an optional dependency. A nil ping reports it as
// not configured.
func (c *Checker) AddDependency(name, detail string, ping Pinger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deps = append(c.deps, dependency{name: name, detail: detail, ping: ping})
}

// Run pings every dependency concurrently. The report status is the worse of
// the corpus status and degraded, if any dependency is not up.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	deps := append([]dependency(nil), c.deps...)
	c.mu.RUnlock()

	corpus := c.corpus()
	report := Report{
		Status:       corpus.Status(),
		Corpus:       corpus,
		Dependencies: make(map[string]DependencyHealth, len(deps)),
		CheckedAt:    time.Now().UTC(),
	}

	results := make([]DependencyHealth, len(deps))
	var g errgroup.Group
	for i, d := range deps {
		g.Go(func() error {
			results[i] = c.check(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	for i, d := range deps {
		report.Dependencies[d.name] = results[i]
		if results[i].Status != StatusUp {
			report.Status = worse(report.Status, StatusDegraded)
		}
	}
	return report
}

func (c *Checker) check(ctx context.Context, d dependency) DependencyHealth {
	if d.ping == nil {
		return DependencyHealth{Status: StatusDegraded, Detail: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := d.ping(ctx)
	h := DependencyHealth{
		Status:    StatusUp,
		Detail:    d.detail,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		h.Status = StatusDegraded
		h.Error = err.Error()
		c.logger.Warn("dependency unhealthy", "dependency", d.name, "error", err)
	}
	return h
}

// Register mounts the liveness and readiness endpoints on mux. Readiness
// answers 503 only while the report is down.
func (c *Checker) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health/live", func(w http.ResponseWriter, r *http.Request) {
		c.write(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	mux.HandleFunc("GET /health/ready", func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		code := http.StatusOK
		if report.Status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		c.write(w, code, report)
	})
}

func (c *Checker) write(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to write health response", "error", err)
	}
}
