package analytics

import "time"

type EventType string

const (
	EventSearch         EventType = "search"
	EventCategorySearch EventType = "category_search"
	EventCompare        EventType = "compare"
	EventSimilar        EventType = "similar"
)

// QueryEvent describes one answered search request.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Tokens    []string  `json:"tokens"`
	Strategy  string    `json:"strategy"`
	Category  string    `json:"category,omitempty"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// CompareEvent describes one pairwise comparison or similar-course lookup.
type CompareEvent struct {
	Type      EventType `json:"type"`
	CourseA   string    `json:"course_a"`
	CourseB   string    `json:"course_b,omitempty"`
	Method    string    `json:"method"`
	Score     float64   `json:"score"`
	Returned  int       `json:"returned,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}
