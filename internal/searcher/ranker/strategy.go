package ranker

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/course-search/pkg/errors"
)

// Strategy names a query-to-course scoring function.
type Strategy string

const (
	StrategyCosine    Strategy = "cosine"
	StrategyRelevance Strategy = "relevance"
	StrategyTFIDF     Strategy = "tfidf"
	StrategySmart     Strategy = "smart"
)

var allStrategies = []Strategy{StrategyCosine, StrategyRelevance, StrategyTFIDF, StrategySmart}

func Strategies() []Strategy {
	out := make([]Strategy, len(allStrategies))
	copy(out, allStrategies)
	return out
}

// ParseStrategy maps a strategy name onto the enumeration and rejects
// anything else with an ErrInvalidMethod application error.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range allStrategies {
		if s == known {
			return s, nil
		}
	}
	names := make([]string, len(allStrategies))
	for i, known := range allStrategies {
		names[i] = string(known)
	}
	return "", apperrors.InvalidMethod("ranking strategy", name, names)
}

func (s Strategy) String() string { return string(s) }
