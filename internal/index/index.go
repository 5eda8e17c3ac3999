// Package index loads the word -> course inverted index written by the
// corpus producer and derives the per-course document model and the IDF
// table from it. Everything here is built once and never mutated.
package index

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
)

// IDSet is a set of formatted course ids.
type IDSet map[string]struct{}

// WordIndex maps a word to the formatted ids of the courses containing it.
type WordIndex map[string]IDSet

// LoadStats describes what the loader saw while parsing the index file.
type LoadStats struct {
	Rows        int
	SkippedRows int
}

// Load parses a pipe-delimited "formatted_id|word" file. Rows that do not
// have exactly two fields are skipped silently. If the file cannot be opened
// the returned index is empty and err is set; a read failure part way
// through keeps what was parsed so far.
func Load(path string) (WordIndex, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return WordIndex{}, LoadStats{}, fmt.Errorf("opening index file %s: %w", path, err)
	}
	defer f.Close()
	idx, stats, err := Parse(f)
	if err != nil {
		return idx, stats, fmt.Errorf("reading index file %s: %w", path, err)
	}
	return idx, stats, nil
}

// Parse reads index rows from r.
func Parse(r io.Reader) (WordIndex, LoadStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = '|'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	idx := make(WordIndex)
	var stats LoadStats
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.SkippedRows++
				continue
			}
			return idx, stats, err
		}
		stats.Rows++
		if len(row) != 2 {
			stats.SkippedRows++
			continue
		}
		idx.add(row[1], row[0])
	}
	if stats.SkippedRows > 0 {
		slog.Default().With("component", "index-loader").Debug("skipped malformed index rows",
			"skipped", stats.SkippedRows,
			"rows", stats.Rows,
		)
	}
	return idx, stats, nil
}

func (w WordIndex) add(word, formattedID string) {
	ids, ok := w[word]
	if !ok {
		ids = make(IDSet)
		w[word] = ids
	}
	ids[formattedID] = struct{}{}
}

// DocFreq returns the number of formatted ids listed under word.
func (w WordIndex) DocFreq(word string) int {
	return len(w[word])
}

// Entries returns the total number of (word, formatted id) pairs.
func (w WordIndex) Entries() int {
	n := 0
	for _, ids := range w {
		n += len(ids)
	}
	return n
}

// Words returns the vocabulary in lexical order.
func (w WordIndex) Words() []string {
	words := make([]string, 0, len(w))
	for word := range w {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}

// FormattedIDs returns the ids under word in lexical order.
func (w WordIndex) FormattedIDs(word string) []string {
	ids := w[word]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
