// Package tokenizer turns free-text queries into the same cleaned word forms
// the corpus producer writes to the index: lower-cased, HTML entities
// decoded, trailing punctuation removed, accents stripped, and stop-words
// dropped.
package tokenizer

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	trailingPunct   = regexp.MustCompile(`[!.,:;?]+$`)
	identifierShape = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

var stopWords = map[string]struct{}{
	// prepositions and articles
	"a": {}, "al": {}, "ante": {}, "bajo": {}, "con": {}, "de": {}, "del": {},
	"desde": {}, "durante": {}, "en": {}, "entre": {}, "hacia": {}, "hasta": {},
	"para": {}, "por": {}, "según": {}, "sin": {}, "sobre": {}, "tras": {},
	"el": {}, "la": {}, "los": {}, "las": {}, "un": {}, "una": {}, "unos": {}, "unas": {},

	// conjunctions and connectors
	"y": {}, "o": {}, "pero": {}, "si": {}, "no": {}, "que": {}, "quien": {},
	"como": {}, "cuando": {}, "donde": {}, "cual": {}, "cuales": {},

	// demonstratives
	"este": {}, "esta": {}, "estos": {}, "estas": {}, "ese": {}, "esa": {},
	"esos": {}, "esas": {}, "aquel": {}, "aquella": {}, "aquellos": {}, "aquellas": {},

	// listing metadata
	"horas": {}, "fecha": {}, "inicio": {}, "precio": {}, "duracion": {},
	"estudiante": {}, "estudiantes": {}, "profesional": {}, "profesionales": {},

	// frequent, non-discriminative
	"ser": {}, "estar": {}, "tener": {}, "hacer": {}, "dar": {}, "ver": {},
	"poder": {}, "decir": {}, "vez": {}, "muy": {}, "mas": {}, "más": {},
	"bien": {}, "todo": {}, "toda": {},
}

// IsStopWord reports whether word (any case) is a stop-word.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

// CleanWord applies the indexer's cleaning rules to a single word. The
// boolean is false when nothing usable is left.
func CleanWord(word string) (string, bool) {
	word = strings.ToLower(word)
	word = html.UnescapeString(word)
	word = trailingPunct.ReplaceAllString(word, "")
	if utf8.RuneCountInString(word) <= 1 {
		return "", false
	}
	word = RemoveDiacritics(word)
	if utf8.RuneCountInString(word) <= 1 {
		return "", false
	}
	if !identifierShape.MatchString(word) {
		return "", false
	}
	return word, true
}

// RemoveDiacritics decomposes s and strips combining marks.
func RemoveDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, decomposed)
}

// Preprocess splits text on word boundaries and returns the cleaned,
// non-stop-word tokens in order. Duplicates are kept.
func Preprocess(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		cleaned, ok := CleanWord(w)
		if !ok || IsStopWord(cleaned) {
			continue
		}
		tokens = append(tokens, cleaned)
	}
	return tokens
}
