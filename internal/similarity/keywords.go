package similarity

import (
	"regexp"
	"strings"
	"unicode"
)

// Each topic matches whole words (or the two-word phrase "redes sociales")
// of lower-cased course text.
var topicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(programaci[oó]n|desarrollo|software|web|python|java|javascript)$`),
	regexp.MustCompile(`(?i)^(marketing|publicidad|ventas|digital|redes sociales)$`),
	regexp.MustCompile(`(?i)^(administraci[oó]n|gesti[oó]n|empresarial|negocios|finanzas)$`),
	regexp.MustCompile(`(?i)^(dise[ñn]o|gr[aá]fico|visual|creatividad|arte)$`),
	regexp.MustCompile(`(?i)^(salud|medicina|cl[ií]nica|terapia|bienestar)$`),
	regexp.MustCompile(`(?i)^(educaci[oó]n|pedagog[ií]a|ense[ñn]anza|aprendizaje)$`),
	regexp.MustCompile(`(?i)^(derecho|legal|jur[ií]dico|normatividad)$`),
	regexp.MustCompile(`(?i)^(fotograf[ií]a|imagen|audiovisual|multimedia)$`),
}

// TopicPatternCount is the k of the semantic complexity label.
var TopicPatternCount = len(topicPatterns)

type span struct{ start, end int }

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// wordSpans returns the byte ranges of every maximal run of word runes.
func wordSpans(text string) []span {
	var spans []span
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

// ExtractKeywords returns the thematic keywords found in text. The matched
// surface form is kept, so "diseño" and "diseno" are distinct keywords.
func ExtractKeywords(text string) map[string]struct{} {
	text = strings.ToLower(text)
	spans := wordSpans(text)
	keywords := make(map[string]struct{})
	for i, s := range spans {
		word := text[s.start:s.end]
		var phrase string
		if i+1 < len(spans) {
			next := spans[i+1]
			if gap := text[s.end:next.start]; gap == " " {
				phrase = text[s.start:next.end]
			}
		}
		for _, p := range topicPatterns {
			if p.MatchString(word) {
				keywords[word] = struct{}{}
			}
			if phrase != "" && p.MatchString(phrase) {
				keywords[phrase] = struct{}{}
			}
		}
	}
	return keywords
}

// keywordJaccard is Jaccard over keyword sets: 1 when both are empty, 0
// when only one is.
func keywordJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for k := range a {
		if _, ok := b[k]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}
