package keyword

import (
	"regexp"
	"strings"
	"sync"
)

// MatchDetail reports how one Spec fared against an answer.
type MatchDetail struct {
	Alternatives       []string `json:"alternatives"`
	Weight             float64  `json:"weight"`
	MatchedAlternative string   `json:"matched_alternative,omitempty"`
	Matched            bool     `json:"matched"`
}

// Evaluation aggregates per-spec match details for one answer.
type Evaluation struct {
	MatchedCount  int           `json:"matched_count"`
	TotalWeight   float64       `json:"total_weight"`
	MatchedWeight float64       `json:"matched_weight"`
	Details       []MatchDetail `json:"details"`
}

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

// Word boundaries are spelled out as letter/number classes instead of \b:
// RE2's \b is ASCII-only and would never fire after a word ending in a
// non-ASCII letter such as "café".
const notWord = `[^\p{L}\p{N}]`

// altPattern returns a word-boundary pattern for a normalized phrase.
// Internal spaces match any whitespace run so multi-word phrases tolerate
// spacing differences. Patterns are pure functions of the phrase, so
// compiled ones are cached across calls.
func altPattern(alt string) *regexp.Regexp {
	patternMu.RLock()
	re, ok := patternCache[alt]
	patternMu.RUnlock()
	if ok {
		return re
	}
	words := strings.Fields(alt)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	re = regexp.MustCompile(`(?:^|` + notWord + `)` + strings.Join(words, `\s+`) + `(?:$|` + notWord + `)`)
	patternMu.Lock()
	patternCache[alt] = re
	patternMu.Unlock()
	return re
}

// phrasePresent reports whether the normalized alternative occurs in the
// normalized answer as a contiguous word-boundary-delimited phrase.
// No stemming: "plant" does not match inside "plants".
func phrasePresent(answerNorm, alt string) bool {
	if alt == "" {
		return false
	}
	return altPattern(alt).MatchString(answerNorm)
}

// Evaluate normalizes answerText once, then tests each spec's alternatives
// in declared order, stopping at the first one present in the answer.
// Unmatched specs still contribute to TotalWeight.
func Evaluate(answerText string, specs []Spec) Evaluation {
	answerNorm := Normalize(answerText)
	ev := Evaluation{Details: make([]MatchDetail, 0, len(specs))}
	for _, spec := range specs {
		ev.TotalWeight += spec.Weight
		d := MatchDetail{Alternatives: spec.Alternatives, Weight: spec.Weight}
		for _, alt := range spec.Alternatives {
			if phrasePresent(answerNorm, alt) {
				d.Matched = true
				d.MatchedAlternative = alt
				break
			}
		}
		if d.Matched {
			ev.MatchedCount++
			ev.MatchedWeight += spec.Weight
		}
		ev.Details = append(ev.Details, d)
	}
	return ev
}
