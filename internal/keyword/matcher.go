package keyword

import "math"

// DefaultMarksPerQuestion is used when a Matcher is constructed without an
// explicit marks value.
const DefaultMarksPerQuestion = 10.0

// ScoreResult is the outcome of scoring one answer against a keyword field.
// Score, PercentageForQuestion, MatchedWeight and TotalWeight are rounded to
// two decimals for presentation; aggregation across questions should use
// Fraction to avoid compounding rounding error.
type ScoreResult struct {
	Score                 float64       `json:"score"`
	PercentageForQuestion float64       `json:"percentage_for_question"`
	MatchedUnweighted     int           `json:"matched_unweighted"`
	TotalKeywords         int           `json:"total_keywords"`
	MatchedWeight         float64       `json:"matched_weight"`
	TotalWeight           float64       `json:"total_weight"`
	Details               []MatchDetail `json:"details"`

	Fraction float64 `json:"-"`
}

// Matcher scores free-text answers against keyword fields, scaling the
// matched weight fraction by a fixed marks-per-question value.
type Matcher struct {
	marksPerQuestion float64
}

// NewMatcher builds a Matcher. A zero marks value selects
// DefaultMarksPerQuestion; anything else is taken as given.
func NewMatcher(marksPerQuestion float64) *Matcher {
	if marksPerQuestion == 0 {
		marksPerQuestion = DefaultMarksPerQuestion
	}
	return &Matcher{marksPerQuestion: marksPerQuestion}
}

// Score parses the keyword field, evaluates the answer and converts the
// matched weight fraction into marks. A field with no scoreable concepts
// yields zero rather than a division fault.
func (m *Matcher) Score(answerText, keywordField string) ScoreResult {
	specs := ParseKeywordField(keywordField)
	ev := Evaluate(answerText, specs)

	frac := 0.0
	if ev.TotalWeight > 0 {
		frac = ev.MatchedWeight / ev.TotalWeight
	}
	return ScoreResult{
		Score:                 round2(frac * m.marksPerQuestion),
		PercentageForQuestion: round2(frac * 100.0),
		MatchedUnweighted:     ev.MatchedCount,
		TotalKeywords:         len(ev.Details),
		MatchedWeight:         round2(ev.MatchedWeight),
		TotalWeight:           round2(ev.TotalWeight),
		Details:               ev.Details,
		Fraction:              frac,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
