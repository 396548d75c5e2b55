// Package csvio reads question banks from CSV and writes scored results
// back out as CSV.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/keymark-edu/keymark/internal/quiz"
)

// ReadQuestions parses a question bank. The header row must contain
// "question" and "keywords" columns; an optional "id" column overrides the
// generated per-row IDs.
func ReadQuestions(r io.Reader) ([]quiz.Question, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"question", "keywords"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("missing column in CSV: %s", req)
		}
	}

	var out []quiz.Question
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		q := quiz.Question{
			ID:       "q" + strconv.Itoa(n),
			Prompt:   field(rec, col, "question"),
			Keywords: field(rec, col, "keywords"),
		}
		if id := field(rec, col, "id"); id != "" {
			q.ID = id
		}
		if strings.TrimSpace(q.Prompt) == "" {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// WriteResults serializes a session's per-question outcomes alongside the
// original prompts and keyword fields, one row per answered question.
func WriteResults(w io.Writer, q quiz.Quiz, res quiz.Results) error {
	byID := make(map[string]quiz.Question, len(q.Questions))
	for _, qq := range q.Questions {
		byID[qq.ID] = qq
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"question", "your_answer", "score", "percentage_for_question",
		"matched_unweighted", "total_keywords", "matched_weight", "total_weight", "keywords",
	}); err != nil {
		return err
	}
	for _, a := range res.Answers {
		qq := byID[a.QuestionID]
		row := []string{
			qq.Prompt,
			a.AnswerText,
			f2(a.Score),
			f2(a.PercentageForQuestion),
			strconv.Itoa(a.MatchedUnweighted),
			strconv.Itoa(a.TotalKeywords),
			f2(a.MatchedWeight),
			f2(a.TotalWeight),
			qq.Keywords,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// ResultsFileName builds the timestamped export name, e.g.
// "quiz_results_20250114_093045.csv".
func ResultsFileName(t time.Time) string {
	return "quiz_results_" + t.Format("20060102_150405") + ".csv"
}
