package http

import (
	"encoding/json"
	"net/http"

	"github.com/keymark-edu/keymark/internal/keyword"
)

type scoreReq struct {
	AnswerText       string  `json:"answer_text"`
	Keywords         string  `json:"keywords"`
	MarksPerQuestion float64 `json:"marks_per_question,omitempty"`
}

// ScoreHandler is the stateless one-shot scoring endpoint: it grades a
// single answer against a keyword field without touching any stored quiz.
// POST /score
func ScoreHandler(defaultMarks float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		marks := req.MarksPerQuestion
		if marks == 0 {
			marks = defaultMarks
		}
		res := keyword.NewMatcher(marks).Score(req.AnswerText, req.Keywords)
		writeJSON(w, res)
	}
}

// ParseKeywordsHandler previews how a keyword field will be interpreted,
// for authoring tools. Invalid weights show up as the 1.0 they resolve to.
// POST /keywords/parse
func ParseKeywordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Keywords string `json:"keywords"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		specs := keyword.ParseKeywordField(req.Keywords)
		writeJSON(w, map[string]interface{}{"specs": specs})
	}
}

// NormalizeHandler previews how answer text is normalized before matching.
// POST /normalize
func NormalizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]string{"normalized": keyword.Normalize(req.Text)})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
