package quiz

import "github.com/keymark-edu/keymark/internal/keyword"

// Question pairs a prompt with its teacher-authored keyword field.
// The field uses the grammar understood by keyword.ParseKeywordField,
// e.g. "plants:2; sunlight|solar energy; carbon dioxide:2; water".
type Question struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Keywords string `json:"keywords,omitempty"` // stripped when served to students
}

type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	MarksPerQuestion float64    `json:"marks_per_question"`
	Questions        []Question `json:"questions"`
	CreatedAt        int64      `json:"created_at,omitempty"`
}

// Answer is one scored response within a session. Fraction carries the raw
// matched/total weight ratio so completed-session totals are aggregated
// before rounding; the embedded result fields are the rounded presentation
// values.
type Answer struct {
	QuestionID string  `json:"question_id"`
	AnswerText string  `json:"answer_text"`
	Skipped    bool    `json:"skipped,omitempty"`
	Fraction   float64 `json:"fraction"`

	keyword.ScoreResult
}

type Session struct {
	ID          string   `json:"id"`
	QuizID      string   `json:"quiz_id"`
	UserID      string   `json:"user_id"`
	Status      string   `json:"status"` // in_progress|completed
	Current     int      `json:"current"`
	Score       float64  `json:"score"` // raw running total, rounded at presentation
	Answers     []Answer `json:"answers"`
	StartedAt   int64    `json:"started_at,omitempty"`
	CompletedAt int64    `json:"completed_at,omitempty"`
}

// Results is the aggregate view of a completed (or in-progress) session.
type Results struct {
	SessionID         string   `json:"session_id"`
	QuizID            string   `json:"quiz_id"`
	Title             string   `json:"title"`
	Status            string   `json:"status"`
	TotalScore        float64  `json:"total_score"`
	MaxScore          float64  `json:"max_score"`
	OverallPercentage float64  `json:"overall_percentage"`
	Answers           []Answer `json:"answers"`
}
