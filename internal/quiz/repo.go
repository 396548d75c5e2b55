package quiz

import (
	"context"
	"math"
)

// Store persists quizzes and answer sessions. Implementations score answers
// on submission via keyword.Matcher so a session always carries its graded
// history.
type Store interface {
	PutQuiz(q Quiz) error
	GetQuiz(id string) (Quiz, error)                           // student-safe (keyword fields stripped)
	GetQuizAdmin(ctx context.Context, id string) (Quiz, error) // full quiz, for authors/export
	NewSession(quizID, userID string) (Session, error)
	// SubmitAnswer scores answerText against the session's current question
	// and advances it. A skipped question is scored as an empty answer, the
	// same way the matcher treats a blank response.
	SubmitAnswer(sessionID, answerText string, skip bool) (Session, error)
	GetSession(id string) (Session, error)
}

// ResultsFor computes the aggregate view for a session. Totals are derived
// from each answer's raw fraction, not the rounded per-question fields.
func ResultsFor(q Quiz, s Session) Results {
	total := 0.0
	for _, a := range s.Answers {
		total += a.Fraction * q.MarksPerQuestion
	}
	max := q.MarksPerQuestion * float64(len(q.Questions))
	pct := 0.0
	if max > 0 {
		pct = total / max * 100.0
	}
	return Results{
		SessionID:         s.ID,
		QuizID:            q.ID,
		Title:             q.Title,
		Status:            s.Status,
		TotalScore:        round2(total),
		MaxScore:          round2(max),
		OverallPercentage: round2(pct),
		Answers:           s.Answers,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
