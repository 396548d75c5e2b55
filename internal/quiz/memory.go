package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keymark-edu/keymark/internal/keyword"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionDone     = errors.New("session already completed")
	ErrSessionConflict = errors.New("session modified concurrently")
)

type memoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]Quiz
	sessions map[string]Session
}

// NewInMemoryStore is the dev/test Store; the service normally runs on the
// SQL store.
func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:  map[string]Quiz{},
		sessions: map[string]Session{},
	}
}

func (m *memoryStore) PutQuiz(q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	if q.MarksPerQuestion == 0 {
		q.MarksPerQuestion = keyword.DefaultMarksPerQuestion
	}
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuiz(id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return stripKeywords(q), nil
}

func (m *memoryStore) GetQuizAdmin(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memoryStore) NewSession(quizID, userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return Session{}, ErrQuizNotFound
	}
	s := Session{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    "in_progress",
		StartedAt: time.Now().Unix(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memoryStore) SubmitAnswer(sessionID, answerText string, skip bool) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	q, ok := m.quizzes[s.QuizID]
	if !ok {
		return Session{}, ErrQuizNotFound
	}
	next, err := advanceSession(&s, q, answerText, skip)
	if err != nil {
		return Session{}, err
	}
	m.sessions[sessionID] = next
	return next, nil
}

func (m *memoryStore) GetSession(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func stripKeywords(q Quiz) Quiz {
	qs := make([]Question, len(q.Questions))
	copy(qs, q.Questions)
	for i := range qs {
		qs[i].Keywords = ""
	}
	q.Questions = qs
	return q
}

// advanceSession grades one answer against the session's current question
// and moves the cursor, completing the session after the last question.
// Shared by the memory and SQL stores.
func advanceSession(s *Session, q Quiz, answerText string, skip bool) (Session, error) {
	if s.Status != "in_progress" {
		return Session{}, ErrSessionDone
	}
	if s.Current >= len(q.Questions) {
		return Session{}, ErrSessionDone
	}
	cur := q.Questions[s.Current]
	if skip {
		answerText = ""
	}
	res := keyword.NewMatcher(q.MarksPerQuestion).Score(answerText, cur.Keywords)
	s.Answers = append(s.Answers, Answer{
		QuestionID:  cur.ID,
		AnswerText:  answerText,
		Skipped:     skip,
		Fraction:    res.Fraction,
		ScoreResult: res,
	})
	s.Score += res.Fraction * q.MarksPerQuestion
	s.Current++
	if s.Current >= len(q.Questions) {
		s.Status = "completed"
		s.CompletedAt = time.Now().Unix()
	}
	return *s, nil
}
