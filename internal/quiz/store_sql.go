package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/keymark-edu/keymark/internal/keyword"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutQuiz(q Quiz) error {
	if q.MarksPerQuestion == 0 {
		q.MarksPerQuestion = keyword.DefaultMarksPerQuestion
	}
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO quizzes (id,title,marks_per_question,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, marks_per_question=EXCLUDED.marks_per_question, questions_json=EXCLUDED.questions_json`,
		q.ID, q.Title, q.MarksPerQuestion, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(id string) (Quiz, error) {
	q, err := s.getQuiz(id)
	if err != nil {
		return Quiz{}, err
	}
	return stripKeywords(q), nil
}

func (s *SQLStore) GetQuizAdmin(_ context.Context, id string) (Quiz, error) {
	return s.getQuiz(id)
}

func (s *SQLStore) getQuiz(id string) (Quiz, error) {
	row := s.db.QueryRow(`SELECT id,title,marks_per_question,questions_json,created_at FROM quizzes WHERE id=$1`, id)
	var q Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.Title, &q.MarksPerQuestion, &qjson, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) NewSession(quizID, userID string) (Session, error) {
	var exist int
	if err := s.db.QueryRow(`SELECT 1 FROM quizzes WHERE id=$1`, quizID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrQuizNotFound
		}
		return Session{}, err
	}
	sess := Session{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    "in_progress",
		StartedAt: time.Now().Unix(),
	}
	aj, _ := json.Marshal([]Answer{})
	_, err := s.db.Exec(`INSERT INTO sessions (id,quiz_id,user_id,status,current_q,score,answers_json,started_at)
		VALUES ($1,$2,$3,'in_progress',0,0,$4,$5)`,
		sess.ID, quizID, userID, string(aj), sess.StartedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) SubmitAnswer(sessionID, answerText string, skip bool) (Session, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return Session{}, err
	}
	q, err := s.getQuiz(sess.QuizID)
	if err != nil {
		return Session{}, err
	}
	prev := sess.Current
	next, err := advanceSession(&sess, q, answerText, skip)
	if err != nil {
		return Session{}, err
	}
	aj, _ := json.Marshal(next.Answers)
	var completedAt interface{}
	if next.CompletedAt != 0 {
		completedAt = next.CompletedAt
	}
	// The WHERE clause rejects writes based on a stale read, so two
	// concurrent submits cannot both grade the same question.
	res, err := s.db.Exec(`UPDATE sessions SET status=$1, current_q=$2, score=$3, answers_json=$4, completed_at=$5
		WHERE id=$6 AND current_q=$7 AND status='in_progress'`,
		next.Status, next.Current, next.Score, string(aj), completedAt, sessionID, prev)
	if err != nil {
		return Session{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Session{}, ErrSessionConflict
	}
	return next, nil
}

func (s *SQLStore) GetSession(id string) (Session, error) {
	row := s.db.QueryRow(`SELECT id,quiz_id,user_id,status,current_q,score,answers_json,started_at,completed_at FROM sessions WHERE id=$1`, id)
	var sess Session
	var ajson string
	var completedAt sql.NullInt64
	if err := row.Scan(&sess.ID, &sess.QuizID, &sess.UserID, &sess.Status, &sess.Current, &sess.Score, &ajson, &sess.StartedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	sess.CompletedAt = completedAt.Int64
	if err := json.Unmarshal([]byte(ajson), &sess.Answers); err != nil {
		sess.Answers = nil
	}
	return sess, nil
}
