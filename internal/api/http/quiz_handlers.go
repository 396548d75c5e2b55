package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/keymark-edu/keymark/internal/auth"
	"github.com/keymark-edu/keymark/internal/quiz"
	"github.com/keymark-edu/keymark/internal/quiz/csvio"
)

// POST /quizzes
func CreateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.MarksPerQuestion < 0 {
			http.Error(w, "marks_per_question must be positive", http.StatusBadRequest)
			return
		}
		if len(q.Questions) == 0 {
			http.Error(w, "at least one question required", http.StatusBadRequest)
			return
		}
		for i := range q.Questions {
			if q.Questions[i].ID == "" {
				q.Questions[i].ID = "q" + strconv.Itoa(i+1)
			}
		}
		if err := store.PutQuiz(q); err != nil {
			http.Error(w, "save quiz: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"id": q.ID})
	}
}

// ImportQuizCSVHandler accepts a multipart upload of a question-bank CSV
// (columns: question, keywords) plus optional title and marks_per_question
// form fields.
// POST /quizzes/import
func ImportQuizCSVHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		questions, err := csvio.ReadQuestions(f)
		if err != nil {
			http.Error(w, "parse csv: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(questions) == 0 {
			http.Error(w, "no questions in CSV", http.StatusBadRequest)
			return
		}

		marks := 0.0
		if v := r.FormValue("marks_per_question"); v != "" {
			m, err := strconv.ParseFloat(v, 64)
			if err != nil || m <= 0 {
				http.Error(w, "marks_per_question must be positive", http.StatusBadRequest)
				return
			}
			marks = m
		}
		title := r.FormValue("title")
		if title == "" {
			title = "Imported quiz"
		}

		q := quiz.Quiz{
			ID:               uuid.NewString(),
			Title:            title,
			MarksPerQuestion: marks,
			Questions:        questions,
		}
		if err := store.PutQuiz(q); err != nil {
			http.Error(w, "save quiz: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"id": q.ID, "questions": len(questions)})
	}
}

// GET /quizzes/{quizID}
// Students get the keyword-stripped view; quiz authors see the full quiz.
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "quizID"))
		if id == "" {
			http.Error(w, "quizID required", http.StatusBadRequest)
			return
		}
		role := auth.RoleFromContext(r.Context())
		var (
			q   quiz.Quiz
			err error
		)
		if role == "teacher" || role == "admin" {
			q, err = store.GetQuizAdmin(r.Context(), id)
		} else {
			q, err = store.GetQuiz(id)
		}
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, quiz.ErrQuizNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, q)
	}
}
