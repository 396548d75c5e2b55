package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/keymark-edu/keymark/internal/api/http"
	"github.com/keymark-edu/keymark/internal/auth"
	"github.com/keymark-edu/keymark/internal/keyword"
	"github.com/keymark-edu/keymark/internal/quiz"
)

// identity stamps a fixed subject/role on every request, standing in for the
// JWT middleware.
func identity(sub, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithSubject(r.Context(), sub)
			ctx = auth.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRouter(store quiz.Store, sub, role string) http.Handler {
	r := chi.NewRouter()
	r.Use(identity(sub, role))
	r.Post("/score", api.ScoreHandler(10))
	r.Post("/keywords/parse", api.ParseKeywordsHandler())
	r.Post("/normalize", api.NormalizeHandler())
	r.Post("/quizzes", api.CreateQuizHandler(store))
	r.Get("/quizzes/{quizID}", api.GetQuizHandler(store))
	r.Post("/sessions", api.CreateSessionHandler(store))
	r.Post("/sessions/{sessionID}/answers", api.SubmitAnswerHandler(store, nil, nil))
	r.Get("/sessions/{sessionID}", api.GetSessionHandler(store))
	r.Get("/sessions/{sessionID}/results", api.GetResultsHandler(store))
	r.Get("/sessions/{sessionID}/export", api.ExportResultsHandler(store, nil))
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestScoreHandler(t *testing.T) {
	h := newRouter(quiz.NewInMemoryStore(), "alex", "student")
	w := postJSON(t, h, "/score", map[string]interface{}{
		"answer_text": "plants need water",
		"keywords":    "water:1; sunlight:3",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res keyword.ScoreResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Score != 2.5 || res.PercentageForQuestion != 25 {
		t.Errorf("got score=%v pct=%v, want 2.5/25", res.Score, res.PercentageForQuestion)
	}
}

func TestParseKeywordsHandler(t *testing.T) {
	h := newRouter(quiz.NewInMemoryStore(), "t", "teacher")
	w := postJSON(t, h, "/keywords/parse", map[string]string{"keywords": "sun|solar energy:2"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res struct {
		Specs []keyword.Spec `json:"specs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Specs) != 1 || res.Specs[0].Weight != 2 || len(res.Specs[0].Alternatives) != 2 {
		t.Errorf("specs = %+v", res.Specs)
	}
}

func TestNormalizeHandler(t *testing.T) {
	h := newRouter(quiz.NewInMemoryStore(), "t", "teacher")
	w := postJSON(t, h, "/normalize", map[string]string{"text": "Hello, World!"})
	var res map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["normalized"] != "hello world" {
		t.Errorf("normalized = %q", res["normalized"])
	}
}

func seedQuiz(t *testing.T, store quiz.Store) {
	t.Helper()
	err := store.PutQuiz(quiz.Quiz{
		ID:               "quiz-1",
		Title:            "Plants",
		MarksPerQuestion: 10,
		Questions: []quiz.Question{
			{ID: "q1", Prompt: "What do plants need?", Keywords: "water:1; sunlight:3"},
			{ID: "q2", Prompt: "What gas?", Keywords: "carbon dioxide|co2"},
		},
	})
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
}

func TestGetQuizRoleViews(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)

	var student quiz.Quiz
	w := get(newRouter(store, "alex", "student"), "/quizzes/quiz-1")
	if err := json.Unmarshal(w.Body.Bytes(), &student); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if student.Questions[0].Keywords != "" {
		t.Error("student view leaked keywords")
	}

	var teacher quiz.Quiz
	w = get(newRouter(store, "pat", "teacher"), "/quizzes/quiz-1")
	if err := json.Unmarshal(w.Body.Bytes(), &teacher); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if teacher.Questions[0].Keywords == "" {
		t.Error("teacher view missing keywords")
	}
}

func TestSessionFlowOverHTTP(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)
	h := newRouter(store, "alex", "student")

	w := postJSON(t, h, "/sessions", map[string]string{"quiz_id": "quiz-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}
	var s quiz.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = postJSON(t, h, "/sessions/"+s.ID+"/answers", map[string]interface{}{
		"answer_text": "water and sunlight",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("answer: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(t, h, "/sessions/"+s.ID+"/answers", map[string]interface{}{"skip": true})
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Status != "completed" {
		t.Fatalf("status = %s, want completed", s.Status)
	}

	// third answer is rejected
	w = postJSON(t, h, "/sessions/"+s.ID+"/answers", map[string]interface{}{"answer_text": "x"})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}

	// results visible to the owner
	w = get(h, "/sessions/"+s.ID+"/results")
	var res quiz.Results
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if res.TotalScore != 10.0 || res.MaxScore != 20.0 {
		t.Errorf("totals = %v/%v, want 10/20", res.TotalScore, res.MaxScore)
	}
}

func TestSessionOwnership(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)
	owner := newRouter(store, "alex", "student")

	w := postJSON(t, owner, "/sessions", map[string]string{"quiz_id": "quiz-1"})
	var s quiz.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}

	other := newRouter(store, "sam", "student")
	if w := get(other, "/sessions/"+s.ID); w.Code != http.StatusForbidden {
		t.Errorf("other student: status = %d, want 403", w.Code)
	}

	teacher := newRouter(store, "pat", "teacher")
	if w := get(teacher, "/sessions/"+s.ID); w.Code != http.StatusOK {
		t.Errorf("teacher: status = %d, want 200", w.Code)
	}
}

func TestExportResultsCSV(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store)
	h := newRouter(store, "alex", "student")

	w := postJSON(t, h, "/sessions", map[string]string{"quiz_id": "quiz-1"})
	var s quiz.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	postJSON(t, h, "/sessions/"+s.ID+"/answers", map[string]string{"answer_text": "water"})
	postJSON(t, h, "/sessions/"+s.ID+"/answers", map[string]string{"answer_text": "co2"})

	w = get(h, "/sessions/"+s.ID+"/export")
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content-type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "quiz_results_") {
		t.Errorf("content-disposition = %q", cd)
	}
	if body := w.Body.String(); !strings.Contains(body, "What do plants need?") {
		t.Errorf("export missing prompt:\n%s", body)
	}
}

func TestImportQuizCSV(t *testing.T) {
	store := quiz.NewInMemoryStore()
	r := chi.NewRouter()
	r.Use(identity("pat", "teacher"))
	r.Post("/quizzes/import", api.ImportQuizCSVHandler(store))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "questions.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte("question,keywords\nWhat do plants need?,\"water:1; sunlight:3\"\n"))
	mw.WriteField("title", "Plants")
	mw.WriteField("marks_per_question", "5")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/quizzes/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		ID        string `json:"id"`
		Questions int    `json:"questions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Questions != 1 {
		t.Errorf("questions = %d, want 1", res.Questions)
	}
	q, err := store.GetQuizAdmin(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("GetQuizAdmin: %v", err)
	}
	if q.MarksPerQuestion != 5 || q.Title != "Plants" {
		t.Errorf("quiz = %+v", q)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	h := newRouter(quiz.NewInMemoryStore(), "pat", "teacher")
	w := postJSON(t, h, "/quizzes", map[string]interface{}{"title": "empty"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
