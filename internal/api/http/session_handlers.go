package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keymark-edu/keymark/internal/auth"
	"github.com/keymark-edu/keymark/internal/ocr"
	"github.com/keymark-edu/keymark/internal/quiz"
	"github.com/keymark-edu/keymark/internal/quiz/csvio"
	"github.com/keymark-edu/keymark/internal/rbac"
	"github.com/keymark-edu/keymark/internal/storage"
)

// POST /sessions  { "quiz_id": "..." }
func CreateSessionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		userID := auth.SubjectFromContext(r.Context())
		s, err := store.NewSession(req.QuizID, userID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, quiz.ErrQuizNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, s)
	}
}

// SubmitAnswerHandler scores the session's current question. The answer is
// either JSON {"answer_text": "...", "skip": false} or a multipart form with
// an "image" file, which is OCR-extracted into the same answer-text path
// (and kept in the blob store for review).
// POST /sessions/{sessionID}/answers
func SubmitAnswerHandler(store quiz.Store, extractor ocr.Extractor, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		if sessionID == "" {
			http.Error(w, "sessionID required", http.StatusBadRequest)
			return
		}
		if s, err := store.GetSession(sessionID); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		} else if !canViewSession(r, s) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var answerText string
		var skip bool
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			text, err := extractFromUpload(r, sessionID, extractor, blobs)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			answerText = text
		} else {
			var req struct {
				AnswerText string `json:"answer_text"`
				Skip       bool   `json:"skip,omitempty"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
				return
			}
			answerText, skip = req.AnswerText, req.Skip
		}

		s, err := store.SubmitAnswer(sessionID, answerText, skip)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, quiz.ErrSessionNotFound):
				status = http.StatusNotFound
			case errors.Is(err, quiz.ErrSessionDone), errors.Is(err, quiz.ErrSessionConflict):
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, s)
	}
}

func extractFromUpload(r *http.Request, sessionID string, extractor ocr.Extractor, blobs storage.BlobStore) (string, error) {
	if extractor == nil {
		return "", errors.New("image answers not supported: OCR disabled")
	}
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		return "", err
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		return "", errors.New("image field required")
	}
	defer f.Close()

	var buf bytes.Buffer
	text, err := extractor.Extract(r.Context(), io.TeeReader(f, &buf))
	if err != nil {
		return "", err
	}
	if blobs != nil {
		key := "answers/" + sessionID + "/" + hdr.Filename
		_, _ = blobs.Put(key, &buf)
	}
	return text, nil
}

// GET /sessions/{sessionID}
func GetSessionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := fetchSession(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, s)
	}
}

// GET /sessions/{sessionID}/results
func GetResultsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := fetchSession(w, r, store)
		if !ok {
			return
		}
		q, err := store.GetQuizAdmin(r.Context(), s.QuizID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, quiz.ResultsFor(q, s))
	}
}

// ExportResultsHandler streams the session results as CSV and keeps a copy
// in the blob store under exports/.
// GET /sessions/{sessionID}/export
func ExportResultsHandler(store quiz.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := fetchSession(w, r, store)
		if !ok {
			return
		}
		q, err := store.GetQuizAdmin(r.Context(), s.QuizID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		res := quiz.ResultsFor(q, s)

		var buf bytes.Buffer
		if err := csvio.WriteResults(&buf, q, res); err != nil {
			http.Error(w, "export: "+err.Error(), http.StatusInternalServerError)
			return
		}
		name := csvio.ResultsFileName(time.Now())
		if blobs != nil {
			_, _ = blobs.Put("exports/"+s.ID+"/"+name, bytes.NewReader(buf.Bytes()))
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		_, _ = w.Write(buf.Bytes())
	}
}

func fetchSession(w http.ResponseWriter, r *http.Request, store quiz.Store) (quiz.Session, bool) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		http.Error(w, "sessionID required", http.StatusBadRequest)
		return quiz.Session{}, false
	}
	s, err := store.GetSession(sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, quiz.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return quiz.Session{}, false
	}
	if !canViewSession(r, s) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return quiz.Session{}, false
	}
	return s, true
}

var sessionChecker = rbac.NewChecker(nil)

func canViewSession(r *http.Request, s quiz.Session) bool {
	ctx := r.Context()
	if sessionChecker.Has(auth.RoleFromContext(ctx), "session:view-all") {
		return true
	}
	return s.UserID == auth.SubjectFromContext(ctx)
}
