package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/keymark-edu/keymark/internal/api/http"
	"github.com/keymark-edu/keymark/internal/auth"
	"github.com/keymark-edu/keymark/internal/config"
	"github.com/keymark-edu/keymark/internal/db"
	"github.com/keymark-edu/keymark/internal/ocr"
	"github.com/keymark-edu/keymark/internal/quiz"
	"github.com/keymark-edu/keymark/internal/rbac"
	"github.com/keymark-edu/keymark/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := quiz.NewSQLStore(dbh, cfg.DBDriver)

	// --- Blob store (answer images, result exports) ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- OCR ---
	var extractor ocr.Extractor
	if cfg.EnableOCR && ocr.Available() {
		extractor = ocr.NewTesseract(cfg.OCRLang)
	} else if cfg.EnableOCR {
		log.Printf("tesseract not found, image answers disabled")
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, cfg.AdminUser, cfg.AdminPassHash))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Stateless scoring + authoring previews
		pr.With(rbac.Require("score:preview")).
			Post("/score", api.ScoreHandler(cfg.MarksPerQuestion))
		pr.With(rbac.Require("score:preview")).
			Post("/keywords/parse", api.ParseKeywordsHandler())
		pr.With(rbac.Require("score:preview")).
			Post("/normalize", api.NormalizeHandler())

		// Quiz authoring (teacher-only)
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", api.CreateQuizHandler(store))
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes/import", api.ImportQuizCSVHandler(store))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(store))

		// Student flow
		pr.With(rbac.Require("session:create")).
			Post("/sessions", api.CreateSessionHandler(store))
		pr.With(rbac.Require("session:answer")).
			Post("/sessions/{sessionID}/answers", api.SubmitAnswerHandler(store, extractor, bs))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions/{sessionID}", api.GetSessionHandler(store))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions/{sessionID}/results", api.GetResultsHandler(store))
		pr.With(rbac.RequireAny("session:view-own", "results:export")).
			Get("/sessions/{sessionID}/export", api.ExportResultsHandler(store, bs))

		// Archived answer images and exports (teacher-only)
		pr.Route("/blobs", func(br chi.Router) {
			br.Use(rbac.Require("results:export"))
			api.MountBlobs(br, bs)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
