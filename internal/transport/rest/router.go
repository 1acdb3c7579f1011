package rest

import (
	"net/http"
	"strings"

	"survai/internal/cache"
	"survai/internal/jobs"
	"survai/internal/logger"
	"survai/internal/repository"
	"survai/internal/sentiment"
	"survai/internal/service"
	"survai/internal/transport/rest/handler"
	"survai/internal/transport/rest/middleware"
	"survai/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	Surveys          repository.SurveyRepo
	ReviewService    *service.ReviewService
	InsightService   *service.InsightService
	SummaryService   *service.SummaryService
	SurveyGenerator  *service.SurveyGeneratorService
	ResponseService  *service.ResponseService
	Analyzer         *service.SentimentAnalyzer
	Scorer           sentiment.Scorer
	SentimentCache   cache.SentimentCache
	Runner           *jobs.Runner
	JobFactory       *jobs.Factory
	WSHub            *ws.Hub
	CORSAllowOrigins string
	Log              *logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.Surveys, c.ReviewService, c.InsightService, c.SummaryService, c.SurveyGenerator, c.Log)
	jobHandler := handler.NewJobHandler(c.Surveys, c.Runner, c.JobFactory, c.Analyzer, c.SentimentCache, c.ResponseService, c.Log)
	sentimentHandler := handler.NewSentimentHandler(c.Scorer)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Log)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/surveys/{id}/{operation}", wsHandler.SurveyWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/surveys/generate", surveyHandler.Generate).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{id}/metrics", surveyHandler.Metrics).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{id}/review", surveyHandler.Review).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{id}/insights", surveyHandler.Analyze).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{id}/insights", surveyHandler.History).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{id}/questions/{qid}/summary", surveyHandler.QuestionSummary).Methods("GET", "OPTIONS")

	hostRoutes.HandleFunc("/sentiment/score", sentimentHandler.Score).Methods("POST", "OPTIONS")

	// Job triggers (host only)
	hostRoutes.HandleFunc("/surveys/{id}/data-generation", jobHandler.GenerateData).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{id}/sentiment-analysis", jobHandler.AnalyzeSentiment).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{id}/sentiment-analysis", jobHandler.SentimentReport).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/surveys/{id}/reset-assignments", jobHandler.ResetAssignments).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if strings.TrimSpace(allowedOrigins) == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
