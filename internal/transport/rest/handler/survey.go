package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/service"
	"survai/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

const defaultHistoryLimit = 10

// SurveyLoader fetches surveys; a missing survey is (nil, nil)
type SurveyLoader interface {
	GetByID(ctx context.Context, id string) (*model.Survey, error)
}

type Reviewer interface {
	Review(ctx context.Context, survey *model.Survey) *model.Review
}

type InsightProvider interface {
	Metrics(ctx context.Context, surveyID string) (*model.SurveyMetrics, error)
	Analyze(ctx context.Context, surveyID, generatedBy string) (*model.SurveyInsight, error)
	History(ctx context.Context, surveyID string, limit int) ([]*model.SurveyInsight, error)
}

type QuestionSummarizer interface {
	Summarize(ctx context.Context, surveyID, questionID string) (*model.QuestionSummary, error)
}

type SurveyDrafter interface {
	Generate(ctx context.Context, prompt, orgID, createdBy string) (*model.Survey, error)
}

// SurveyHandler handles the survey analytics endpoints
type SurveyHandler struct {
	surveys   SurveyLoader
	reviewer  Reviewer
	insights  InsightProvider
	summaries QuestionSummarizer
	drafter   SurveyDrafter
	log       *logger.Logger
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveys SurveyLoader, reviewer Reviewer, insights InsightProvider, summaries QuestionSummarizer, drafter SurveyDrafter, log *logger.Logger) *SurveyHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SurveyHandler{
		surveys:   surveys,
		reviewer:  reviewer,
		insights:  insights,
		summaries: summaries,
		drafter:   drafter,
		log:       log.With("service", "SurveyHandler"),
	}
}

// GenerateSurveyRequest is the request body for drafting a survey
type GenerateSurveyRequest struct {
	Prompt         string `json:"prompt"`
	OrganizationID string `json:"organization_id"`
}

// Metrics handles GET /v1/surveys/{id}/metrics
func (h *SurveyHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.insights.Metrics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// Review handles POST /v1/surveys/{id}/review
func (h *SurveyHandler) Review(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveys.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if survey == nil {
		writeServiceError(w, h.log, service.ErrSurveyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.reviewer.Review(r.Context(), survey))
}

// Analyze handles POST /v1/surveys/{id}/insights
func (h *SurveyHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	insight, err := h.insights.Analyze(r.Context(), mux.Vars(r)["id"], hostID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

// History handles GET /v1/surveys/{id}/insights
func (h *SurveyHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := h.insights.History(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if history == nil {
		history = []*model.SurveyInsight{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"insights": history})
}

// QuestionSummary handles GET /v1/surveys/{id}/questions/{qid}/summary
func (h *SurveyHandler) QuestionSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	summary, err := h.summaries.Summarize(r.Context(), vars["id"], vars["qid"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Generate handles POST /v1/surveys/generate
func (h *SurveyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req GenerateSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.drafter.Generate(r.Context(), req.Prompt, req.OrganizationID, hostID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}
