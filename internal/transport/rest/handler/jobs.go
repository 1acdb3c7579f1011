package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"survai/internal/cache"
	"survai/internal/jobs"
	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/service"

	"github.com/gorilla/mux"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

type JobFactory interface {
	DataGeneration(surveyID string, assignments, responses int) jobs.Job
	SentimentAnalysis(surveyID string) jobs.Job
}

// SentimentPrechecker rejects surveys without enough completed responses
type SentimentPrechecker interface {
	Precheck(ctx context.Context, surveyID string) error
}

type AssignmentResetter interface {
	ResetAssignments(ctx context.Context, surveyID string) (*service.ResetResult, error)
}

// JobHandler triggers background jobs. Every trigger is validated up
// front and answered before the job runs.
type JobHandler struct {
	surveys   SurveyLoader
	runner    Enqueuer
	factory   JobFactory
	precheck  SentimentPrechecker
	sentiment cache.SentimentCache
	resetter  AssignmentResetter
	log       *logger.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(surveys SurveyLoader, runner Enqueuer, factory JobFactory, precheck SentimentPrechecker, sentiment cache.SentimentCache, resetter AssignmentResetter, log *logger.Logger) *JobHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &JobHandler{
		surveys:   surveys,
		runner:    runner,
		factory:   factory,
		precheck:  precheck,
		sentiment: sentiment,
		resetter:  resetter,
		log:       log.With("service", "JobHandler"),
	}
}

// DataGenerationRequest is the request body for generating synthetic data
type DataGenerationRequest struct {
	Assignments int `json:"assignments"`
	Responses   int `json:"responses"`
}

// JobAccepted is returned when a job is queued
type JobAccepted struct {
	JobID     string          `json:"job_id"`
	SurveyID  string          `json:"survey_id"`
	Operation model.Operation `json:"operation"`
	Channel   string          `json:"channel"`
}

func (h *JobHandler) enqueue(w http.ResponseWriter, r *http.Request, job jobs.Job) {
	if err := h.runner.Enqueue(r.Context(), job); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobAccepted{
		JobID:     job.ID(),
		SurveyID:  job.SurveyID(),
		Operation: job.Operation(),
		Channel:   model.ChannelName(job.SurveyID(), job.Operation()),
	})
}

func (h *JobHandler) requireSurvey(ctx context.Context, id string) error {
	survey, err := h.surveys.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if survey == nil {
		return service.ErrSurveyNotFound
	}
	return nil
}

// GenerateData handles POST /v1/surveys/{id}/data-generation
func (h *JobHandler) GenerateData(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["id"]

	var req DataGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := service.ValidateGenerationInput(req.Assignments, req.Responses); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if err := h.requireSurvey(r.Context(), surveyID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.enqueue(w, r, h.factory.DataGeneration(surveyID, req.Assignments, req.Responses))
}

// AnalyzeSentiment handles POST /v1/surveys/{id}/sentiment-analysis
func (h *JobHandler) AnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["id"]
	if err := h.precheck.Precheck(r.Context(), surveyID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	h.enqueue(w, r, h.factory.SentimentAnalysis(surveyID))
}

// SentimentReport handles GET /v1/surveys/{id}/sentiment-analysis
func (h *JobHandler) SentimentReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.sentiment.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "no sentiment analysis available")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ResetAssignments handles POST /v1/surveys/{id}/reset-assignments
func (h *JobHandler) ResetAssignments(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["id"]
	if err := h.requireSurvey(r.Context(), surveyID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	res, err := h.resetter.ResetAssignments(r.Context(), surveyID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if err := h.sentiment.Delete(r.Context(), surveyID); err != nil {
		h.log.Warn("drop cached sentiment failed", "surveyId", surveyID, "error", err)
	}
	writeJSON(w, http.StatusOK, res)
}
