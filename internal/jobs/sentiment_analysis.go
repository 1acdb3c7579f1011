package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"survai/internal/cache"
	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/service"
)

// DefaultSentimentTimeout is the hard ceiling on one analysis
const DefaultSentimentTimeout = 3 * time.Minute

const sentimentRefresh = 3000 * time.Millisecond

// TimeoutMessage is shown to subscribers when an analysis hits its ceiling
const TimeoutMessage = "Analysis timed out - too many responses. Please try with fewer responses."

// ErrJobTimeout means the job ran past its ceiling
var ErrJobTimeout = errors.New("job timed out")

// SentimentAnalysisJob runs the survey-wide sentiment report and caches it
type SentimentAnalysisJob struct {
	id       string
	surveyID string
	analyzer *service.SentimentAnalyzer
	cache    cache.SentimentCache
	timeout  time.Duration
	pacing   time.Duration
	log      *logger.Logger
}

func NewSentimentAnalysisJob(
	id, surveyID string,
	analyzer *service.SentimentAnalyzer,
	sentimentCache cache.SentimentCache,
	timeout, pacing time.Duration,
	log *logger.Logger,
) *SentimentAnalysisJob {
	if id == "" {
		id = NewJobID()
	}
	if timeout <= 0 {
		timeout = DefaultSentimentTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SentimentAnalysisJob{
		id:       id,
		surveyID: surveyID,
		analyzer: analyzer,
		cache:    sentimentCache,
		timeout:  timeout,
		pacing:   pacing,
		log:      log.With("service", "SentimentAnalysisJob", "jobId", id),
	}
}

func (j *SentimentAnalysisJob) ID() string                 { return j.id }
func (j *SentimentAnalysisJob) SurveyID() string           { return j.surveyID }
func (j *SentimentAnalysisJob) Operation() model.Operation { return model.OpSentimentAnalysis }
func (j *SentimentAnalysisJob) Ceiling() time.Duration     { return j.timeout }

func (j *SentimentAnalysisJob) Run(ctx context.Context, t *Tracker) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	err := j.run(ctx, t)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		j.log.Error("sentiment analysis timed out", "surveyId", j.surveyID, "timeout", j.timeout)
		return fmt.Errorf("sentiment analysis after %s: %w", j.timeout, ErrJobTimeout)
	}
	return err
}

func (j *SentimentAnalysisJob) run(ctx context.Context, t *Tracker) error {
	t.Progress(0, "Starting AI sentiment analysis...")
	if err := pause(ctx, j.pacing); err != nil {
		return err
	}
	t.Progress(20, "Analyzing response sentiment...")

	report, err := j.analyzer.Analyze(ctx, j.surveyID, t.Progress)
	if err != nil {
		return err
	}

	t.Progress(90, "Generating insights...")
	if err := pause(ctx, j.pacing); err != nil {
		return err
	}
	if err := j.cache.Set(ctx, report); err != nil {
		return fmt.Errorf("cache sentiment report: %w", err)
	}
	t.Progress(95, "Finalizing analysis...")

	j.log.Info("sentiment analysis cached", "surveyId", j.surveyID, "priority", report.RecommendationPriority)
	t.Complete("Sentiment analysis complete", report, sentimentRefresh)
	return nil
}
