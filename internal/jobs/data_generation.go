package jobs

import (
	"context"
	"fmt"
	"time"

	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/repository"
	"survai/internal/service"
)

const (
	dataGenerationCeiling = 30 * time.Minute
	dataGenerationRefresh = 2000 * time.Millisecond
)

// DataGenerationResult is the payload of the completed event
type DataGenerationResult struct {
	AssignmentsCreated int `json:"assignments_created"`
	ResponsesCreated   int `json:"responses_created"`
}

// DataGenerationJob fills a survey with synthetic assignments and responses
type DataGenerationJob struct {
	id          string
	surveyID    string
	assignments int
	responses   int
	surveys     repository.SurveyRepo
	generator   *service.DataGenerator
	pacing      time.Duration
	log         *logger.Logger
}

func NewDataGenerationJob(
	id, surveyID string,
	assignments, responses int,
	surveys repository.SurveyRepo,
	generator *service.DataGenerator,
	pacing time.Duration,
	log *logger.Logger,
) *DataGenerationJob {
	if id == "" {
		id = NewJobID()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DataGenerationJob{
		id:          id,
		surveyID:    surveyID,
		assignments: assignments,
		responses:   responses,
		surveys:     surveys,
		generator:   generator,
		pacing:      pacing,
		log:         log.With("service", "DataGenerationJob", "jobId", id),
	}
}

func (j *DataGenerationJob) ID() string                 { return j.id }
func (j *DataGenerationJob) SurveyID() string           { return j.surveyID }
func (j *DataGenerationJob) Operation() model.Operation { return model.OpDataGeneration }
func (j *DataGenerationJob) Ceiling() time.Duration     { return dataGenerationCeiling }

// Run reports progress as items done over assignments plus responses.
// A response that fails to generate is logged and skipped.
func (j *DataGenerationJob) Run(ctx context.Context, t *Tracker) error {
	if err := service.ValidateGenerationInput(j.assignments, j.responses); err != nil {
		return err
	}
	survey, err := j.surveys.GetByID(ctx, j.surveyID)
	if err != nil {
		return fmt.Errorf("load survey: %w", err)
	}
	if survey == nil {
		return service.ErrSurveyNotFound
	}

	total := j.assignments + j.responses
	t.Progress(0, "Starting data generation...")
	if err := pause(ctx, j.pacing); err != nil {
		return err
	}

	assignees, err := j.generator.CreateAssignments(ctx, survey, j.assignments)
	if err != nil {
		return err
	}
	done := len(assignees)
	t.Step(done, total, fmt.Sprintf("Created %d assignments", len(assignees)))
	if err := pause(ctx, j.pacing); err != nil {
		return err
	}

	picked := j.generator.PickForResponses(assignees, j.responses)
	created := 0
	for i, a := range picked {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := j.generator.CreateResponseForAssignment(ctx, survey, a.Assignment, a.User); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			j.log.Warn("response generation failed", "assignmentId", a.Assignment.ID, "error", err)
		} else {
			created++
			t.Item(i+1, len(picked), fmt.Sprintf("Response %d/%d - %s", i+1, len(picked), a.User.DisplayName()))
		}
		done++
		t.Step(done, total, fmt.Sprintf("Generated %d/%d responses", i+1, len(picked)))
		if err := pause(ctx, j.pacing); err != nil {
			return err
		}
	}

	result := DataGenerationResult{AssignmentsCreated: len(assignees), ResponsesCreated: created}
	j.log.Info("data generation finished", "surveyId", j.surveyID, "assignments", result.AssignmentsCreated, "responses", result.ResponsesCreated)
	t.Complete(fmt.Sprintf("Created %d assignments and %d responses", result.AssignmentsCreated, result.ResponsesCreated), result, dataGenerationRefresh)
	return nil
}

// pause waits d between steps so subscribers can render them
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
