package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/questiontype"
	"survai/internal/repository"
)

// Survey-level event types published on model.SurveyChannel
const (
	EventResponseCompleted = "response_completed"
	EventResponseDetached  = "response_detached"
	EventAssignmentsReset  = "assignments_reset"
)

// ResponseEvent is the payload of response events
type ResponseEvent struct {
	SurveyID     string     `json:"survey_id"`
	ResponseID   string     `json:"response_id"`
	AssignmentID string     `json:"assignment_id,omitempty"`
	UserID       string     `json:"user_id,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ResetResult counts what a reset removed
type ResetResult struct {
	SurveyID           string `json:"survey_id"`
	AssignmentsDeleted int64  `json:"assignments_deleted"`
	ResponsesDeleted   int64  `json:"responses_deleted"`
}

// ResponseService owns the response/assignment lifecycle. It keeps the
// assignment in step with its response and publishes an event after every
// successful mutation.
type ResponseService struct {
	assignments repository.AssignmentRepo
	responses   repository.ResponseRepo
	users       repository.UserRepo
	registry    *questiontype.Registry
	events      Broadcaster
	log         *logger.Logger
}

func NewResponseService(
	assignments repository.AssignmentRepo,
	responses repository.ResponseRepo,
	users repository.UserRepo,
	registry *questiontype.Registry,
	events Broadcaster,
	log *logger.Logger,
) *ResponseService {
	if log == nil {
		log = logger.Nop()
	}
	if events == nil {
		events = NopBroadcaster{}
	}
	return &ResponseService{
		assignments: assignments,
		responses:   responses,
		users:       users,
		registry:    registry,
		events:      events,
		log:         log.With("service", "ResponseService"),
	}
}

// ValidateAnswers checks every answer against its question and reports all problems
func (s *ResponseService) ValidateAnswers(survey *model.Survey, resp *model.Response) error {
	var problems []string
	given := make(map[string]string, len(resp.Answers))
	for _, a := range resp.Answers {
		if _, ok := survey.Question(a.QuestionID); !ok {
			problems = append(problems, fmt.Sprintf("question %s: %v", a.QuestionID, ErrQuestionNotFound))
			continue
		}
		given[a.QuestionID] = a.Value
	}
	for _, q := range survey.OrderedQuestions() {
		if err := s.registry.ValidateAnswer(q, given[q.ID]); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return &InputError{Field: "answers", Message: strings.Join(problems, "; ")}
	}
	return nil
}

// CompleteResponse validates and stores resp as completed at the given
// instant, then flips its assignment to completed and stamps the user.
func (s *ResponseService) CompleteResponse(ctx context.Context, survey *model.Survey, resp *model.Response, at time.Time) error {
	if resp.UserID == "" && resp.SessionID == "" {
		return &InputError{Field: "session_id", Message: "session_id is required for anonymous responses"}
	}
	if err := s.ValidateAnswers(survey, resp); err != nil {
		return err
	}

	resp.SurveyID = survey.ID
	resp.CompletedAt = &at
	if resp.StartedAt.IsZero() {
		resp.StartedAt = at
	}
	if resp.ID == "" {
		if _, err := s.responses.Create(ctx, resp); err != nil {
			return fmt.Errorf("create response: %w", err)
		}
	} else if err := s.responses.Update(ctx, resp); err != nil {
		return fmt.Errorf("update response: %w", err)
	}

	if resp.AssignmentID != "" {
		if err := s.assignments.MarkCompleted(ctx, resp.AssignmentID, resp.ID, at); err != nil {
			s.revertCompletion(ctx, resp)
			return fmt.Errorf("complete assignment: %w", err)
		}
	}
	if resp.UserID != "" {
		if err := s.users.TouchLastResponse(ctx, resp.UserID, at); err != nil {
			return fmt.Errorf("stamp user: %w", err)
		}
	}

	s.events.Broadcast(model.SurveyChannel(survey.ID), EventResponseCompleted, ResponseEvent{
		SurveyID:     survey.ID,
		ResponseID:   resp.ID,
		AssignmentID: resp.AssignmentID,
		UserID:       resp.UserID,
		CompletedAt:  resp.CompletedAt,
	})
	return nil
}

// revertCompletion puts resp back in progress after its assignment could
// not be completed, so neither side reads as completed alone
func (s *ResponseService) revertCompletion(ctx context.Context, resp *model.Response) {
	resp.CompletedAt = nil
	if err := s.responses.Update(ctx, resp); err != nil {
		s.log.Error("revert response completion failed", "responseId", resp.ID, "assignmentId", resp.AssignmentID, "error", err)
	}
}

// DetachResponse unlinks a response from its assignment and reverts the
// assignment to not started
func (s *ResponseService) DetachResponse(ctx context.Context, responseID string) error {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return err
	}
	if resp == nil {
		return ErrResponseNotFound
	}
	if resp.AssignmentID == "" {
		return nil
	}

	assignmentID := resp.AssignmentID
	if err := s.assignments.Detach(ctx, assignmentID); err != nil {
		return fmt.Errorf("detach assignment: %w", err)
	}
	resp.AssignmentID = ""
	if err := s.responses.Update(ctx, resp); err != nil {
		return fmt.Errorf("update response: %w", err)
	}

	s.events.Broadcast(model.SurveyChannel(resp.SurveyID), EventResponseDetached, ResponseEvent{
		SurveyID:     resp.SurveyID,
		ResponseID:   resp.ID,
		AssignmentID: assignmentID,
	})
	return nil
}

// ResetAssignments removes every assignment and response of a survey.
// Back-references are cleared first so no row ever points at a deleted one.
func (s *ResponseService) ResetAssignments(ctx context.Context, surveyID string) (*ResetResult, error) {
	if err := s.assignments.ClearResponseLinks(ctx, surveyID); err != nil {
		return nil, fmt.Errorf("clear response links: %w", err)
	}
	if err := s.responses.ClearAssignmentLinks(ctx, surveyID); err != nil {
		return nil, fmt.Errorf("clear assignment links: %w", err)
	}
	res := &ResetResult{SurveyID: surveyID}
	var err error
	if res.ResponsesDeleted, err = s.responses.DeleteBySurvey(ctx, surveyID); err != nil {
		return nil, fmt.Errorf("delete responses: %w", err)
	}
	if res.AssignmentsDeleted, err = s.assignments.DeleteBySurvey(ctx, surveyID); err != nil {
		return nil, fmt.Errorf("delete assignments: %w", err)
	}

	s.log.Info("assignments reset", "surveyId", surveyID, "assignments", res.AssignmentsDeleted, "responses", res.ResponsesDeleted)
	s.events.Broadcast(model.SurveyChannel(surveyID), EventAssignmentsReset, res)
	return res, nil
}
