package model

import (
	"math"
	"strings"
	"time"
)

// Response is one respondent's submission. Presence of CompletedAt means completed.
type Response struct {
	ID           string     `json:"id" bson:"_id"`
	SurveyID     string     `json:"survey_id" bson:"surveyId"`
	UserID       string     `json:"user_id,omitempty" bson:"userId,omitempty"`
	AssignmentID string     `json:"assignment_id,omitempty" bson:"assignmentId,omitempty"`
	SessionID    string     `json:"session_id,omitempty" bson:"sessionId,omitempty"` // required when anonymous
	StartedAt    time.Time  `json:"started_at" bson:"startedAt"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" bson:"completedAt,omitempty"`
	Answers      []Answer   `json:"answers" bson:"answers"`
	CreatedAt    time.Time  `json:"created_at" bson:"createdAt"`
}

// Answer is the value for one question within a response
type Answer struct {
	QuestionID string `json:"question_id" bson:"questionId"`
	Value      string `json:"value" bson:"value"`
}

// Completed reports whether the response has been submitted
func (r *Response) Completed() bool {
	return r.CompletedAt != nil
}

// TimeToComplete returns minutes from start to completion (1 decimal), 0 if incomplete
func (r *Response) TimeToComplete() float64 {
	if r.CompletedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	mins := r.CompletedAt.Sub(r.StartedAt).Minutes()
	return math.Round(mins*10) / 10
}

// AnswerFor returns the trimmed answer value for a question
func (r *Response) AnswerFor(questionID string) (string, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			v := strings.TrimSpace(a.Value)
			return v, v != ""
		}
	}
	return "", false
}
