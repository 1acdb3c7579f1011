package model

import "time"

// AssignmentStatus is derived from the completed flag and the response link
type AssignmentStatus string

const (
	AssignmentNotStarted AssignmentStatus = "not_started"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// OverdueAfter is how long an assignment may stay incomplete
const OverdueAfter = 7 * 24 * time.Hour

// Assignment records that a user owes a response to a survey.
// (SurveyID, UserID) is unique. Completed is true iff CompletedAt is set.
type Assignment struct {
	ID          string     `json:"id" bson:"_id"`
	SurveyID    string     `json:"survey_id" bson:"surveyId"`
	UserID      string     `json:"user_id" bson:"userId"`
	AssignedBy  string     `json:"assigned_by,omitempty" bson:"assignedBy,omitempty"`
	AssignedAt  time.Time  `json:"assigned_at" bson:"assignedAt"`
	Completed   bool       `json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completedAt,omitempty"`
	ResponseID  string     `json:"response_id,omitempty" bson:"responseId,omitempty"`
}

// Status walks not_started -> in_progress -> completed
func (a *Assignment) Status() AssignmentStatus {
	if a.Completed {
		return AssignmentCompleted
	}
	if a.ResponseID != "" {
		return AssignmentInProgress
	}
	return AssignmentNotStarted
}

// Overdue reports whether the assignment is incomplete more than a week after assignment
func (a *Assignment) Overdue(now time.Time) bool {
	return !a.Completed && now.Sub(a.AssignedAt) > OverdueAfter
}
