package model

import "time"

// Operation names a long-running background operation
type Operation string

const (
	OpDataGeneration    Operation = "data_generation"
	OpSentimentAnalysis Operation = "sentiment_analysis"
)

// Target is the stable UI region anchor replaced by progress events
func (o Operation) Target() string {
	switch o {
	case OpDataGeneration:
		return "data-generation-status"
	case OpSentimentAnalysis:
		return "sentiment-analysis-status"
	}
	return string(o) + "-status"
}

// Valid reports whether o is a known operation
func (o Operation) Valid() bool {
	return o == OpDataGeneration || o == OpSentimentAnalysis
}

// ChannelName is the broadcast channel for one survey and operation
func ChannelName(surveyID string, op Operation) string {
	return "survey_" + surveyID + "_" + string(op)
}

// SurveyChannel carries survey-level mutation events (responses completed, resets)
func SurveyChannel(surveyID string) string {
	return "survey_" + surveyID
}

type ProgressStatus string

const (
	ProgressQueued    ProgressStatus = "queued"
	ProgressRunning   ProgressStatus = "progress"
	ProgressItem      ProgressStatus = "item" // appended, not replaced
	ProgressCompleted ProgressStatus = "completed"
	ProgressError     ProgressStatus = "error"
	ProgressRefresh   ProgressStatus = "refresh"
)

// ProgressEvent is a transient notification for one in-flight job. Never persisted.
type ProgressEvent struct {
	JobID          string         `json:"job_id"`
	SurveyID       string         `json:"survey_id"`
	Operation      Operation      `json:"operation"`
	Status         ProgressStatus `json:"status"`
	Target         string         `json:"target"`
	Message        string         `json:"message"`
	Percentage     int            `json:"percentage"`
	Current        int            `json:"current,omitempty"`
	Total          int            `json:"total,omitempty"`
	Result         interface{}    `json:"result,omitempty"`
	RefreshAfterMS int            `json:"refresh_after_ms,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Replaces reports whether the event supersedes the previous one in its region
func (e *ProgressEvent) Replaces() bool {
	return e.Status != ProgressItem
}

// Terminal reports whether the event ends the job
func (e *ProgressEvent) Terminal() bool {
	return e.Status == ProgressCompleted || e.Status == ProgressError
}
