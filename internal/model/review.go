package model

import (
	"strings"
	"time"
)

// Review is a survey design critique
type Review struct {
	OverallScore    int      `json:"overall_score"`
	PurposeClarity  string   `json:"purpose_clarity"`
	QuestionQuality string   `json:"question_quality"`
	SurveyFlow      string   `json:"survey_flow"`
	Suggestions     []string `json:"suggestions"`
	MissingElements []string `json:"missing_elements"`
	Strengths       []string `json:"strengths"`
	Source          string   `json:"source"`
}

// Summary kinds
const (
	SummaryNoData   = "no_data"
	SummarySimple   = "simple"
	SummaryAI       = "ai"
	SummaryFallback = "fallback"
)

// QuestionSummary condenses the free-text answers of one question
type QuestionSummary struct {
	QuestionID            string    `json:"question_id"`
	QuestionText          string    `json:"question_text"`
	ResponseCount         int       `json:"response_count"`
	Kind                  string    `json:"kind"`
	KeyThemes             []string  `json:"key_themes"`
	OverallSentiment      string    `json:"overall_sentiment"`
	TopConcern            string    `json:"top_concern,omitempty"`
	TopPositive           string    `json:"top_positive,omitempty"`
	Summary               string    `json:"summary"`
	ActionRecommendations []string  `json:"action_recommendations,omitempty"`
	PriorityLevel         string    `json:"priority_level,omitempty"`
	ResponsePatterns      string    `json:"response_patterns,omitempty"`
	GeneratedAt           time.Time `json:"generated_at"`
}

// ValidationError lists every violation found while checking an AI payload
// against its schema
type ValidationError struct {
	Schema     string
	Violations []string
}

func (e *ValidationError) Error() string {
	return e.Schema + " schema: " + strings.Join(e.Violations, "; ")
}

// Add records a violation
func (e *ValidationError) Add(v string) {
	e.Violations = append(e.Violations, v)
}

// OrNil returns nil when no violations were recorded
func (e *ValidationError) OrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}
