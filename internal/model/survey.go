package model

import (
	"sort"
	"time"
)

// SurveyStatus is the publishing state of a survey
type SurveyStatus string

const (
	SurveyDraft     SurveyStatus = "draft"
	SurveyPublished SurveyStatus = "published"
	SurveyClosed    SurveyStatus = "closed"
	SurveyArchived  SurveyStatus = "archived"
)

// Survey is owned by an organization and holds its questions inline.
// Rates and averages are derived at read time (see service.ComputeMetrics).
type Survey struct {
	ID             string       `json:"id" bson:"_id"`
	OrganizationID string       `json:"organization_id" bson:"organizationId"`
	CreatedBy      string       `json:"created_by" bson:"createdBy"`
	Title          string       `json:"title" bson:"title"`
	Description    string       `json:"description" bson:"description"`
	AIPrompt       string       `json:"ai_prompt,omitempty" bson:"aiPrompt,omitempty"` // prompt used to generate the draft
	Status         SurveyStatus `json:"status" bson:"status"`
	ResponseLimit  int          `json:"response_limit,omitempty" bson:"responseLimit,omitempty"`
	StartsAt       *time.Time   `json:"starts_at,omitempty" bson:"startsAt,omitempty"`
	EndsAt         *time.Time   `json:"ends_at,omitempty" bson:"endsAt,omitempty"`
	Questions      []Question   `json:"questions" bson:"questions"`
	CreatedAt      time.Time    `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time    `json:"updated_at" bson:"updatedAt"`
}

// QuestionType keys the question-type registry
type QuestionType string

const (
	QuestionText  QuestionType = "text"
	QuestionScale QuestionType = "scale"

	// Legacy variants
	QuestionPickOne QuestionType = "pick_one"
	QuestionPickAny QuestionType = "pick_any"
	QuestionEmail   QuestionType = "email"
	QuestionURL     QuestionType = "url"
	QuestionNumber  QuestionType = "number"
	QuestionDate    QuestionType = "date"
)

// Question is a single survey item. Position is unique per survey and monotonic.
type Question struct {
	ID       string       `json:"id" bson:"id"`
	Text     string       `json:"question_text" bson:"text"`
	Type     QuestionType `json:"question_type" bson:"type"`
	Required bool         `json:"required" bson:"required"`
	Position int          `json:"position" bson:"position"`
	Options  []string     `json:"options,omitempty" bson:"options,omitempty"` // pick_one / pick_any
}

// OrderedQuestions returns the questions sorted by position
func (s *Survey) OrderedQuestions() []Question {
	out := make([]Question, len(s.Questions))
	copy(out, s.Questions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Question finds a question by id
func (s *Survey) Question(id string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// NextPosition returns a position greater than every existing one
func (s *Survey) NextPosition() int {
	max := 0
	for _, q := range s.Questions {
		if q.Position > max {
			max = q.Position
		}
	}
	return max + 1
}
