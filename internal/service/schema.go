package service

import (
	"fmt"
	"math"
	"strings"

	"survai/internal/model"
)

// Each validator checks a decoded AI payload against one schema and
// reports every violation at once. On success it returns the typed result.

var (
	summarySentiments = []string{"positive", "negative", "mixed", "neutral"}
	priorityLevels    = []string{"low", "medium", "high"}
)

// ValidateReview checks a survey review payload
func ValidateReview(raw map[string]interface{}) (*model.Review, error) {
	f := fields{raw: raw, verr: &ValidationError{Schema: "review"}}

	score, ok := f.number("overall_score", true)
	if ok {
		if score != math.Trunc(score) {
			f.verr.Add("overall_score must be an integer")
		} else if score < 1 || score > 10 {
			f.verr.Add("overall_score must be between 1 and 10")
		}
	}
	review := &model.Review{
		OverallScore:    int(score),
		PurposeClarity:  f.str("purpose_clarity", true),
		QuestionQuality: f.str("question_quality", true),
		SurveyFlow:      f.str("survey_flow", true),
		Suggestions:     f.strList("suggestions", true),
		MissingElements: f.strList("missing_elements", true),
		Strengths:       f.strList("strengths", true),
		Source:          "ai",
	}
	if err := f.verr.OrNil(); err != nil {
		return nil, err
	}
	return review, nil
}

// ValidateInsights checks an insights payload. department_insights is optional.
func ValidateInsights(raw map[string]interface{}) (*model.Insights, error) {
	f := fields{raw: raw, verr: &ValidationError{Schema: "insights"}}

	ins := &model.Insights{
		ExecutiveSummary:    f.str("executive_summary", true),
		KeyFindings:         f.strList("key_findings", true),
		SatisfactionDrivers: f.strList("satisfaction_drivers", true),
		AreasForImprovement: f.strList("areas_for_improvement", true),
		RiskIndicators:      f.strList("risk_indicators", true),
		RecommendedActions:  f.strList("recommended_actions", true),
		DepartmentInsights:  f.strMap("department_insights", false),
		Source:              "ai",
	}
	if err := f.verr.OrNil(); err != nil {
		return nil, err
	}
	if ins.DepartmentInsights == nil {
		ins.DepartmentInsights = map[string]string{}
	}
	return ins, nil
}

// ValidateSummary checks a per-question summary payload. Only the themes,
// the sentiment and the summary text are required.
func ValidateSummary(raw map[string]interface{}) (*model.QuestionSummary, error) {
	f := fields{raw: raw, verr: &ValidationError{Schema: "summary"}}

	sum := &model.QuestionSummary{
		KeyThemes:             f.strList("key_themes", true),
		OverallSentiment:      f.oneOf("overall_sentiment", summarySentiments, true),
		Summary:               f.str("summary", true),
		TopConcern:            f.str("top_concern", false),
		TopPositive:           f.str("top_positive", false),
		ActionRecommendations: f.strList("action_recommendations", false),
		PriorityLevel:         f.oneOf("priority_level", priorityLevels, false),
		ResponsePatterns:      f.str("response_patterns", false),
		Kind:                  model.SummaryAI,
	}
	if err := f.verr.OrNil(); err != nil {
		return nil, err
	}
	if sum.PriorityLevel == "" {
		sum.PriorityLevel = "medium"
	}
	return sum, nil
}

// SurveyDraft is a generated survey before it is persisted
type SurveyDraft struct {
	Title       string
	Description string
	Questions   []DraftQuestion
}

type DraftQuestion struct {
	Text     string
	Type     model.QuestionType
	Required bool
}

// ValidateSurveyDraft checks a generated survey. Question types must be in allowed.
func ValidateSurveyDraft(raw map[string]interface{}, allowed []model.QuestionType) (*SurveyDraft, error) {
	verr := &ValidationError{Schema: "survey"}
	draft := &SurveyDraft{}

	if s, ok := raw["title"].(string); ok && strings.TrimSpace(s) != "" {
		draft.Title = strings.TrimSpace(s)
	} else {
		verr.Add("Missing title")
	}
	if s, ok := raw["description"].(string); ok && strings.TrimSpace(s) != "" {
		draft.Description = strings.TrimSpace(s)
	} else {
		verr.Add("Missing description")
	}

	list, ok := raw["questions"].([]interface{})
	switch {
	case !ok:
		verr.Add("Missing questions array")
	case len(list) == 0:
		verr.Add("No questions provided")
	}
	for i, item := range list {
		q, _ := item.(map[string]interface{})
		var dq DraftQuestion
		if s, ok := q["question_text"].(string); ok && strings.TrimSpace(s) != "" {
			dq.Text = strings.TrimSpace(s)
		} else {
			verr.Add(fmt.Sprintf("Question %d: missing question_text", i+1))
		}
		t, _ := q["question_type"].(string)
		if !typeAllowed(model.QuestionType(t), allowed) {
			verr.Add(fmt.Sprintf("Question %d: invalid question_type", i+1))
		}
		dq.Type = model.QuestionType(t)
		if b, ok := q["required"].(bool); ok {
			dq.Required = b
		} else {
			verr.Add(fmt.Sprintf("Question %d: required must be boolean", i+1))
		}
		draft.Questions = append(draft.Questions, dq)
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return draft, nil
}

func typeAllowed(t model.QuestionType, allowed []model.QuestionType) bool {
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// fields reads typed values out of a decoded payload, recording violations
type fields struct {
	raw  map[string]interface{}
	verr *ValidationError
}

func (f fields) get(key string, required bool) (interface{}, bool) {
	v, ok := f.raw[key]
	if !ok || v == nil {
		if required {
			f.verr.Add("missing key: " + key)
		}
		return nil, false
	}
	return v, true
}

func (f fields) str(key string, required bool) string {
	v, ok := f.get(key, required)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.verr.Add(key + " must be a string")
	}
	return s
}

func (f fields) number(key string, required bool) (float64, bool) {
	v, ok := f.get(key, required)
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	if !ok {
		f.verr.Add(key + " must be a number")
	}
	return n, ok
}

func (f fields) strList(key string, required bool) []string {
	v, ok := f.get(key, required)
	if !ok {
		return nil
	}
	list, ok := v.([]interface{})
	if !ok {
		f.verr.Add(key + " must be an array")
		return nil
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			f.verr.Add(fmt.Sprintf("%s[%d] must be a string", key, i))
			continue
		}
		out = append(out, s)
	}
	return out
}

func (f fields) strMap(key string, required bool) map[string]string {
	v, ok := f.get(key, required)
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		f.verr.Add(key + " must be an object")
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, item := range obj {
		s, ok := item.(string)
		if !ok {
			f.verr.Add(key + "." + k + " must be a string")
			continue
		}
		out[k] = s
	}
	return out
}

func (f fields) oneOf(key string, allowed []string, required bool) string {
	s := strings.ToLower(strings.TrimSpace(f.str(key, required)))
	if s == "" {
		if _, isStr := f.raw[key].(string); isStr && required {
			f.verr.Add(key + " must not be empty")
		}
		return ""
	}
	for _, a := range allowed {
		if a == s {
			return s
		}
	}
	f.verr.Add(fmt.Sprintf("%s must be one of %s", key, strings.Join(allowed, ", ")))
	return ""
}
