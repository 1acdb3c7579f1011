package service

import (
	"context"
	"fmt"
	"strings"

	"survai/internal/aiclient"
	"survai/internal/logger"
	"survai/internal/model"
)

// ReviewService critiques survey design via the AI provider
type ReviewService struct {
	ai  Completer
	log *logger.Logger
}

func NewReviewService(ai Completer, log *logger.Logger) *ReviewService {
	if log == nil {
		log = logger.Nop()
	}
	return &ReviewService{ai: ai, log: log.With("service", "ReviewService")}
}

const reviewSystemPrompt = `You are a survey design expert. Analyze the provided survey and give constructive feedback.

Return ONLY a valid JSON object with this exact structure:
{
  "overall_score": 8,
  "purpose_clarity": "The survey purpose is clear and well-defined...",
  "question_quality": "Most questions are well-structured, but...",
  "survey_flow": "The question order is logical and...",
  "suggestions": [
    "Consider rewording question 3 to be more neutral",
    "Add a demographic question about experience level",
    "Consider making question 5 optional to reduce abandonment"
  ],
  "missing_elements": [
    "Demographic questions for better segmentation",
    "A final open-ended feedback question"
  ],
  "strengths": [
    "Good balance of scale and text questions",
    "Clear and concise question wording"
  ]
}

Rules:
- overall_score should be 1-10 (integer)
- All text fields should be 1-3 sentences
- suggestions, missing_elements, and strengths should be arrays of strings
- Be constructive and specific in feedback
- Focus on survey design best practices

Do not include any text before or after the JSON.`

// Review never fails; any AI or schema problem yields the fixed fallback review
func (s *ReviewService) Review(ctx context.Context, survey *model.Survey) *model.Review {
	raw, err := completeJSON(ctx, s.ai, buildReviewPrompt(survey), reviewSystemPrompt)
	if err != nil {
		s.log.Warn("AI review failed, using fallback", "surveyId", survey.ID, "kind", aiclient.KindOf(err), "error", err)
		return fallbackReview()
	}
	review, err := ValidateReview(raw)
	if err != nil {
		s.log.Warn("AI review failed validation, using fallback", "surveyId", survey.ID, "error", err)
		return fallbackReview()
	}
	return review
}

func buildReviewPrompt(survey *model.Survey) string {
	var b strings.Builder
	b.WriteString("Please review this survey:\n\n")
	fmt.Fprintf(&b, "**Survey Title:** %s\n", survey.Title)
	fmt.Fprintf(&b, "**Description:** %s\n", survey.Description)
	if survey.AIPrompt != "" {
		fmt.Fprintf(&b, "**Original Prompt:** %s\n", survey.AIPrompt)
	}
	b.WriteString("\n**Questions:**\n")
	for i, q := range survey.OrderedQuestions() {
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, q.Text, q.Type)
		if q.Required {
			b.WriteString(" [Required]")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nPlease analyze the survey quality, flow, and provide specific suggestions for improvement.")
	return b.String()
}

func fallbackReview() *model.Review {
	return &model.Review{
		OverallScore:    7,
		PurposeClarity:  "Survey purpose appears clear based on the title and description.",
		QuestionQuality: "Questions seem well-structured with a good mix of question types.",
		SurveyFlow:      "Question order appears logical and follows standard survey flow practices.",
		Suggestions: []string{
			"Consider adding more demographic questions for better analysis",
			"Review question wording for potential bias",
			"Test the survey with a small group before full deployment",
		},
		MissingElements: []string{
			"Demographic questions for segmentation",
			"Final feedback question for additional insights",
		},
		Strengths: []string{
			"Good balance of required and optional questions",
			"Clear and concise question wording",
		},
		Source: "fallback",
	}
}
