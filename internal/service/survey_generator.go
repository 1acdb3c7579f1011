package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"survai/internal/aiclient"
	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/questiontype"
	"survai/internal/repository"
)

// draftTypes are the question types generated surveys may use
var draftTypes = []model.QuestionType{model.QuestionText, model.QuestionScale}

// SurveyGeneratorService drafts a survey from a free-form prompt
type SurveyGeneratorService struct {
	surveys  repository.SurveyRepo
	registry *questiontype.Registry
	ai       Completer
	log      *logger.Logger
	now      func() time.Time
}

func NewSurveyGeneratorService(surveys repository.SurveyRepo, registry *questiontype.Registry, ai Completer, log *logger.Logger) *SurveyGeneratorService {
	if log == nil {
		log = logger.Nop()
	}
	return &SurveyGeneratorService{
		surveys:  surveys,
		registry: registry,
		ai:       ai,
		log:      log.With("service", "SurveyGeneratorService"),
		now:      time.Now,
	}
}

// Generate asks the AI for a draft, falls back to a topic template, and
// stores the result as a draft survey
func (s *SurveyGeneratorService) Generate(ctx context.Context, prompt, orgID, createdBy string) (*model.Survey, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, &InputError{Field: "prompt", Message: "Prompt is required."}
	}

	draft := s.aiDraft(ctx, prompt)
	if draft == nil {
		draft = FallbackDraft(prompt)
	}

	now := s.now()
	survey := &model.Survey{
		OrganizationID: orgID,
		CreatedBy:      createdBy,
		Title:          draft.Title,
		Description:    draft.Description,
		AIPrompt:       prompt,
		Status:         model.SurveyDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i, q := range draft.Questions {
		survey.Questions = append(survey.Questions, model.Question{
			Text:     q.Text,
			Type:     q.Type,
			Required: q.Required,
			Position: i + 1,
		})
	}
	if _, err := s.surveys.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	s.log.Info("survey drafted", "surveyId", survey.ID, "questions", len(survey.Questions))
	return survey, nil
}

func (s *SurveyGeneratorService) aiDraft(ctx context.Context, prompt string) *SurveyDraft {
	raw, err := completeJSON(ctx, s.ai, prompt, s.systemPrompt())
	if err != nil {
		s.log.Warn("AI survey generation failed, using template", "kind", aiclient.KindOf(err), "error", err)
		return nil
	}
	draft, err := ValidateSurveyDraft(raw, draftTypes)
	if err != nil {
		s.log.Warn("AI survey draft failed validation, using template", "error", err)
		return nil
	}
	return draft
}

func (s *SurveyGeneratorService) systemPrompt() string {
	var kinds []string
	for _, t := range draftTypes {
		if h, ok := s.registry.Lookup(t); ok {
			kinds = append(kinds, h.PromptFragment())
		}
	}
	return `You are a survey generation AI. Generate a survey based on the user's prompt.

Return ONLY a valid JSON object with this exact structure:
{
  "title": "Survey Title",
  "description": "Brief description of the survey purpose",
  "questions": [
    {
      "question_text": "Question text here",
      "question_type": "text",
      "required": true
    },
    {
      "question_text": "Rate this from 1-10",
      "question_type": "scale",
      "required": false
    }
  ]
}

Rules:
- question_type must be one of: ` + strings.Join(kinds, ", ") + `
- Scale questions should include "(1 = poor, 10 = excellent)" or similar in the question text
- Generate 4-6 relevant questions
- Mix of required and optional questions
- Make questions specific to the survey topic
- Required field must be boolean (true/false)

Do not include any text before or after the JSON.`
}

type surveyTemplate struct {
	pattern     *regexp.Regexp
	title       string
	description string
	questions   []DraftQuestion
}

func draftScale(text string, required bool) DraftQuestion {
	return DraftQuestion{Text: text, Type: model.QuestionScale, Required: required}
}

func draftText(t string, required bool) DraftQuestion {
	return DraftQuestion{Text: t, Type: model.QuestionText, Required: required}
}

// surveyTemplates are tried in order; the first matching pattern wins
var surveyTemplates = []surveyTemplate{
	{
		pattern:     regexp.MustCompile(`restaurant|food|dining|menu|chef|service`),
		title:       "Restaurant Feedback Survey",
		description: "Help us improve your dining experience",
		questions: []DraftQuestion{
			draftScale("How would you rate the food quality? (1 = Poor, 10 = Excellent)", true),
			draftScale("How would you rate the service? (1 = Poor, 10 = Excellent)", true),
			draftScale("How would you rate the atmosphere? (1 = Poor, 10 = Excellent)", false),
			draftText("What was your favorite dish?", false),
			draftScale("Would you recommend this restaurant to friends? (1 = Definitely not, 10 = Definitely yes)", true),
			draftText("Any suggestions for improvement?", false),
		},
	},
	{
		pattern:     regexp.MustCompile(`event|conference|workshop|meeting|webinar`),
		title:       "Event Feedback Survey",
		description: "Help us improve future events with your feedback",
		questions: []DraftQuestion{
			draftScale("How would you rate the event overall? (1 = Poor, 10 = Excellent)", true),
			draftScale("How useful was the content? (1 = Not useful, 10 = Very useful)", true),
			draftText("What was the most valuable part of the event?", false),
			draftScale("How would you rate the organization? (1 = Poor, 10 = Excellent)", false),
			draftText("What topics would you like to see covered in future events?", false),
		},
	},
	{
		pattern:     regexp.MustCompile(`training|course|learning|education|instructor`),
		title:       "Training Evaluation Survey",
		description: "Help us improve our training programs",
		questions: []DraftQuestion{
			draftScale("How would you rate the training content? (1 = Poor, 10 = Excellent)", true),
			draftScale("How effective was the instructor? (1 = Poor, 10 = Excellent)", true),
			draftScale("How likely are you to apply what you learned? (1 = Not likely, 10 = Very likely)", true),
			draftText("What was most helpful about this training?", false),
			draftText("What could be improved?", false),
		},
	},
	{
		pattern:     regexp.MustCompile(`market|research|brand|competition|target audience`),
		title:       "Market Research Survey",
		description: "Help us understand your preferences and needs",
		questions: []DraftQuestion{
			draftScale("How familiar are you with our brand? (1 = Not familiar, 10 = Very familiar)", true),
			draftText("What factors are most important when choosing this type of product/service?", false),
			draftScale("How likely are you to try our product/service? (1 = Not likely, 10 = Very likely)", true),
			draftText("What brands do you currently use for this type of product/service?", false),
			draftText("What would make you switch to a new brand?", false),
		},
	},
	{
		pattern:     regexp.MustCompile(`customer|satisfaction|service|support`),
		title:       "Customer Satisfaction Survey",
		description: "Help us improve our service by sharing your feedback",
		questions: []DraftQuestion{
			draftScale("How would you rate your overall satisfaction? (1 = Very Unsatisfied, 10 = Very Satisfied)", true),
			draftText("What did you like most about your experience?", false),
			draftScale("How likely are you to recommend us to others? (1 = Not at all likely, 10 = Extremely likely)", true),
			draftText("What could we improve?", false),
			draftScale("How easy was it to get help when you needed it? (1 = Very Difficult, 10 = Very Easy)", false),
		},
	},
	{
		pattern:     regexp.MustCompile(`employee|workplace|team|engagement|culture`),
		title:       "Employee Engagement Survey",
		description: "Share your thoughts about your workplace experience",
		questions: []DraftQuestion{
			draftScale("How satisfied are you with your current role? (1 = Very Unsatisfied, 10 = Very Satisfied)", true),
			draftText("What motivates you most at work?", false),
			draftScale("How would you rate work-life balance? (1 = Poor, 10 = Excellent)", true),
			draftScale("How likely are you to recommend this company as a place to work? (1 = Not at all likely, 10 = Extremely likely)", false),
			draftText("What could leadership do to better support the team?", false),
		},
	},
	{
		pattern:     regexp.MustCompile(`product|feature|app|software|tool`),
		title:       "Product Feedback Survey",
		description: "Help us understand how to improve our product",
		questions: []DraftQuestion{
			draftScale("How would you rate the product overall? (1 = Poor, 10 = Excellent)", true),
			draftText("What features do you use most?", false),
			draftText("What new features would you like to see?", false),
			draftScale("How easy is the product to use? (1 = Very Difficult, 10 = Very Easy)", false),
			draftText("What's the biggest challenge you face when using this product?", false),
		},
	},
}

// FallbackDraft picks a template by topic keywords, else a generic survey
// titled from the prompt
func FallbackDraft(prompt string) *SurveyDraft {
	lower := strings.ToLower(prompt)
	for _, t := range surveyTemplates {
		if t.pattern.MatchString(lower) {
			return &SurveyDraft{
				Title:       t.title,
				Description: t.description,
				Questions:   append([]DraftQuestion(nil), t.questions...),
			}
		}
	}
	return &SurveyDraft{
		Title:       titleFromPrompt(prompt),
		Description: "Please share your thoughts and feedback",
		Questions: []DraftQuestion{
			draftScale("Please rate your overall experience (1 = Poor, 10 = Excellent)", true),
			draftText("What worked well for you?", false),
			draftText("What could be improved?", false),
			draftText("Any additional comments or suggestions?", false),
		},
	}
}

func titleFromPrompt(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 4 {
		words = words[:4]
	}
	for i, w := range words {
		w = strings.ToLower(w)
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	title := strings.Join(words, " ")
	if r := []rune(title); len(r) > 50 {
		return string(r[:47]) + "..."
	}
	return title
}
