package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"survai/internal/aiclient"
	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/questiontype"
	"survai/internal/repository"
)

// minAISummaryResponses is the fewest answers worth an AI call
const minAISummaryResponses = 3

var (
	summaryPositiveRe = regexp.MustCompile(`(?i)good|great|excellent|love|enjoy|positive|happy|satisfied`)
	summaryNegativeRe = regexp.MustCompile(`(?i)bad|poor|terrible|hate|dislike|negative|unhappy|frustrated`)
	patternConcernRe  = regexp.MustCompile(`(?i)problem|issue|concern|difficult|challenge`)
	patternPositiveRe = regexp.MustCompile(`(?i)good|great|excellent|love|enjoy|appreciate`)
	wordRe            = regexp.MustCompile(`\w+`)

	concernKeywords  = []string{"problem", "issue", "concern", "difficult", "challenge", "struggle", "lack", "need", "improve", "frustrat", "disappoint", "confus"}
	positiveKeywords = []string{"good", "great", "excellent", "love", "enjoy", "appreciate", "like", "strong", "effective", "satisfi", "happy", "support"}

	stopwords = toSet(strings.Fields(`the and or but for with this that from they them their there here when
		what where how why would could should will can may might must have has had been being was were
		are not dont doesn't won't can't isn't aren't wasn't weren't`))
)

// SummaryService condenses the answers to a question into themes and recommendations
type SummaryService struct {
	surveys   repository.SurveyRepo
	responses repository.ResponseRepo
	registry  *questiontype.Registry
	ai        Completer
	log       *logger.Logger
	now       func() time.Time
}

func NewSummaryService(surveys repository.SurveyRepo, responses repository.ResponseRepo, registry *questiontype.Registry, ai Completer, log *logger.Logger) *SummaryService {
	if log == nil {
		log = logger.Nop()
	}
	return &SummaryService{
		surveys:   surveys,
		responses: responses,
		registry:  registry,
		ai:        ai,
		log:       log.With("service", "SummaryService"),
		now:       time.Now,
	}
}

// Summarize summarizes one question's answers from completed responses
func (s *SummaryService) Summarize(ctx context.Context, surveyID, questionID string) (*model.QuestionSummary, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	q, ok := survey.Question(questionID)
	if !ok {
		return nil, ErrQuestionNotFound
	}
	responses, err := s.responses.ListCompletedBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return s.summarize(ctx, *q, answerTexts(q.ID, responses)), nil
}

// SummarizeAll summarizes every free-text question of the survey, in question order
func (s *SummaryService) SummarizeAll(ctx context.Context, surveyID string) ([]*model.QuestionSummary, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	responses, err := s.responses.ListCompletedBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	var out []*model.QuestionSummary
	for _, q := range survey.OrderedQuestions() {
		if !s.registry.IsFreeText(q.Type) {
			continue
		}
		out = append(out, s.summarize(ctx, q, answerTexts(q.ID, responses)))
	}
	return out, nil
}

func (s *SummaryService) summarize(ctx context.Context, q model.Question, texts []string) *model.QuestionSummary {
	now := s.now()
	switch {
	case len(texts) == 0:
		return &model.QuestionSummary{
			QuestionID:       q.ID,
			QuestionText:     q.Text,
			Kind:             model.SummaryNoData,
			KeyThemes:        []string{},
			OverallSentiment: "neutral",
			Summary:          "No responses received yet.",
			GeneratedAt:      now,
		}
	case len(texts) < minAISummaryResponses:
		return &model.QuestionSummary{
			QuestionID:       q.ID,
			QuestionText:     q.Text,
			ResponseCount:    len(texts),
			Kind:             model.SummarySimple,
			KeyThemes:        []string{"Limited responses received"},
			OverallSentiment: "neutral",
			Summary:          fmt.Sprintf("%d response(s) received. More responses needed for detailed analysis.", len(texts)),
			GeneratedAt:      now,
		}
	}

	sum := s.aiSummary(ctx, q, texts)
	if sum == nil {
		sum = FallbackSummary(texts)
	}
	sum.QuestionID = q.ID
	sum.QuestionText = q.Text
	sum.ResponseCount = len(texts)
	sum.GeneratedAt = now
	return sum
}

func (s *SummaryService) aiSummary(ctx context.Context, q model.Question, texts []string) *model.QuestionSummary {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these %d responses:\n\n", len(texts))
	for i, t := range texts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, t)
	}

	raw, err := completeJSON(ctx, s.ai, b.String(), s.systemPrompt(q))
	if err != nil {
		s.log.Warn("AI summary failed, using fallback", "questionId", q.ID, "kind", aiclient.KindOf(err), "error", err)
		return nil
	}
	sum, err := ValidateSummary(raw)
	if err != nil {
		s.log.Warn("AI summary failed validation, using fallback", "questionId", q.ID, "error", err)
		return nil
	}
	return sum
}

func (s *SummaryService) systemPrompt(q model.Question) string {
	format := string(q.Type)
	if h, ok := s.registry.Lookup(q.Type); ok {
		format = h.DisplayName()
	}
	return fmt.Sprintf(`You are an expert survey analyst. Analyze the following responses to provide actionable insights for survey creators and decision makers.

Question: %q
Answer format: %s

Your response should be a JSON object with this exact structure:
{
  "key_themes": [
    "Theme 1: Clear, specific theme with context and frequency",
    "Theme 2: Clear, specific theme with context and frequency",
    "Theme 3: Clear, specific theme with context and frequency"
  ],
  "overall_sentiment": "positive|negative|mixed|neutral",
  "top_concern": "Most significant issue or challenge mentioned by respondents",
  "top_positive": "Most frequently mentioned strength or positive aspect",
  "summary": "Detailed 4-5 sentence analysis highlighting key patterns, insights, and implications",
  "action_recommendations": [
    "Specific, actionable recommendation based on the data",
    "Another concrete next step or improvement opportunity",
    "Additional suggestion for addressing concerns or building on strengths"
  ],
  "priority_level": "low|medium|high",
  "response_patterns": "Description of how different respondents approached the question or any notable patterns"
}

Focus on:
- Identifying specific, actionable themes with context about frequency/intensity
- Extracting concrete concerns that decision makers can address
- Highlighting specific positive aspects that can be leveraged or expanded
- Providing detailed analysis with clear patterns and insights
- Offering practical, implementable recommendations
- Assessing priority level based on frequency and intensity of issues
- Noting different response patterns or approaches
- Being specific with numbers and percentages when possible
- Making insights relevant to the survey creator's goals
- Focusing on what matters most for decision making`, q.Text, format)
}

// FallbackSummary is the keyword-based summary used when the AI is unavailable.
// texts must be non-empty.
func FallbackSummary(texts []string) *model.QuestionSummary {
	n := len(texts)
	common := commonWords(texts, 5)
	sentiment := basicSentiment(texts)
	concerns := countContaining(texts, concernKeywords)
	positives := countContaining(texts, positiveKeywords)
	concernPct := int(math.Round(percent(concerns, n)))

	var themes []string
	if len(common) > 0 {
		top := common
		if len(top) > 3 {
			top = top[:3]
		}
		themes = []string{
			fmt.Sprintf("Frequent mentions: %s (appears in %s)", strings.Join(top, ", "), pluralizeResponses(countContaining(texts, common[:1]))),
			"Communication and workflow topics are prominent themes across responses",
			"Employee feedback spans operational concerns and cultural observations",
		}
	} else {
		themes = []string{
			"Diverse perspectives: No single dominant theme, indicating varied employee experiences",
			"Balanced feedback: Mix of operational and cultural observations",
			"Employee engagement: Thoughtful responses suggest active participation in feedback process",
		}
	}

	level, description := riskLevel(sentiment, concernPct)
	sum := &model.QuestionSummary{
		Kind:             model.SummaryFallback,
		KeyThemes:        themes,
		OverallSentiment: sentiment,
		Summary: fmt.Sprintf("Comprehensive analysis of %d responses reveals %s overall sentiment. %s feedback patterns suggest %s. "+
			"Key areas for attention include both leveraging strengths and addressing identified concerns to improve outcomes.",
			n, sentiment, capitalize(sentiment), description),
		ActionRecommendations: fallbackRecommendations(concerns, positives, concernPct),
		PriorityLevel:         level,
		ResponsePatterns:      responsePatterns(texts),
	}
	if concerns > 0 {
		sum.TopConcern = fmt.Sprintf("%d respondents (%d%%) raised concerns requiring attention - themes include operational challenges and process improvements",
			concerns, concernPct)
	}
	if positives > 0 {
		sum.TopPositive = fmt.Sprintf("%d respondents (%d%%) expressed positive sentiments - strengths to leverage include identified best practices and successful approaches",
			positives, int(math.Round(percent(positives, n))))
	}
	return sum
}

// commonWords returns the most frequent words of at least four letters,
// ties broken by first appearance
func commonWords(texts []string, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range wordRe.FindAllString(strings.ToLower(strings.Join(texts, " ")), -1) {
		if len(w) < 4 || stopwords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func basicSentiment(texts []string) string {
	pos, neg := 0, 0
	for _, t := range texts {
		if summaryPositiveRe.MatchString(t) {
			pos++
		}
		if summaryNegativeRe.MatchString(t) {
			neg++
		}
	}
	switch {
	case float64(pos) > float64(neg)*1.5:
		return "positive"
	case float64(neg) > float64(pos)*1.5:
		return "negative"
	default:
		return "mixed"
	}
}

func countContaining(texts []string, keywords []string) int {
	n := 0
	for _, t := range texts {
		lower := strings.ToLower(t)
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				n++
				break
			}
		}
	}
	return n
}

func riskLevel(sentiment string, concernPct int) (level, description string) {
	switch sentiment {
	case "negative":
		if concernPct > 60 {
			return "high", "significant concerns requiring immediate attention"
		}
		return "medium", "notable concerns that should be addressed promptly"
	case "mixed":
		if concernPct > 40 {
			return "medium", "mixed feedback with substantial concerns requiring follow-up"
		}
		return "medium", "balanced feedback with both opportunities and challenges identified"
	case "positive":
		if concernPct > 30 {
			return "medium", "generally positive sentiment with some areas for improvement"
		}
		return "low", "strong positive sentiment with minimal concerns"
	}
	return "medium", "neutral sentiment suggesting stable but potentially improvable conditions"
}

func fallbackRecommendations(concerns, positives, concernPct int) []string {
	var recs []string
	if concerns > 0 {
		recs = append(recs,
			fmt.Sprintf("Conduct follow-up with respondents who raised concerns (%d individuals) to gather more details", concerns),
			"Review and address the most frequently mentioned challenges and issues")
	}
	if positives > 0 {
		recs = append(recs,
			"Identify and scale successful practices mentioned in positive feedback",
			"Document and share best practices that are working well")
	}
	switch {
	case concernPct > 50:
		recs = append(recs, "Implement action planning sessions to address systemic issues identified")
	case concernPct < 20:
		recs = append(recs, "Maintain current positive practices and monitor for consistency")
	default:
		recs = append(recs, "Balance improvement initiatives with reinforcing existing strengths")
	}
	return recs
}

func responsePatterns(texts []string) string {
	n := len(texts)
	concern, positive := 0, 0
	for _, t := range texts {
		if patternConcernRe.MatchString(t) {
			concern++
		}
		if patternPositiveRe.MatchString(t) {
			positive++
		}
	}
	neutral := n - concern - positive
	threshold := float64(n) * 0.3

	var segments []string
	if float64(concern) > threshold {
		segments = append(segments, fmt.Sprintf("%d respondents focused on challenges and concerns", concern))
	}
	if float64(positive) > threshold {
		segments = append(segments, fmt.Sprintf("%d respondents highlighting positive aspects", positive))
	}
	if float64(neutral) > threshold {
		segments = append(segments, fmt.Sprintf("%d respondents providing balanced or neutral feedback", neutral))
	}
	if len(segments) == 0 {
		return "Diverse response patterns without clear dominant themes"
	}
	return strings.Join(segments, ", ")
}

func pluralizeResponses(n int) string {
	if n == 1 {
		return "1 response"
	}
	return fmt.Sprintf("%d responses", n)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
