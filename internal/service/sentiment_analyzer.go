package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/questiontype"
	"survai/internal/repository"
	"survai/internal/sentiment"
)

// ProgressFunc receives analysis checkpoints
type ProgressFunc func(pct int, msg string)

// SentimentAnalyzer builds the survey-wide sentiment report. It always uses
// the rule scorer so a report over hundreds of answers stays fast.
type SentimentAnalyzer struct {
	surveys   repository.SurveyRepo
	responses repository.ResponseRepo
	users     repository.UserRepo
	registry  *questiontype.Registry
	scorer    *sentiment.RuleScorer
	log       *logger.Logger
	now       func() time.Time
}

func NewSentimentAnalyzer(
	surveys repository.SurveyRepo,
	responses repository.ResponseRepo,
	users repository.UserRepo,
	registry *questiontype.Registry,
	scorer *sentiment.RuleScorer,
	log *logger.Logger,
) *SentimentAnalyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &SentimentAnalyzer{
		surveys:   surveys,
		responses: responses,
		users:     users,
		registry:  registry,
		scorer:    scorer,
		log:       log.With("service", "SentimentAnalyzer"),
		now:       time.Now,
	}
}

// Precheck verifies the survey exists and has enough completed responses
func (a *SentimentAnalyzer) Precheck(ctx context.Context, surveyID string) error {
	survey, err := a.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return err
	}
	if survey == nil {
		return ErrSurveyNotFound
	}
	n, err := a.responses.CountCompletedBySurvey(ctx, surveyID)
	if err != nil {
		return fmt.Errorf("count responses: %w", err)
	}
	return checkResponseCount(int(n))
}

func checkResponseCount(n int) error {
	if n < MinSentimentResponses {
		return &DataError{
			Op:  "sentiment analysis",
			Msg: fmt.Sprintf("need at least %d completed responses, have %d", MinSentimentResponses, n),
		}
	}
	return nil
}

// scoredAnswer is one free-text answer with its normalized score
type scoredAnswer struct {
	questionID string
	response   *model.Response
	text       string
	label      sentiment.Label
	score      float64
}

// Analyze scores every free-text answer of the survey's completed responses
// and aggregates the results. ctx is checked between checkpoints.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, surveyID string, progress ProgressFunc) (*model.SentimentReport, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	survey, err := a.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	responses, err := a.responses.ListCompletedBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if err := checkResponseCount(len(responses)); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(responses))
	for _, r := range responses {
		if r.UserID != "" {
			ids = append(ids, r.UserID)
		}
	}
	users, err := a.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	questions := survey.OrderedQuestions()
	var answers []scoredAnswer
	for _, r := range responses {
		for _, q := range questions {
			if !a.registry.IsFreeText(q.Type) {
				continue
			}
			text, ok := r.AnswerFor(q.ID)
			if !ok {
				continue
			}
			res := a.scorer.ScoreText(text)
			answers = append(answers, scoredAnswer{
				questionID: q.ID,
				response:   r,
				text:       text,
				label:      res.Label,
				score:      sentiment.Normalize(res),
			})
		}
	}

	report := &model.SentimentReport{SurveyID: surveyID}
	steps := []struct {
		pct int
		msg string
		run func()
	}{
		{25, "Calculating overall sentiment...", func() { report.OverallSentiment = overallSentiment(answers) }},
		{35, "Analyzing by question...", func() { report.SentimentByQuestion = sentimentByQuestion(questions, answers) }},
		{50, "Analyzing by department...", func() {
			report.SentimentByDepartment = sentimentByGroup(answers, responses, func(u *model.User) string { return u.Department }, users, true)
		}},
		{60, "Analyzing by role...", func() {
			report.SentimentByRole = sentimentByGroup(answers, responses, func(u *model.User) string { return string(u.Role) }, users, false)
		}},
		{70, "Calculating trends...", func() { report.SentimentTrends = sentimentTrends(answers) }},
		{80, "Generating insights...", func() {
			report.KeyInsights = keyInsights(report)
			report.RecommendationPriority = recommendationPriority(report)
			report.DetailedBreakdown = detailedBreakdown(answers)
		}},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(step.pct, step.msg)
		step.run()
	}

	report.GeneratedAt = a.now()
	a.log.Info("sentiment analysis finished", "surveyId", surveyID, "answers", len(answers), "priority", report.RecommendationPriority)
	return report, nil
}

func scoresOf(answers []scoredAnswer) []float64 {
	out := make([]float64, len(answers))
	for i, ans := range answers {
		out[i] = ans.score
	}
	return out
}

func overallSentiment(answers []scoredAnswer) model.OverallSentiment {
	if len(answers) == 0 {
		return model.OverallSentiment{Label: sentiment.LabelNeutral}
	}
	scores := scoresOf(answers)
	avg := sentiment.Mean(scores)
	return model.OverallSentiment{
		Score:          round2(avg),
		Label:          sentiment.LabelFor(avg),
		Confidence:     sentiment.ConfidenceFromScores(scores),
		TotalResponses: len(scores),
	}
}

func sentimentByQuestion(questions []model.Question, answers []scoredAnswer) []model.QuestionSentiment {
	out := []model.QuestionSentiment{}
	for _, q := range questions {
		var group []scoredAnswer
		for _, ans := range answers {
			if ans.questionID == q.ID {
				group = append(group, ans)
			}
		}
		if len(group) == 0 {
			continue
		}
		scores := scoresOf(group)
		avg := sentiment.Mean(scores)
		samples := make([]string, 0, 3)
		for i := 0; i < len(group) && i < 3; i++ {
			samples = append(samples, group[i].text)
		}
		out = append(out, model.QuestionSentiment{
			QuestionID:      q.ID,
			QuestionText:    truncate(q.Text, 100),
			QuestionType:    q.Type,
			SentimentScore:  round2(avg),
			SentimentLabel:  sentiment.LabelFor(avg),
			ResponseCount:   len(scores),
			Confidence:      sentiment.ConfidenceFromScores(scores),
			SampleResponses: samples,
		})
	}
	return out
}

// sentimentByGroup aggregates answers by a user attribute, ascending by
// score. Groups without text answers are skipped.
func sentimentByGroup(answers []scoredAnswer, responses []*model.Response, key func(*model.User) string, users map[string]*model.User, withSamples bool) []model.GroupSentiment {
	groupOf := func(r *model.Response) string {
		u := users[r.UserID]
		if u == nil {
			return ""
		}
		return strings.TrimSpace(key(u))
	}

	employees := make(map[string]int)
	for _, r := range responses {
		if g := groupOf(r); g != "" {
			employees[g]++
		}
	}
	grouped := make(map[string][]scoredAnswer)
	var names []string
	for _, ans := range answers {
		g := groupOf(ans.response)
		if g == "" {
			continue
		}
		if _, seen := grouped[g]; !seen {
			names = append(names, g)
		}
		grouped[g] = append(grouped[g], ans)
	}

	out := []model.GroupSentiment{}
	for _, name := range names {
		group := grouped[name]
		scores := scoresOf(group)
		avg := sentiment.Mean(scores)
		gs := model.GroupSentiment{
			Name:           name,
			SentimentScore: round2(avg),
			SentimentLabel: sentiment.LabelFor(avg),
			ResponseCount:  len(scores),
			EmployeeCount:  employees[name],
			Confidence:     sentiment.ConfidenceFromScores(scores),
		}
		if withSamples {
			gs.TopConcerns = samplesWithLabel(group, sentiment.Negative)
			gs.TopPositives = samplesWithLabel(group, sentiment.Positive)
		}
		out = append(out, gs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentimentScore < out[j].SentimentScore })
	return out
}

func samplesWithLabel(group []scoredAnswer, label sentiment.Label) []string {
	out := []string{}
	for _, ans := range group {
		if ans.label == label {
			out = append(out, ans.text)
			if len(out) == 3 {
				break
			}
		}
	}
	return out
}

func sentimentTrends(answers []scoredAnswer) model.SentimentTrends {
	byDay := make(map[string][]float64)
	for _, ans := range answers {
		day := ans.response.CompletedAt.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], ans.score)
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	trends := model.SentimentTrends{DailyTrends: []model.DailySentiment{}, TrendDirection: "stable"}
	daily := make([]float64, 0, len(days))
	for _, d := range days {
		score := round2(sentiment.Mean(byDay[d]))
		daily = append(daily, score)
		trends.DailyTrends = append(trends.DailyTrends, model.DailySentiment{
			Date:           d,
			SentimentScore: score,
			ResponseCount:  len(byDay[d]),
		})
	}
	if len(daily) < 2 {
		return trends
	}

	half := len(daily) / 2
	first := sentiment.Mean(daily[:half])
	second := sentiment.Mean(daily[half:])
	switch {
	case second > first+0.1:
		trends.TrendDirection = "improving"
	case second < first-0.1:
		trends.TrendDirection = "declining"
	}
	trends.Volatility = round3(sentiment.StdDev(daily))
	return trends
}

func keyInsights(report *model.SentimentReport) []string {
	overall := report.OverallSentiment
	pct := int(math.Round(overall.Score * 100))

	var insights []string
	switch {
	case overall.Score > 0.3:
		insights = append(insights, fmt.Sprintf("Overall sentiment is positive (%d%%) with %d responses analyzed", pct, overall.TotalResponses))
	case overall.Score < -0.3:
		insights = append(insights, fmt.Sprintf("Overall sentiment shows concerns (%d%%) requiring attention", pct))
	default:
		insights = append(insights, fmt.Sprintf("Overall sentiment is neutral (%d%%) with mixed feedback", pct))
	}

	if depts := report.SentimentByDepartment; len(depts) > 0 {
		worst, best := depts[0], depts[len(depts)-1]
		if best.SentimentScore-worst.SentimentScore > 0.5 {
			insights = append(insights, fmt.Sprintf("Significant sentiment gap: %s (%d%%) vs %s (%d%%)",
				best.Name, int(math.Round(best.SentimentScore*100)),
				worst.Name, int(math.Round(worst.SentimentScore*100))))
		}
	}

	concerning := 0
	for _, q := range report.SentimentByQuestion {
		if q.SentimentScore < -0.2 {
			concerning++
		}
	}
	if concerning > 0 {
		insights = append(insights, fmt.Sprintf("%d questions show negative sentiment, requiring follow-up", concerning))
	}
	return insights
}

func recommendationPriority(report *model.SentimentReport) string {
	depts := report.SentimentByDepartment
	negative := 0
	for _, d := range depts {
		if d.SentimentScore < -0.2 {
			negative++
		}
	}
	score := report.OverallSentiment.Score
	switch {
	case score < -0.4 || negative > len(depts)/2:
		return "high"
	case score < -0.1 || negative > 0:
		return "medium"
	default:
		return "low"
	}
}

func detailedBreakdown(answers []scoredAnswer) model.SentimentBreakdown {
	var pos, neg []model.ScoredText
	b := model.SentimentBreakdown{}
	for _, ans := range answers {
		st := model.ScoredText{Text: ans.text, Score: ans.score}
		switch {
		case ans.score > 0.2:
			pos = append(pos, st)
		case ans.score < -0.2:
			neg = append(neg, st)
		default:
			b.NeutralResponses++
		}
	}
	b.PositiveResponses = len(pos)
	b.NegativeResponses = len(neg)

	sort.SliceStable(pos, func(i, j int) bool { return pos[i].Score > pos[j].Score })
	sort.SliceStable(neg, func(i, j int) bool { return neg[i].Score < neg[j].Score })
	b.MostPositiveResponses = topN(pos, 5)
	b.MostNegativeResponses = topN(neg, 5)
	return b
}

func topN(list []model.ScoredText, n int) []model.ScoredText {
	if len(list) > n {
		list = list[:n]
	}
	if list == nil {
		return []model.ScoredText{}
	}
	return list
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
