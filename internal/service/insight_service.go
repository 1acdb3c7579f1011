package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"survai/internal/aiclient"
	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/repository"

	"golang.org/x/sync/errgroup"
)

// InsightService turns response data into stored insight snapshots
type InsightService struct {
	surveys     repository.SurveyRepo
	assignments repository.AssignmentRepo
	responses   repository.ResponseRepo
	users       repository.UserRepo
	insights    repository.InsightRepo
	ai          Completer
	log         *logger.Logger
	now         func() time.Time
}

func NewInsightService(
	surveys repository.SurveyRepo,
	assignments repository.AssignmentRepo,
	responses repository.ResponseRepo,
	users repository.UserRepo,
	insights repository.InsightRepo,
	ai Completer,
	log *logger.Logger,
) *InsightService {
	if log == nil {
		log = logger.Nop()
	}
	return &InsightService{
		surveys:     surveys,
		assignments: assignments,
		responses:   responses,
		users:       users,
		insights:    insights,
		ai:          ai,
		log:         log.With("service", "InsightService"),
		now:         time.Now,
	}
}

const insightsSystemPrompt = `You are a survey analysis expert. Analyze the provided survey data and generate actionable insights.

Return ONLY a valid JSON object with this exact structure:
{
  "executive_summary": "2-3 sentence overview of key findings",
  "key_findings": [
    "Most important insight 1",
    "Most important insight 2",
    "Most important insight 3"
  ],
  "satisfaction_drivers": [
    "What's working well 1",
    "What's working well 2"
  ],
  "areas_for_improvement": [
    "Issue that needs attention 1",
    "Issue that needs attention 2"
  ],
  "risk_indicators": [
    "Potential problem 1",
    "Potential problem 2"
  ],
  "recommended_actions": [
    "Specific actionable step 1",
    "Specific actionable step 2",
    "Specific actionable step 3"
  ],
  "department_insights": {
    "department_name": "Specific insight for this department"
  }
}

Rules:
- Focus on actionable insights, not just data summaries
- Identify patterns and trends in the responses
- Consider both quantitative (scale) and qualitative (text) data
- Provide specific, concrete recommendations
- Highlight urgent issues that need immediate attention
- Be constructive and solution-oriented

Do not include any text before or after the JSON.`

// surveyData is everything loaded for one survey's analytics
type surveyData struct {
	assignments []*model.Assignment
	responses   []*model.Response
	users       map[string]*model.User
}

func (s *InsightService) load(ctx context.Context, surveyID string) (*surveyData, error) {
	data := &surveyData{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.assignments, err = s.assignments.ListBySurvey(gctx, surveyID)
		return err
	})
	g.Go(func() error {
		var err error
		data.responses, err = s.responses.ListBySurvey(gctx, surveyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load survey data: %w", err)
	}

	ids := make([]string, 0, len(data.assignments))
	for _, a := range data.assignments {
		ids = append(ids, a.UserID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	data.users = users
	return data, nil
}

func (s *InsightService) survey(ctx context.Context, surveyID string) (*model.Survey, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

// Metrics returns the derived metrics of a survey
func (s *InsightService) Metrics(ctx context.Context, surveyID string) (*model.SurveyMetrics, error) {
	survey, err := s.survey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	data, err := s.load(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	m := ComputeMetrics(survey, data.assignments, data.responses, s.now())
	return &m, nil
}

// Analyze returns the latest insight if it is still fresh, otherwise
// generates (AI or fallback), enriches and stores a new one.
func (s *InsightService) Analyze(ctx context.Context, surveyID, generatedBy string) (*model.SurveyInsight, error) {
	survey, err := s.survey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	latest, err := s.insights.Latest(ctx, survey.ID)
	if err != nil {
		return nil, fmt.Errorf("latest insight: %w", err)
	}
	if latest != nil && latest.Fresh(now) {
		s.log.Debug("reusing fresh insight", "surveyId", survey.ID, "insightId", latest.ID)
		return latest, nil
	}

	data, err := s.load(ctx, survey.ID)
	if err != nil {
		return nil, err
	}
	metrics := ComputeMetrics(survey, data.assignments, data.responses, now)
	stats := BuildSurveyStats(survey, data.assignments, data.responses, data.users, metrics, now)

	ins := s.generate(ctx, survey.ID, stats)
	Enrich(ins, metrics)

	if generatedBy == "" {
		generatedBy = survey.CreatedBy
	}
	row := &model.SurveyInsight{
		SurveyID:        survey.ID,
		InsightsData:    *ins,
		GeneratedBy:     generatedBy,
		GeneratedAt:     now,
		AnalysisVersion: model.AnalysisVersion,
		Summary:         listingSummary(ins.ExecutiveSummary),
	}
	if _, err := s.insights.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("save insight: %w", err)
	}
	s.log.Info("insight generated", "surveyId", survey.ID, "source", ins.Source, "urgency", ins.UrgencyLevel)
	return row, nil
}

// Latest returns the newest stored insight, or nil
func (s *InsightService) Latest(ctx context.Context, surveyID string) (*model.SurveyInsight, error) {
	return s.insights.Latest(ctx, surveyID)
}

// History lists stored insights newest first
func (s *InsightService) History(ctx context.Context, surveyID string, limit int) ([]*model.SurveyInsight, error) {
	return s.insights.ListBySurvey(ctx, surveyID, limit)
}

func (s *InsightService) generate(ctx context.Context, surveyID string, stats model.SurveyStats) *model.Insights {
	payload, err := json.Marshal(stats)
	if err != nil {
		s.log.Error("marshal survey stats", "surveyId", surveyID, "error", err)
		return FallbackInsights(stats)
	}
	raw, err := completeJSON(ctx, s.ai, string(payload), insightsSystemPrompt)
	if err != nil {
		s.log.Warn("AI insights failed, using fallback", "surveyId", surveyID, "kind", aiclient.KindOf(err), "error", err)
		return FallbackInsights(stats)
	}
	ins, err := ValidateInsights(raw)
	if err != nil {
		s.log.Warn("AI insights failed validation, using fallback", "surveyId", surveyID, "error", err)
		return FallbackInsights(stats)
	}
	return ins
}

// Enrich adds the banded assessments and the urgency level. AI and
// fallback insights go through it identically.
func Enrich(ins *model.Insights, m model.SurveyMetrics) {
	ins.ResponseRateAssessment = responseRateAssessment(m.ResponseRate)
	ins.CompletionTimeAssessment = ""
	if m.AverageCompletionTime > 0 {
		ins.CompletionTimeAssessment = completionTimeAssessment(m.AverageCompletionTime)
	}
	ins.UrgencyLevel = UrgencyLevel(m.ResponseRate, m.AverageScaleScore, m.AverageCompletionTime)
}

func responseRateAssessment(rate float64) string {
	switch {
	case rate <= 30:
		return "Low response rate - consider follow-up reminders"
	case rate <= 60:
		return "Moderate response rate - room for improvement"
	case rate <= 80:
		return "Good response rate - performing well"
	default:
		return "Excellent response rate - highly engaged audience"
	}
}

func completionTimeAssessment(minutes float64) string {
	switch {
	case minutes <= 3:
		return "Very quick survey - good user experience"
	case minutes <= 7:
		return "Reasonable completion time"
	case minutes <= 15:
		return "Longer survey - monitor for dropoff"
	default:
		return "Very long survey - consider shortening"
	}
}

// UrgencyLevel weighs the concerns: low participation +1, low
// satisfaction +2, slow completion +1
func UrgencyLevel(rate float64, avgScore *float64, minutes float64) string {
	concerns := 0
	if rate < 50 {
		concerns++
	}
	if avgScore != nil && *avgScore < 6 {
		concerns += 2
	}
	if minutes > 10 {
		concerns++
	}
	switch {
	case concerns <= 1:
		return "low"
	case concerns <= 3:
		return "medium"
	default:
		return "high"
	}
}

// listingSummary truncates the executive summary for list views
func listingSummary(exec string) string {
	exec = strings.TrimSpace(exec)
	if exec == "" {
		return "AI analysis completed"
	}
	r := []rune(exec)
	if len(r) <= 250 {
		return exec
	}
	return string(r[:247]) + "..."
}

// FallbackInsights derives insights from the statistics alone
func FallbackInsights(stats model.SurveyStats) *model.Insights {
	rate := stats.ResponseRate
	avg := stats.OverallSatisfaction
	minutes := stats.AverageCompletionTime

	ins := &model.Insights{
		ExecutiveSummary:    executiveSummary(stats),
		KeyFindings:         keyFindings(stats),
		SatisfactionDrivers: satisfactionDrivers(stats),
		DepartmentInsights:  departmentInsights(stats.DepartmentBreakdown),
		Source:              "fallback",
	}

	areas := []string{}
	if rate < 50 {
		areas = append(areas, "Low response rate suggests need for improved communication or survey accessibility")
	}
	if avg != nil && *avg < 6 {
		areas = append(areas, "Below-average satisfaction scores indicate significant opportunities for improvement")
	}
	if minutes > 10 {
		areas = append(areas, "Long completion times may indicate survey is too lengthy or complex")
	}
	if low := countScaleQuestions(stats, func(a float64) bool { return a < 5 }); low > 0 {
		areas = append(areas, fmt.Sprintf("%d question(s) show concerning low scores requiring attention", low))
	}
	ins.AreasForImprovement = areas

	risks := []string{}
	if rate < 30 {
		risks = append(risks, "Very low response rate may indicate disengagement or survey fatigue")
	}
	if avg != nil && *avg < 4 {
		risks = append(risks, "Critically low satisfaction scores suggest urgent intervention needed")
	}
	if stats.TotalResponses >= 5 && float64(stats.RecentResponses) < float64(stats.TotalResponses)*0.2 {
		risks = append(risks, "Response rate appears to be declining over time")
	}
	ins.RiskIndicators = risks

	actions := []string{}
	if rate < 50 {
		actions = append(actions,
			"Send reminder communications to non-respondents to increase participation",
			"Review survey distribution method and accessibility")
	}
	if avg != nil && *avg < 6 {
		actions = append(actions,
			"Conduct focus groups or follow-up interviews to understand specific concerns",
			"Develop action plan to address low-scoring areas")
	}
	if minutes > 10 {
		actions = append(actions, "Consider shortening survey or breaking into multiple parts")
	}
	ins.RecommendedActions = append(actions, "Share results with participants to demonstrate value of their feedback")

	return ins
}

func executiveSummary(stats model.SurveyStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Survey received %d responses from %d assignments (%s%% response rate). ",
		stats.TotalResponses, stats.TotalAssignments, fmt1(stats.ResponseRate))

	if avg := stats.OverallSatisfaction; avg != nil {
		switch {
		case *avg >= 7:
			fmt.Fprintf(&b, "Overall satisfaction is positive with an average score of %s/10. ", fmt1(*avg))
		case *avg >= 5:
			fmt.Fprintf(&b, "Overall satisfaction is moderate with an average score of %s/10. ", fmt1(*avg))
		default:
			fmt.Fprintf(&b, "Overall satisfaction is concerning with a low average score of %s/10. ", fmt1(*avg))
		}
	}

	switch {
	case stats.ResponseRate >= 70:
		b.WriteString("Strong engagement suggests results are representative.")
	case stats.ResponseRate >= 50:
		b.WriteString("Moderate engagement provides useful insights but consider follow-up for higher participation.")
	default:
		b.WriteString("Low engagement suggests results may not be fully representative - recommend additional outreach.")
	}
	return b.String()
}

func keyFindings(stats model.SurveyStats) []string {
	findings := []string{
		fmt.Sprintf("%s%% response rate with %d completed responses", fmt1(stats.ResponseRate), stats.TotalResponses),
	}
	if avg := stats.OverallSatisfaction; avg != nil {
		findings = append(findings, fmt.Sprintf("Average satisfaction score of %s/10 across scale questions", fmt1(*avg)))
	}
	if stats.AverageCompletionTime > 0 {
		findings = append(findings, fmt.Sprintf("Average completion time of %s minutes", fmt1(stats.AverageCompletionTime)))
	}
	if best := topDepartment(stats.DepartmentBreakdown); best != "" {
		findings = append(findings, best+" department shows highest engagement")
	}
	return findings
}

func satisfactionDrivers(stats model.SurveyStats) []string {
	var drivers []string
	if avg := stats.OverallSatisfaction; avg != nil {
		switch {
		case *avg >= 7:
			drivers = append(drivers,
				"Strong overall satisfaction indicates effective current practices",
				"High engagement in survey completion suggests active and invested audience")
		case *avg >= 5:
			drivers = append(drivers, "Moderate satisfaction provides good foundation for improvement")
		}
	}
	if countScaleQuestions(stats, func(a float64) bool { return a >= 7 }) > 0 {
		drivers = append(drivers, "Several areas show strong performance based on high individual question scores")
	}
	if len(drivers) == 0 {
		return []string{"Response participation indicates willingness to provide feedback"}
	}
	return drivers
}

func departmentInsights(depts map[string]model.DepartmentStats) map[string]string {
	out := make(map[string]string, len(depts))
	for name, d := range depts {
		rate := fmt1(d.ResponseRate)
		switch {
		case d.ResponseRate >= 70:
			out[name] = fmt.Sprintf("Strong participation (%s%%) suggests high engagement", rate)
		case d.ResponseRate >= 50:
			out[name] = fmt.Sprintf("Moderate participation (%s%%) - consider targeted follow-up", rate)
		default:
			out[name] = fmt.Sprintf("Low participation (%s%%) requires attention and outreach", rate)
		}
	}
	return out
}

// topDepartment picks the highest response rate; ties go to the first name alphabetically
func topDepartment(depts map[string]model.DepartmentStats) string {
	names := make([]string, 0, len(depts))
	for name := range depts {
		names = append(names, name)
	}
	sort.Strings(names)
	best := ""
	for _, name := range names {
		if best == "" || depts[name].ResponseRate > depts[best].ResponseRate {
			best = name
		}
	}
	return best
}

func countScaleQuestions(stats model.SurveyStats, match func(avg float64) bool) int {
	n := 0
	for _, q := range stats.QuestionsAnalysis {
		if q.Type == model.QuestionScale && q.AverageScore != nil && match(*q.AverageScore) {
			n++
		}
	}
	return n
}
