package service

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"survai/internal/model"
)

// timelineDays bounds the response timeline sent for insights analysis
const timelineDays = 7

// recentWindow is the look-back used to spot declining participation
const recentWindow = 72 * time.Hour

// ComputeMetrics derives the survey's rates and averages from its
// assignments and responses. Nothing here is ever stored.
func ComputeMetrics(survey *model.Survey, assignments []*model.Assignment, responses []*model.Response, now time.Time) model.SurveyMetrics {
	m := model.SurveyMetrics{
		TotalAssignments: len(assignments),
		TotalResponses:   len(responses),
		AssignmentsByStatus: map[model.AssignmentStatus]int{
			model.AssignmentNotStarted: 0,
			model.AssignmentInProgress: 0,
			model.AssignmentCompleted:  0,
		},
	}
	for _, a := range assignments {
		m.AssignmentsByStatus[a.Status()]++
		if a.Completed {
			m.CompletedAssignments++
		}
		if a.Overdue(now) {
			m.OverdueAssignments++
		}
	}

	var times []float64
	for _, r := range responses {
		if !r.Completed() {
			continue
		}
		m.CompletedResponses++
		if t := r.TimeToComplete(); t > 0 {
			times = append(times, t)
		}
	}

	if m.TotalAssignments > 0 {
		m.ResponseRate = round1(percent(m.CompletedAssignments, m.TotalAssignments))
	}
	if m.TotalResponses > 0 {
		m.CompletionRate = round1(percent(m.CompletedResponses, m.TotalResponses))
	}
	if len(times) > 0 {
		m.AverageCompletionTime = round1(sum(times) / float64(len(times)))
	}

	var scores []float64
	for _, q := range survey.Questions {
		if q.Type == model.QuestionScale {
			scores = append(scores, scaleScores(q.ID, responses)...)
		}
	}
	if len(scores) > 0 {
		avg := round1(sum(scores) / float64(len(scores)))
		m.AverageScaleScore = &avg
	}
	return m
}

// BuildSurveyStats aggregates everything the insights prompt and the
// rule-based fallback look at. users maps user id to user and may be partial.
func BuildSurveyStats(survey *model.Survey, assignments []*model.Assignment, responses []*model.Response, users map[string]*model.User, metrics model.SurveyMetrics, now time.Time) model.SurveyStats {
	stats := model.SurveyStats{
		SurveyTitle:           survey.Title,
		SurveyDescription:     survey.Description,
		TotalAssignments:      metrics.TotalAssignments,
		TotalResponses:        metrics.CompletedResponses,
		ResponseRate:          metrics.ResponseRate,
		AverageCompletionTime: metrics.AverageCompletionTime,
		OverallSatisfaction:   metrics.AverageScaleScore,
	}

	for _, q := range survey.OrderedQuestions() {
		qs := model.QuestionStats{
			QuestionID: q.ID,
			Question:   q.Text,
			Type:       q.Type,
			Required:   q.Required,
		}
		if q.Type == model.QuestionScale {
			scores := scaleScores(q.ID, responses)
			if len(scores) > 0 {
				avg := round1(sum(scores) / float64(len(scores)))
				qs.AverageScore = &avg
				qs.ScoreDistribution = make(map[int]int)
				for _, v := range scores {
					qs.ScoreDistribution[int(v)]++
				}
				qs.ResponseCount = len(scores)
			}
		} else {
			texts := answerTexts(q.ID, responses)
			qs.ResponseCount = len(texts)
			if len(texts) > 3 {
				texts = texts[:3]
			}
			qs.SampleResponses = texts
		}
		stats.QuestionsAnalysis = append(stats.QuestionsAnalysis, qs)
	}

	depts := make(map[string]model.DepartmentStats)
	for _, a := range assignments {
		u := users[a.UserID]
		if u == nil || strings.TrimSpace(u.Department) == "" {
			continue
		}
		d := depts[u.Department]
		d.Assigned++
		if a.Completed {
			d.Completed++
		}
		depts[u.Department] = d
	}
	if len(depts) > 0 {
		for name, d := range depts {
			d.ResponseRate = round1(percent(d.Completed, d.Assigned))
			depts[name] = d
		}
		stats.DepartmentBreakdown = depts
	}

	var times []float64
	perDay := make(map[string]int)
	cutoff := now.Add(-recentWindow)
	for _, r := range responses {
		if !r.Completed() {
			continue
		}
		if t := r.TimeToComplete(); t > 0 {
			times = append(times, t)
		}
		perDay[r.CompletedAt.UTC().Format("2006-01-02")]++
		if !r.CompletedAt.Before(cutoff) {
			stats.RecentResponses++
		}
	}
	if len(times) > 0 {
		ct := &model.CompletionTimeStats{
			Average: round1(sum(times) / float64(len(times))),
			Fastest: times[0],
			Slowest: times[0],
		}
		for _, t := range times {
			ct.Fastest = math.Min(ct.Fastest, t)
			ct.Slowest = math.Max(ct.Slowest, t)
		}
		stats.CompletionTimeAnalysis = ct
	}
	if len(perDay) > 0 {
		days := make([]string, 0, len(perDay))
		for d := range perDay {
			days = append(days, d)
		}
		sort.Strings(days)
		if len(days) > timelineDays {
			days = days[len(days)-timelineDays:]
		}
		for _, d := range days {
			stats.ResponseTimeline = append(stats.ResponseTimeline, model.TimelinePoint{Date: d, Count: perDay[d]})
		}
	}
	return stats
}

// scaleScores collects the positive numeric answers to a question from completed responses
func scaleScores(questionID string, responses []*model.Response) []float64 {
	var out []float64
	for _, r := range responses {
		if !r.Completed() {
			continue
		}
		v, ok := r.AnswerFor(questionID)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			continue
		}
		out = append(out, f)
	}
	return out
}

// answerTexts collects the non-empty answers to a question from completed responses
func answerTexts(questionID string, responses []*model.Response) []string {
	var out []string
	for _, r := range responses {
		if !r.Completed() {
			continue
		}
		if v, ok := r.AnswerFor(questionID); ok {
			out = append(out, v)
		}
	}
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func sum(vs []float64) float64 {
	var t float64
	for _, v := range vs {
		t += v
	}
	return t
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// fmt1 renders a metric with one decimal, e.g. 40 -> "40.0"
func fmt1(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
