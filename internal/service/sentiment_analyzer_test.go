package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"survai/internal/model"
	"survai/internal/questiontype"
	"survai/internal/sentiment"
)

func newAnalyzerFixture(responses int) (*SentimentAnalyzer, *memStore) {
	store := newMemStore()
	survey := seedSurvey(store)
	texts := []struct{ dept, text string }{
		{"Engineering", "I love the great team"},
		{"Sales", "Terrible slow process"},
		{"Engineering", "Great tools and great people"},
		{"Sales", "The meeting is on tuesday"},
	}
	for i := 0; i < responses; i++ {
		u := seedUser(store, "u"+string(rune('a'+i)), texts[i].dept)
		day := testNow.Add(-time.Duration(i) * 24 * time.Hour)
		seedResponse(store, survey, u, day, "7", texts[i].text)
	}
	a := NewSentimentAnalyzer(memSurveys{store}, memResponses{store}, memUsers{store},
		questiontype.Default(), sentiment.NewRuleScorer(sentiment.DefaultLexicon()), nil)
	a.now = fixedClock
	return a, store
}

func TestSentimentNeedsThreeResponses(t *testing.T) {
	a, _ := newAnalyzerFixture(2)

	var derr *DataError
	if err := a.Precheck(context.Background(), "s-1"); !errors.As(err, &derr) {
		t.Fatalf("Precheck err = %v, want *DataError", err)
	}
	if _, err := a.Analyze(context.Background(), "s-1", nil); !errors.As(err, &derr) {
		t.Fatalf("Analyze err = %v, want *DataError", err)
	}
	if err := a.Precheck(context.Background(), "missing"); !errors.Is(err, ErrSurveyNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSentimentAnalyzeReport(t *testing.T) {
	a, _ := newAnalyzerFixture(4)

	var checkpoints []int
	report, err := a.Analyze(context.Background(), "s-1", func(pct int, _ string) {
		checkpoints = append(checkpoints, pct)
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	want := []int{25, 35, 50, 60, 70, 80}
	if len(checkpoints) != len(want) {
		t.Fatalf("checkpoints = %v", checkpoints)
	}
	for i := range want {
		if checkpoints[i] != want[i] {
			t.Fatalf("checkpoints = %v, want %v", checkpoints, want)
		}
	}

	// scale answers are not scored and q-text2 has no answers
	if report.OverallSentiment.TotalResponses != 4 {
		t.Fatalf("total = %d", report.OverallSentiment.TotalResponses)
	}
	if len(report.SentimentByQuestion) != 1 || report.SentimentByQuestion[0].QuestionID != "q-text" {
		t.Fatalf("by question = %+v", report.SentimentByQuestion)
	}
	if n := len(report.SentimentByQuestion[0].SampleResponses); n != 3 {
		t.Fatalf("samples = %d", n)
	}

	depts := report.SentimentByDepartment
	if len(depts) != 2 || depts[0].Name != "Sales" || depts[1].Name != "Engineering" {
		t.Fatalf("departments should sort ascending by score: %+v", depts)
	}
	if len(depts[0].TopConcerns) != 1 || depts[0].TopConcerns[0] != "Terrible slow process" {
		t.Fatalf("sales concerns = %v", depts[0].TopConcerns)
	}
	if len(report.SentimentByRole) != 1 || report.SentimentByRole[0].TopConcerns != nil {
		t.Fatalf("roles = %+v", report.SentimentByRole)
	}

	if n := len(report.SentimentTrends.DailyTrends); n != 4 {
		t.Fatalf("daily trends = %d", n)
	}
	if report.SentimentTrends.DailyTrends[0].Date > report.SentimentTrends.DailyTrends[3].Date {
		t.Fatal("daily trends should be in date order")
	}

	b := report.DetailedBreakdown
	if b.PositiveResponses != 2 || b.NegativeResponses != 1 || b.NeutralResponses != 1 {
		t.Fatalf("breakdown = %+v", b)
	}
	if len(report.KeyInsights) < 1 || len(report.KeyInsights) > 3 {
		t.Fatalf("insights = %v", report.KeyInsights)
	}
	if !report.GeneratedAt.Equal(testNow) {
		t.Fatalf("generated at = %v", report.GeneratedAt)
	}
}

func TestSentimentAnalyzeHonorsCancellation(t *testing.T) {
	a, _ := newAnalyzerFixture(4)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := a.Analyze(ctx, "s-1", func(pct int, _ string) {
		calls++
		if pct == 50 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Fatalf("analysis should stop at the next checkpoint, got %d calls", calls)
	}
}

func TestSentimentTrendDirection(t *testing.T) {
	day := func(d int) *time.Time {
		v := testNow.Add(time.Duration(d) * 24 * time.Hour)
		return &v
	}
	mk := func(d int, score float64) scoredAnswer {
		return scoredAnswer{response: &model.Response{CompletedAt: day(d)}, score: score}
	}
	improving := sentimentTrends([]scoredAnswer{mk(0, -0.5), mk(1, -0.4), mk(2, 0.3), mk(3, 0.6)})
	if improving.TrendDirection != "improving" || improving.Volatility == 0 {
		t.Fatalf("trend = %+v", improving)
	}
	flat := sentimentTrends([]scoredAnswer{mk(0, 0.2), mk(1, 0.25)})
	if flat.TrendDirection != "stable" {
		t.Fatalf("trend = %+v", flat)
	}
	single := sentimentTrends([]scoredAnswer{mk(0, 0.2)})
	if single.TrendDirection != "stable" || single.Volatility != 0 {
		t.Fatalf("trend = %+v", single)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := ""
	for i := 0; i < 120; i++ {
		long += "é"
	}
	got := truncate(long, 100)
	if n := len([]rune(got)); n != 100 {
		t.Fatalf("truncated to %d runes", n)
	}
}
