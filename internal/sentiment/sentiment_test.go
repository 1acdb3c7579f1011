package sentiment

import (
	"context"
	"errors"
	"testing"

	"survai/internal/model"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestRuleScorerBounds(t *testing.T) {
	scorer := NewRuleScorer(DefaultLexicon())
	inputs := []string{
		"",
		"   ",
		"great excellent amazing wonderful fantastic love happy",
		"terrible awful horrible bad worse worst hate problem issue lack",
		"good but slow",
		"the meeting is on tuesday",
		"GREAT Team",
	}
	for _, in := range inputs {
		r := scorer.ScoreText(in)
		if r.Score < 0 || r.Score > 1 {
			t.Fatalf("%q: score %v out of [0,1]", in, r.Score)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Fatalf("%q: confidence %v out of [0,1]", in, r.Confidence)
		}
		n := Normalize(r)
		if n < -1 || n > 1 {
			t.Fatalf("%q: normalized %v out of [-1,1]", in, n)
		}
	}
}

func TestRuleScorerCases(t *testing.T) {
	scorer := NewRuleScorer(DefaultLexicon())
	tests := []struct {
		name      string
		text      string
		wantLabel Label
		wantScore float64
		wantConf  float64
	}{
		{"blank", "", Neutral, 0.5, 0.8},
		{"tie", "the schedule is set", Neutral, 0.5, 0.7},
		{"one positive", "a great day", Positive, 0.7, 0.7},
		{"positive capped", "great excellent amazing wonderful fantastic", Positive, 0.9, 0.9},
		{"one negative", "it was awful", Negative, 0.3, 0.7},
		{"negative floor", "terrible awful horrible hate broken", Negative, 0.1, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := scorer.ScoreText(tt.text)
			if r.Label != tt.wantLabel || r.Score != tt.wantScore || r.Confidence != tt.wantConf {
				t.Fatalf("got %+v, want %s/%v/%v", r, tt.wantLabel, tt.wantScore, tt.wantConf)
			}
		})
	}
}

func TestPositiveOnlyTextNormalizesPositive(t *testing.T) {
	scorer := NewRuleScorer(DefaultLexicon())
	r := scorer.ScoreText("I love this, it is great")
	n := Normalize(r)
	if r.Label != Positive || n <= 0 || LabelFor(n) != LabelPositive {
		t.Fatalf("label=%s normalized=%v bucket=%s", r.Label, n, LabelFor(n))
	}

	r = scorer.ScoreText("this is terrible")
	n = Normalize(r)
	if r.Label != Negative || n >= 0 {
		t.Fatalf("label=%s normalized=%v", r.Label, n)
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1, LabelPositive},
		{0.35, LabelPositive},
		{0.3, LabelPositive},
		{0.25, LabelSlightlyPositive},
		{0.1, LabelSlightlyPositive},
		{0.05, LabelNeutral},
		{-0.05, LabelNeutral},
		{-0.1, LabelNeutral},
		{-0.2, LabelSlightlyNegative},
		{-0.3, LabelSlightlyNegative},
		{-0.31, LabelNegative},
		{-1, LabelNegative},
	}
	for _, tt := range tests {
		if got := LabelFor(tt.score); got != tt.want {
			t.Fatalf("LabelFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestNormalizeNeutralIsZero(t *testing.T) {
	if n := Normalize(Result{Label: Neutral, Score: 0.9}); n != 0 {
		t.Fatalf("neutral normalized to %v", n)
	}
	if n := Normalize(Result{Label: Positive, Score: 1.4}); n != 1 {
		t.Fatalf("clamp: got %v", n)
	}
}

func TestConfidenceFromScores(t *testing.T) {
	if got := ConfidenceFromScores(nil); got != 0 {
		t.Fatalf("empty: got %d", got)
	}
	if got := ConfidenceFromScores([]float64{0.4, 0.4, 0.4}); got != 100 {
		t.Fatalf("uniform: got %d", got)
	}
	// stddev of {-1, 1} is 1
	if got := ConfidenceFromScores([]float64{-1, 1}); got != 50 {
		t.Fatalf("spread: got %d", got)
	}
}

func TestNewLexiconDedupes(t *testing.T) {
	lex := NewLexicon([]string{"Good", "good", " great "}, nil)
	if len(lex.Positive) != 2 || lex.Positive[0] != "good" || lex.Positive[1] != "great" {
		t.Fatalf("positive = %v", lex.Positive)
	}
	over := DefaultLexicon().WithOverrides(nil, []string{"meh"})
	if len(over.Negative) != 1 || len(over.Positive) == 0 {
		t.Fatalf("overrides = %+v", over)
	}
}

func TestValidateSentimentCollectsAllViolations(t *testing.T) {
	_, err := ValidateSentiment(map[string]interface{}{"score": "high"})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Violations) != 3 {
		t.Fatalf("violations = %v", verr.Violations)
	}
}

func TestValidateSentimentClampsAndCoerces(t *testing.T) {
	res, err := ValidateSentiment(map[string]interface{}{
		"sentiment":  "Ecstatic",
		"score":      1.7,
		"confidence": -0.2,
		"emotions":   []interface{}{"joy", 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != Neutral || res.Score != 1 || res.Confidence != 0 {
		t.Fatalf("got %+v", res)
	}
	if len(res.Emotions) != 1 || res.Emotions[0] != "joy" {
		t.Fatalf("emotions = %v", res.Emotions)
	}
}

func TestAIScorer(t *testing.T) {
	fallback := NewRuleScorer(DefaultLexicon())

	t.Run("valid reply", func(t *testing.T) {
		ai := &stubCompleter{reply: "Sure!\n```json\n{\"sentiment\":\"negative\",\"score\":0.2,\"confidence\":0.9,\"emotions\":[\"worried\"],\"reasoning\":\"worry\"}\n```"}
		r := NewAIScorer(ai, fallback, nil).Score(context.Background(), "I am great")
		if r.Label != Negative || r.Score != 0.2 || r.Reasoning != "worry" {
			t.Fatalf("got %+v", r)
		}
	})

	t.Run("client error falls back", func(t *testing.T) {
		ai := &stubCompleter{err: errors.New("boom")}
		r := NewAIScorer(ai, fallback, nil).Score(context.Background(), "I love it")
		if r.Label != Positive {
			t.Fatalf("got %+v", r)
		}
	})

	t.Run("garbage falls back", func(t *testing.T) {
		ai := &stubCompleter{reply: "not json at all"}
		r := NewAIScorer(ai, fallback, nil).Score(context.Background(), "awful")
		if r.Label != Negative {
			t.Fatalf("got %+v", r)
		}
	})

	t.Run("blank skips provider", func(t *testing.T) {
		ai := &stubCompleter{}
		r := NewAIScorer(ai, fallback, nil).Score(context.Background(), "  ")
		if ai.calls != 0 || r.Label != Neutral {
			t.Fatalf("calls=%d result=%+v", ai.calls, r)
		}
	})
}
