package sentiment

import (
	"context"
	"math"
	"strings"
)

// Label is the per-text sentiment class
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Result is a single scored text. Score and Confidence are in [0,1];
// 0.5 is neutral.
type Result struct {
	Label      Label    `json:"sentiment"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Emotions   []string `json:"emotions,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// Scorer classifies free text
type Scorer interface {
	Score(ctx context.Context, text string) Result
}

// RuleScorer counts lexicon hits. Used on bulk paths.
type RuleScorer struct {
	lexicon Lexicon
}

// NewRuleScorer creates a keyword scorer over lex
func NewRuleScorer(lex Lexicon) *RuleScorer {
	return &RuleScorer{lexicon: lex}
}

func (s *RuleScorer) Score(_ context.Context, text string) Result {
	return s.ScoreText(text)
}

// ScoreText is the context-free form used by aggregations
func (s *RuleScorer) ScoreText(text string) Result {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Result{Label: Neutral, Score: 0.5, Confidence: 0.8}
	}

	pos := countHits(lower, s.lexicon.Positive)
	neg := countHits(lower, s.lexicon.Negative)

	switch {
	case pos > neg:
		v := math.Min(0.6+0.1*float64(pos), 0.9)
		return Result{Label: Positive, Score: round2(v), Confidence: round2(v)}
	case neg > pos:
		return Result{
			Label:      Negative,
			Score:      round2(math.Max(0.4-0.1*float64(neg), 0.1)),
			Confidence: round2(math.Min(0.6+0.1*float64(neg), 0.9)),
		}
	}
	return Result{Label: Neutral, Score: 0.5, Confidence: 0.7}
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
