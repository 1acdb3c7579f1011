package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"survai/internal/aiclient"
	"survai/internal/logger"
	"survai/internal/model"
)

// Completer is the slice of the AI client the scorer needs
type Completer interface {
	Complete(ctx context.Context, prompt, system string) (string, error)
}

// AIScorer asks the AI provider for a single-text classification and
// falls back to the rule scorer on any failure.
type AIScorer struct {
	ai       Completer
	fallback Scorer
	log      *logger.Logger
}

func NewAIScorer(ai Completer, fallback Scorer, log *logger.Logger) *AIScorer {
	if log == nil {
		log = logger.Nop()
	}
	return &AIScorer{ai: ai, fallback: fallback, log: log.With("service", "AIScorer")}
}

const sentimentSystemPrompt = `You are an expert sentiment analysis AI. Analyze the emotional tone of the given text and provide a sentiment score.

Return ONLY a JSON object with this exact structure:
{
  "sentiment": "positive|negative|neutral",
  "score": 0.0-1.0,
  "confidence": 0.0-1.0,
  "emotions": ["emotion1", "emotion2"],
  "reasoning": "Brief explanation of why this sentiment was detected"
}

Guidelines:
- positive: Optimistic, satisfied, enthusiastic, happy, confident
- negative: Frustrated, disappointed, concerned, angry, worried
- neutral: Factual, balanced, neither positive nor negative
- score: 0.0 = very negative, 0.5 = neutral, 1.0 = very positive
- confidence: How certain you are about this analysis (0.0-1.0)
- emotions: List 1-3 specific emotions detected
- reasoning: 1-2 sentence explanation

Be precise and consistent in your analysis.`

func (s *AIScorer) Score(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Label: Neutral, Score: 0.5, Confidence: 0.8, Emotions: []string{"neutral"}, Reasoning: "No clear sentiment detected"}
	}

	reply, err := s.ai.Complete(ctx, fmt.Sprintf("Analyze the sentiment of this text: %q", text), sentimentSystemPrompt)
	if err != nil {
		s.log.Warn("AI sentiment failed, using rules", "kind", aiclient.KindOf(err), "error", err)
		return s.fallback.Score(ctx, text)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(aiclient.ExtractJSON(reply)), &raw); err != nil {
		s.log.Warn("AI sentiment reply is not JSON, using rules", "error", err)
		return s.fallback.Score(ctx, text)
	}

	res, err := ValidateSentiment(raw)
	if err != nil {
		s.log.Warn("AI sentiment reply failed validation, using rules", "error", err)
		return s.fallback.Score(ctx, text)
	}
	return res
}

// ValidateSentiment checks an AI sentiment payload. sentiment, score and
// confidence are required and the latter two must be numeric. Out of range
// numbers are clamped and unknown labels become neutral.
func ValidateSentiment(raw map[string]interface{}) (Result, error) {
	verr := &model.ValidationError{Schema: "sentiment"}

	label, ok := raw["sentiment"].(string)
	if _, present := raw["sentiment"]; !present {
		verr.Add("missing key: sentiment")
	} else if !ok {
		verr.Add("sentiment must be a string")
	}
	score := numberField(raw, "score", verr)
	confidence := numberField(raw, "confidence", verr)

	if err := verr.OrNil(); err != nil {
		return Result{}, err
	}

	res := Result{
		Label:      Label(strings.ToLower(strings.TrimSpace(label))),
		Score:      clamp01(score),
		Confidence: clamp01(confidence),
		Reasoning:  "AI analysis completed",
	}
	switch res.Label {
	case Positive, Negative, Neutral:
	default:
		res.Label = Neutral
	}
	if list, ok := raw["emotions"].([]interface{}); ok {
		for _, e := range list {
			if s, ok := e.(string); ok {
				res.Emotions = append(res.Emotions, s)
			}
		}
	}
	if r, ok := raw["reasoning"].(string); ok && r != "" {
		res.Reasoning = r
	}
	return res, nil
}

func numberField(raw map[string]interface{}, key string, verr *model.ValidationError) float64 {
	v, present := raw[key]
	if !present {
		verr.Add("missing key: " + key)
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		verr.Add(key + " must be a number")
		return 0
	}
	return f
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
