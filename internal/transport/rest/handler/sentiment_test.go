package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"survai/internal/sentiment"
)

func TestScoreText(t *testing.T) {
	h := NewSentimentHandler(sentiment.NewRuleScorer(sentiment.DefaultLexicon()))

	tests := []struct {
		name   string
		body   string
		status int
		label  sentiment.Label
	}{
		{"positive", `{"text":"I love the great team"}`, http.StatusOK, sentiment.Positive},
		{"negative", `{"text":"Terrible slow process"}`, http.StatusOK, sentiment.Negative},
		{"blank", `{"text":"   "}`, http.StatusOK, sentiment.Neutral},
		{"bad body", `nope`, http.StatusBadRequest, ""},
		{"too long", `{"text":"` + strings.Repeat("a", maxScoreTextLen+1) + `"}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Score(rec, httptest.NewRequest("POST", "/v1/sentiment/score", strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			var got ScoreResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Label != tt.label {
				t.Errorf("label = %q, want %q", got.Label, tt.label)
			}
			if tt.label == sentiment.Positive && got.Normalized <= 0 {
				t.Errorf("normalized = %v, want > 0", got.Normalized)
			}
			if tt.label == sentiment.Negative && got.Normalized >= 0 {
				t.Errorf("normalized = %v, want < 0", got.Normalized)
			}
		})
	}
}
