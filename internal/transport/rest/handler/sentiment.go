package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"survai/internal/sentiment"
)

const maxScoreTextLen = 5000

// SentimentHandler scores ad-hoc text
type SentimentHandler struct {
	scorer sentiment.Scorer
}

func NewSentimentHandler(scorer sentiment.Scorer) *SentimentHandler {
	return &SentimentHandler{scorer: scorer}
}

// ScoreRequest is the request body for scoring one text
type ScoreRequest struct {
	Text string `json:"text"`
}

// ScoreResponse adds the normalized score and its band to the raw result
type ScoreResponse struct {
	sentiment.Result
	Normalized float64 `json:"normalized_score"`
	Band       string  `json:"band"`
}

// Score handles POST /v1/sentiment/score
func (h *SentimentHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Text) > maxScoreTextLen {
		writeError(w, http.StatusBadRequest, "text is too long")
		return
	}

	res := h.scorer.Score(r.Context(), strings.TrimSpace(req.Text))
	norm := sentiment.Normalize(res)
	writeJSON(w, http.StatusOK, ScoreResponse{Result: res, Normalized: norm, Band: sentiment.LabelFor(norm)})
}
