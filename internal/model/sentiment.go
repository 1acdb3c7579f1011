package model

import "time"

// SentimentReport is the survey-wide, rule-based sentiment analysis
type SentimentReport struct {
	SurveyID               string              `json:"survey_id"`
	OverallSentiment       OverallSentiment    `json:"overall_sentiment"`
	SentimentByQuestion    []QuestionSentiment `json:"sentiment_by_question"`
	SentimentByDepartment  []GroupSentiment    `json:"sentiment_by_department"`
	SentimentByRole        []GroupSentiment    `json:"sentiment_by_role"`
	SentimentTrends        SentimentTrends     `json:"sentiment_trends"`
	KeyInsights            []string            `json:"key_insights"`
	RecommendationPriority string              `json:"recommendation_priority"`
	DetailedBreakdown      SentimentBreakdown  `json:"detailed_breakdown"`
	GeneratedAt            time.Time           `json:"generated_at"`
}

type OverallSentiment struct {
	Score          float64 `json:"score"`
	Label          string  `json:"label"`
	Confidence     int     `json:"confidence"`
	TotalResponses int     `json:"total_responses"`
}

type QuestionSentiment struct {
	QuestionID      string       `json:"question_id"`
	QuestionText    string       `json:"question_text"`
	QuestionType    QuestionType `json:"question_type"`
	SentimentScore  float64      `json:"sentiment_score"`
	SentimentLabel  string       `json:"sentiment_label"`
	ResponseCount   int          `json:"response_count"`
	Confidence      int          `json:"confidence"`
	SampleResponses []string     `json:"sample_responses"`
}

// GroupSentiment aggregates by department or role
type GroupSentiment struct {
	Name           string   `json:"name"`
	SentimentScore float64  `json:"sentiment_score"`
	SentimentLabel string   `json:"sentiment_label"`
	ResponseCount  int      `json:"response_count"`
	EmployeeCount  int      `json:"employee_count"`
	Confidence     int      `json:"confidence"`
	TopConcerns    []string `json:"top_concerns,omitempty"`
	TopPositives   []string `json:"top_positives,omitempty"`
}

type SentimentTrends struct {
	DailyTrends    []DailySentiment `json:"daily_trends"`
	TrendDirection string           `json:"trend_direction"`
	Volatility     float64          `json:"volatility"`
}

type DailySentiment struct {
	Date           string  `json:"date"`
	SentimentScore float64 `json:"sentiment_score"`
	ResponseCount  int     `json:"response_count"`
}

type SentimentBreakdown struct {
	PositiveResponses     int          `json:"positive_responses"`
	NeutralResponses      int          `json:"neutral_responses"`
	NegativeResponses     int          `json:"negative_responses"`
	MostPositiveResponses []ScoredText `json:"most_positive_responses"`
	MostNegativeResponses []ScoredText `json:"most_negative_responses"`
}

type ScoredText struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
