package model

import "time"

// InsightFreshness is how long a stored insight is reused instead of regenerated
const InsightFreshness = time.Hour

// AnalysisVersion is stamped on every stored insight
const AnalysisVersion = "1.0"

// SurveyInsight is an immutable analytics snapshot for a survey
type SurveyInsight struct {
	ID              string    `json:"id" bson:"_id"`
	SurveyID        string    `json:"survey_id" bson:"surveyId"`
	InsightsData    Insights  `json:"insights_data" bson:"insightsData"`
	GeneratedBy     string    `json:"generated_by" bson:"generatedBy"`
	GeneratedAt     time.Time `json:"generated_at" bson:"generatedAt"`
	AnalysisVersion string    `json:"analysis_version" bson:"analysisVersion"`
	Summary         string    `json:"summary" bson:"summary"`
}

// Fresh reports whether the insight may be reused at now
func (i *SurveyInsight) Fresh(now time.Time) bool {
	return now.Sub(i.GeneratedAt) < InsightFreshness
}

// Insights is the structured result of insights analysis (AI or fallback)
type Insights struct {
	ExecutiveSummary    string            `json:"executive_summary" bson:"executiveSummary"`
	KeyFindings         []string          `json:"key_findings" bson:"keyFindings"`
	SatisfactionDrivers []string          `json:"satisfaction_drivers" bson:"satisfactionDrivers"`
	AreasForImprovement []string          `json:"areas_for_improvement" bson:"areasForImprovement"`
	RiskIndicators      []string          `json:"risk_indicators" bson:"riskIndicators"`
	RecommendedActions  []string          `json:"recommended_actions" bson:"recommendedActions"`
	DepartmentInsights  map[string]string `json:"department_insights" bson:"departmentInsights"`

	// Enrichment, identical for AI and fallback results
	ResponseRateAssessment   string `json:"response_rate_assessment" bson:"responseRateAssessment"`
	CompletionTimeAssessment string `json:"completion_time_assessment,omitempty" bson:"completionTimeAssessment,omitempty"`
	UrgencyLevel             string `json:"urgency_level" bson:"urgencyLevel"`

	Source string `json:"source" bson:"source"` // "ai" or "fallback"
}

// SurveyMetrics are derived at read time from assignments and responses
type SurveyMetrics struct {
	TotalAssignments      int                      `json:"total_assignments"`
	CompletedAssignments  int                      `json:"completed_assignments"`
	OverdueAssignments    int                      `json:"overdue_assignments"`
	TotalResponses        int                      `json:"total_responses"`
	CompletedResponses    int                      `json:"completed_responses"`
	ResponseRate          float64                  `json:"response_rate"`
	CompletionRate        float64                  `json:"completion_rate"`
	AverageCompletionTime float64                  `json:"average_completion_time"`
	AverageScaleScore     *float64                 `json:"average_scale_score"`
	AssignmentsByStatus   map[AssignmentStatus]int `json:"assignments_by_status"`
}

// SurveyStats is the aggregated payload sent to the AI for insights analysis
type SurveyStats struct {
	SurveyTitle            string                     `json:"survey_title"`
	SurveyDescription      string                     `json:"survey_description"`
	TotalAssignments       int                        `json:"total_assignments"`
	TotalResponses         int                        `json:"total_responses"`
	ResponseRate           float64                    `json:"response_rate"`
	AverageCompletionTime  float64                    `json:"average_completion_time"`
	OverallSatisfaction    *float64                   `json:"overall_satisfaction"`
	QuestionsAnalysis      []QuestionStats            `json:"questions_analysis"`
	DepartmentBreakdown    map[string]DepartmentStats `json:"department_breakdown,omitempty"`
	CompletionTimeAnalysis *CompletionTimeStats       `json:"completion_time_analysis,omitempty"`
	ResponseTimeline       []TimelinePoint            `json:"response_timeline,omitempty"`

	// RecentResponses counts completed responses in the last 3 days
	RecentResponses int `json:"-"`
}

type QuestionStats struct {
	QuestionID        string       `json:"-"`
	Question          string       `json:"question"`
	Type              QuestionType `json:"type"`
	Required          bool         `json:"required"`
	AverageScore      *float64     `json:"average_score,omitempty"`
	ScoreDistribution map[int]int  `json:"score_distribution,omitempty"`
	ResponseCount     int          `json:"response_count"`
	SampleResponses   []string     `json:"sample_responses,omitempty"`
}

type DepartmentStats struct {
	Assigned     int     `json:"assigned"`
	Completed    int     `json:"completed"`
	ResponseRate float64 `json:"response_rate"`
}

type CompletionTimeStats struct {
	Average float64 `json:"average"`
	Fastest float64 `json:"fastest"`
	Slowest float64 `json:"slowest"`
}

type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
