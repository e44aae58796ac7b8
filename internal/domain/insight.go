package domain

import (
	"time"

	"github.com/google/uuid"
)

// InsightQuery is a free-text self-understanding question. Subject is inferred
// from the question text when empty; TimeRangeDays defaults to 30.
type InsightQuery struct {
	Question      string `json:"question"`
	Subject       string `json:"subject,omitempty"`
	TimeRangeDays int    `json:"time_range_days,omitempty"`
}

// Citation binds one claim in a synthesized answer to a persisted finding.
type Citation struct {
	FindingID   uuid.UUID   `json:"finding_id"`
	Kind        FindingKind `json:"kind"`
	Description string      `json:"description"`
	Strength    float64     `json:"strength"`
}

type DataQuality struct {
	Grade        string `json:"grade"`
	CoverageDays int    `json:"coverage_days"`
	FindingsUsed int    `json:"findings_used"`
}

// InsightAnswer is the contract of AnswerWithCitations: always well-formed,
// even when the evidence base is empty or the completion provider fails.
type InsightAnswer struct {
	Answer            string      `json:"answer"`
	Confidence        float64     `json:"confidence"`
	Citations         []Citation  `json:"citations"`
	DataQuality       DataQuality `json:"data_quality"`
	FollowUpQuestions []string    `json:"follow_up_questions"`
	GeneratedAt       time.Time   `json:"generated_at"`
}

// QuickInsights is the synchronous, LLM-free fast path.
type QuickInsights struct {
	TopCorrelation           *Finding `json:"top_correlation,omitempty"`
	UnresolvedContradictions int      `json:"unresolved_contradictions"`
	DataQuality              string   `json:"data_quality"`
}

// HealthReport summarizes how well-covered and well-evidenced the signal
// history is over a time window.
type HealthReport struct {
	Overall struct {
		Score float64 `json:"score"`
		Grade string  `json:"grade"`
	} `json:"overall"`
	Coverage struct {
		TotalDays  int `json:"total_days"`
		TargetDays int `json:"target_days"`
	} `json:"coverage"`
	Findings struct {
		Correlations   int `json:"correlations"`
		Contradictions int `json:"contradictions"`
	} `json:"findings"`
}
