package service

import (
	"context"
	"fmt"
	"time"

	"github.com/selflens/selflens/internal/domain"
	"go.uber.org/zap"
)

// Health scoring weights and grade cutoffs.
const (
	coverageWeight = 0.6
	findingsWeight = 0.4

	// Finding count at which the evidence component saturates.
	findingsSaturation = 10
)

// HealthService scores how well-covered and well-evidenced the signal
// history is over a time window. It is the data-quality collaborator behind
// domain.HealthEvaluator; the insight pipeline only sees the interface.
type HealthService struct {
	signals  domain.SignalStore
	findings domain.FindingStore
	logger   *zap.Logger
}

func NewHealthService(signals domain.SignalStore, findings domain.FindingStore, logger *zap.Logger) *HealthService {
	return &HealthService{signals: signals, findings: findings, logger: logger}
}

func (s *HealthService) Evaluate(ctx context.Context, timeRangeDays int) (*domain.HealthReport, error) {
	if timeRangeDays <= 0 {
		timeRangeDays = 30
	}

	until := time.Now().UTC()
	since := until.AddDate(0, 0, -timeRangeDays)

	coveredDays, err := s.signals.CountDistinctDays(ctx, domain.SignalFilter{Since: &since, Until: &until})
	if err != nil {
		return nil, fmt.Errorf("count covered days: %w", err)
	}

	correlations, err := s.findings.CountByKind(ctx, domain.FindingCorrelation, domain.FindingActive)
	if err != nil {
		return nil, fmt.Errorf("count correlations: %w", err)
	}
	contradictions, err := s.findings.CountByKind(ctx, domain.FindingContradiction, domain.FindingActive)
	if err != nil {
		return nil, fmt.Errorf("count contradictions: %w", err)
	}

	report := &domain.HealthReport{}
	report.Coverage.TotalDays = coveredDays
	report.Coverage.TargetDays = timeRangeDays
	report.Findings.Correlations = correlations
	report.Findings.Contradictions = contradictions

	coverageScore := float64(coveredDays) / float64(timeRangeDays)
	if coverageScore > 1 {
		coverageScore = 1
	}

	findingsScore := float64(correlations+contradictions) / findingsSaturation
	if findingsScore > 1 {
		findingsScore = 1
	}

	report.Overall.Score = coverageWeight*coverageScore + findingsWeight*findingsScore
	report.Overall.Grade = gradeFor(report.Overall.Score)

	s.logger.Debug("health evaluated",
		zap.Int("covered_days", coveredDays),
		zap.Int("target_days", timeRangeDays),
		zap.Float64("score", report.Overall.Score),
		zap.String("grade", report.Overall.Grade),
	)
	return report, nil
}

func gradeFor(score float64) string {
	switch {
	case score >= 0.9:
		return "A"
	case score >= 0.75:
		return "B"
	case score >= 0.6:
		return "C"
	case score >= 0.4:
		return "D"
	default:
		return "F"
	}
}
