package domain

import (
	"context"

	"github.com/google/uuid"
)

// SignalStore is the only interface through which signals reach the
// underlying store. Writes are append-only; queries are snapshot reads
// ordered descending by timestamp.
type SignalStore interface {
	Record(ctx context.Context, s *Signal) error
	// RecordBatch persists all signals in one transaction; partial writes
	// are not possible.
	RecordBatch(ctx context.Context, signals []*Signal) error
	Query(ctx context.Context, f SignalFilter) ([]Signal, error)
	// CountDistinctDays reports how many distinct UTC days carry at least
	// one signal matching the filter.
	CountDistinctDays(ctx context.Context, f SignalFilter) (int, error)
}

// FindingStore persists statistical findings keyed by the natural tuple
// (kind, subject, predicate, object, lag_days). No delete is exposed;
// resolution is an external workflow.
type FindingStore interface {
	// Upsert creates the finding or refreshes stats/evidence/strength/
	// updated_at of the existing row, preserving id/created_at and status.
	Upsert(ctx context.Context, f *Finding) error
	GetFinding(ctx context.Context, id uuid.UUID) (*Finding, error)
	GetFindings(ctx context.Context, f FindingFilter) ([]Finding, error)
	CountByKind(ctx context.Context, kind FindingKind, status FindingStatus) (int, error)
}

// CompletionClient is the narrow boundary to the text-completion provider.
// Implementations must honor ctx cancellation; callers treat every error as
// a signal to fall back, never to fail the request.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// HealthEvaluator produces the data-quality/model-health summary consumed by
// the insight pipeline. Injectable so the pipeline is testable with a stub.
type HealthEvaluator interface {
	Evaluate(ctx context.Context, timeRangeDays int) (*HealthReport, error)
}
