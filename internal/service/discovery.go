package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/selflens/selflens/internal/domain"
	"go.uber.org/zap"
)

// Evidence gates and scoring constants.
const (
	// pearson refuses to estimate below this many pairs.
	MinPearsonSamples = 10
	// A finding is only emitted at or above both of these.
	MinFindingSamples = 20
	MinFindingEffect  = 0.25
	// How many of a day's signal IDs feed a finding's evidence list.
	EvidencePerDay = 5
	// Predicate used for all discovered lag correlations.
	PredicateChangesAfter = "changes_after"
)

// correlationPass describes one series pair the discovery run tests.
type correlationPass struct {
	subject string
	object  string
	xGet    func(*domain.DailyAggregate) *float64
	yGet    func(*domain.DailyAggregate) *float64
	lags    []int
}

// CorrelationResult reports the outcome of one (pair, lag) test. Below-gate
// results are normal negatives, not errors; Emitted marks whether a finding
// was persisted.
type CorrelationResult struct {
	Subject string          `json:"subject"`
	Object  string          `json:"object"`
	LagDays int             `json:"lag_days"`
	R       float64         `json:"r"`
	N       int             `json:"n"`
	Emitted bool            `json:"emitted"`
	Finding *domain.Finding `json:"finding,omitempty"`
}

// DiscoveryService computes lagged Pearson correlations between daily
// aggregate series and persists the ones that clear the evidence gates.
//
// Upsert-by-natural-key is a read-then-write at the store level, so runs are
// serialized with a run-level mutex; the findings table's unique constraint
// backstops any writer that slips past it.
type DiscoveryService struct {
	aggregates   *AggregateService
	findings     domain.FindingStore
	logger       *zap.Logger
	lookbackDays int

	runMu sync.Mutex
}

func NewDiscoveryService(aggregates *AggregateService, findings domain.FindingStore, lookbackDays int, logger *zap.Logger) *DiscoveryService {
	return &DiscoveryService{
		aggregates:   aggregates,
		findings:     findings,
		logger:       logger,
		lookbackDays: lookbackDays,
	}
}

// pearson returns the Pearson correlation coefficient over the first
// min(len(x), len(y)) elements, and that sample size. Fewer than
// MinPearsonSamples pairs or a zero denominator yield r = 0.
func pearson(x, y []float64) (float64, int) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < MinPearsonSamples {
		return 0, n
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var num, dx2, dy2 float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}

	denom := math.Sqrt(dx2 * dy2)
	if denom == 0 {
		return 0, n
	}
	return num / denom, n
}

// lagCorrelation pairs x at day i with y at day i+lagDays wherever both
// values are defined, and collects up to EvidencePerDay signal IDs from each
// paired day as evidence.
func lagCorrelation(daily []domain.DailyAggregate,
	xGet, yGet func(*domain.DailyAggregate) *float64, lagDays int,
) (r float64, n int, evidence []uuid.UUID) {
	var xs, ys []float64

	for i := 0; i+lagDays < len(daily); i++ {
		xDay := &daily[i]
		yDay := &daily[i+lagDays]

		x := xGet(xDay)
		y := yGet(yDay)
		if x == nil || y == nil {
			continue
		}

		xs = append(xs, *x)
		ys = append(ys, *y)
		evidence = append(evidence, headIDs(xDay.SignalIDs, EvidencePerDay)...)
		evidence = append(evidence, headIDs(yDay.SignalIDs, EvidencePerDay)...)
	}

	r, n = pearson(xs, ys)
	return r, n, evidence
}

func headIDs(ids []uuid.UUID, limit int) []uuid.UUID {
	if len(ids) <= limit {
		return ids
	}
	return ids[:limit]
}

// passesGates reports whether a correlation clears both evidence gates.
// Strict less-than: n=20 and |r|=0.25 are admitted exactly.
func passesGates(r float64, n int) bool {
	return n >= MinFindingSamples && math.Abs(r) >= MinFindingEffect
}

// strengthScore rewards both effect size and sample depth. Ranking metric
// only, not a probability.
func strengthScore(r float64, n int) float64 {
	floor := n
	if floor < 10 {
		floor = 10
	}
	return math.Abs(r) * math.Log10(float64(floor))
}

func direction(r float64) string {
	if r < 0 {
		return "down"
	}
	return "up"
}

// passes returns the fixed discovery table: which observed series is tested
// against which explanatory series, at which day lags.
func (s *DiscoveryService) passes() []correlationPass {
	return []correlationPass{
		{
			subject: "energy", object: "high_task_volume",
			xGet: (*domain.DailyAggregate).TasksValue,
			yGet: func(a *domain.DailyAggregate) *float64 { return a.Energy },
			lags: []int{0, 1, 2, 3},
		},
		{
			subject: "mood", object: "stressor_events",
			xGet: (*domain.DailyAggregate).StressorValue,
			yGet: func(a *domain.DailyAggregate) *float64 { return a.Mood },
			lags: []int{0, 1},
		},
		{
			subject: "energy", object: "meeting_load",
			xGet: (*domain.DailyAggregate).MeetingValue,
			yGet: func(a *domain.DailyAggregate) *float64 { return a.Energy },
			lags: []int{0},
		},
		{
			subject: "mood", object: "high_task_volume",
			xGet: (*domain.DailyAggregate).TasksValue,
			yGet: func(a *domain.DailyAggregate) *float64 { return a.Mood },
			lags: []int{0},
		},
	}
}

// RunCorrelationDiscovery executes every discovery pass over the lookback
// window. Running it repeatedly over an unchanged signal set is idempotent:
// aggregation is deterministic and findings upsert onto their natural key,
// so reruns land on the same rows with the same stats and strength.
func (s *DiscoveryService) RunCorrelationDiscovery(ctx context.Context) ([]CorrelationResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	until := time.Now().UTC()
	since := until.AddDate(0, 0, -s.lookbackDays)

	daily, err := s.aggregates.ComputeDailyAggregates(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("aggregate for discovery: %w", err)
	}

	var results []CorrelationResult
	for _, pass := range s.passes() {
		for _, lag := range pass.lags {
			result, err := s.runPass(ctx, daily, pass, lag)
			if err != nil {
				return nil, err
			}
			results = append(results, *result)
		}
	}

	emitted := 0
	for _, res := range results {
		if res.Emitted {
			emitted++
		}
	}
	s.logger.Info("correlation discovery complete",
		zap.Int("days", len(daily)),
		zap.Int("passes", len(results)),
		zap.Int("findings", emitted),
	)
	return results, nil
}

func (s *DiscoveryService) runPass(ctx context.Context, daily []domain.DailyAggregate, pass correlationPass, lag int) (*CorrelationResult, error) {
	r, n, evidence := lagCorrelation(daily, pass.xGet, pass.yGet, lag)

	result := &CorrelationResult{
		Subject: pass.subject,
		Object:  pass.object,
		LagDays: lag,
		R:       r,
		N:       n,
	}

	// Both gates must hold; a miss is a normal negative outcome.
	if !passesGates(r, n) {
		return result, nil
	}

	finding := &domain.Finding{
		Kind:      domain.FindingCorrelation,
		Subject:   pass.subject,
		Predicate: PredicateChangesAfter,
		Object:    pass.object,
		Window:    domain.FindingWindow{LagDays: lag},
		Stats: domain.FindingStats{
			R:         r,
			N:         n,
			Direction: direction(r),
		},
		Evidence: domain.FindingEvidence{SignalIDs: domain.DedupEvidence(evidence)},
		Strength: strengthScore(r, n),
	}

	if err := s.findings.Upsert(ctx, finding); err != nil {
		return nil, fmt.Errorf("upsert finding %s/%s lag %d: %w", pass.subject, pass.object, lag, err)
	}

	result.Emitted = true
	result.Finding = finding
	return result, nil
}
