package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/selflens/selflens/internal/domain"
	"go.uber.org/zap"
)

// AggregateService derives per-day rollups from raw signals. Output is never
// persisted; every call recomputes from the store so aggregates always match
// the current signal set.
type AggregateService struct {
	signals domain.SignalStore
	logger  *zap.Logger
}

func NewAggregateService(signals domain.SignalStore, logger *zap.Logger) *AggregateService {
	return &AggregateService{signals: signals, logger: logger}
}

// ComputeDailyAggregates buckets signals in [since, until] by UTC calendar
// day and returns one aggregate per day, ascending.
//
// Mood and energy use a blended average: each new reading is averaged with
// the running value, (prev+new)/2, rather than a true arithmetic mean. Later
// readings on skewed multi-reading days therefore weigh more. Correlation
// strengths downstream depend on this exact blending; changing it is a
// behavioral change, not a cleanup.
func (s *AggregateService) ComputeDailyAggregates(ctx context.Context, since, until time.Time) ([]domain.DailyAggregate, error) {
	if until.IsZero() {
		until = time.Now().UTC()
	}

	signals, err := s.signals.Query(ctx, domain.SignalFilter{Since: &since, Until: &until})
	if err != nil {
		return nil, fmt.Errorf("query signals for aggregation: %w", err)
	}

	// The store returns newest-first. Blending depends on processing order,
	// so fix ascending (timestamp, id) order to keep recomputation
	// deterministic and reproducible.
	sort.Slice(signals, func(i, j int) bool {
		if !signals[i].Timestamp.Equal(signals[j].Timestamp) {
			return signals[i].Timestamp.Before(signals[j].Timestamp)
		}
		return signals[i].ID.String() < signals[j].ID.String()
	})

	buckets := make(map[string]*domain.DailyAggregate)
	var days []string

	for i := range signals {
		sig := &signals[i]
		day := sig.Timestamp.UTC().Format("2006-01-02")

		agg, ok := buckets[day]
		if !ok {
			agg = &domain.DailyAggregate{Day: day}
			buckets[day] = agg
			days = append(days, day)
		}

		switch sig.Type {
		case domain.SignalTaskCompleted:
			agg.Tasks++
		case domain.SignalEnergy:
			if sig.ValueNum != nil {
				agg.Energy = blend(agg.Energy, *sig.ValueNum)
			}
		case domain.SignalMood:
			if sig.ValueNum != nil {
				agg.Mood = blend(agg.Mood, *sig.ValueNum)
			}
		case domain.SignalStressorTrigger:
			agg.StressorCount++
		case domain.SignalMeeting:
			agg.MeetingCount++
		}

		// Every contributing signal is retained for citation; consumers cap
		// how much of this they use as evidence.
		agg.SignalIDs = append(agg.SignalIDs, sig.ID)
	}

	sort.Strings(days)
	out := make([]domain.DailyAggregate, 0, len(days))
	for _, day := range days {
		out = append(out, *buckets[day])
	}

	s.logger.Debug("daily aggregates computed",
		zap.Int("signals", len(signals)),
		zap.Int("days", len(out)),
	)
	return out, nil
}

func blend(existing *float64, value float64) *float64 {
	if existing == nil {
		return &value
	}
	v := (*existing + value) / 2
	return &v
}
