package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/selflens/selflens/internal/domain"
	"github.com/selflens/selflens/internal/store"
)

// memSignalStore is an in-memory domain.SignalStore for tests.
type memSignalStore struct {
	signals []domain.Signal
}

func newMemSignalStore() *memSignalStore {
	return &memSignalStore{}
}

func (m *memSignalStore) add(domainName domain.SignalDomain, sigType domain.SignalType, ts time.Time, valueNum *float64) domain.Signal {
	sig := domain.Signal{
		ID:        uuid.New(),
		Domain:    domainName,
		Type:      sigType,
		Timestamp: ts,
		ValueNum:  valueNum,
		CreatedAt: time.Now().UTC(),
	}
	m.signals = append(m.signals, sig)
	return sig
}

func (m *memSignalStore) Record(ctx context.Context, s *domain.Signal) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	m.signals = append(m.signals, *s)
	return nil
}

func (m *memSignalStore) RecordBatch(ctx context.Context, signals []*domain.Signal) error {
	now := time.Now().UTC()
	for _, s := range signals {
		s.ID = uuid.New()
		s.CreatedAt = now
		m.signals = append(m.signals, *s)
	}
	return nil
}

func (m *memSignalStore) Query(ctx context.Context, f domain.SignalFilter) ([]domain.Signal, error) {
	var out []domain.Signal
	for _, s := range m.signals {
		if f.Domain != nil && s.Domain != *f.Domain {
			continue
		}
		if f.Type != nil && s.Type != *f.Type {
			continue
		}
		if f.Since != nil && s.Timestamp.Before(*f.Since) {
			continue
		}
		if f.Until != nil && s.Timestamp.After(*f.Until) {
			continue
		}
		out = append(out, s)
	}
	// Newest first, like the real store.
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memSignalStore) CountDistinctDays(ctx context.Context, f domain.SignalFilter) (int, error) {
	signals, err := m.Query(ctx, f)
	if err != nil {
		return 0, err
	}
	days := make(map[string]struct{})
	for _, s := range signals {
		days[s.Timestamp.UTC().Format("2006-01-02")] = struct{}{}
	}
	return len(days), nil
}

// memFindingStore is an in-memory domain.FindingStore keyed on the natural
// tuple, mirroring the unique-constraint upsert of the Postgres store.
type memFindingStore struct {
	mu         sync.Mutex
	rows       map[string]*domain.Finding
	upsertErr  error
	getErr     error
	upsertHits int
}

func newMemFindingStore() *memFindingStore {
	return &memFindingStore{rows: make(map[string]*domain.Finding)}
}

func naturalKey(f *domain.Finding) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", f.Kind, f.Subject, f.Predicate, f.Object, f.Window.LagDays)
}

func (m *memFindingStore) Upsert(ctx context.Context, f *domain.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertHits++

	key := naturalKey(f)
	now := time.Now().UTC()
	if existing, ok := m.rows[key]; ok {
		existing.Stats = f.Stats
		existing.Evidence = f.Evidence
		existing.Strength = f.Strength
		existing.UpdatedAt = now
		f.ID = existing.ID
		f.Status = existing.Status
		f.CreatedAt = existing.CreatedAt
		f.UpdatedAt = existing.UpdatedAt
		return nil
	}

	f.ID = uuid.New()
	f.Status = domain.FindingActive
	f.CreatedAt = now
	f.UpdatedAt = now
	cp := *f
	m.rows[key] = &cp
	return nil
}

func (m *memFindingStore) GetFinding(ctx context.Context, id uuid.UUID) (*domain.Finding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memFindingStore) GetFindings(ctx context.Context, f domain.FindingFilter) ([]domain.Finding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	status := domain.FindingActive
	if f.Status != nil {
		status = *f.Status
	}

	var out []domain.Finding
	for _, row := range m.rows {
		if row.Status != status {
			continue
		}
		if f.Kind != nil && row.Kind != *f.Kind {
			continue
		}
		if f.Subject != nil && row.Subject != *f.Subject {
			continue
		}
		if f.MinStrength != nil && absVal(row.Strength) < *f.MinStrength {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return absVal(out[i].Strength) > absVal(out[j].Strength) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memFindingStore) CountByKind(ctx context.Context, kind domain.FindingKind, status domain.FindingStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, row := range m.rows {
		if row.Kind == kind && row.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *memFindingStore) rowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func absVal(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// stubHealthEvaluator returns a fixed report.
type stubHealthEvaluator struct {
	report *domain.HealthReport
	err    error
}

func (s *stubHealthEvaluator) Evaluate(ctx context.Context, timeRangeDays int) (*domain.HealthReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func healthReport(score float64, grade string, coveredDays, targetDays int) *domain.HealthReport {
	r := &domain.HealthReport{}
	r.Overall.Score = score
	r.Overall.Grade = grade
	r.Coverage.TotalDays = coveredDays
	r.Coverage.TargetDays = targetDays
	return r
}
