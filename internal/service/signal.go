package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/selflens/selflens/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrInvalidDomain     = errors.New("unrecognized signal domain")
	ErrInvalidSignalType = errors.New("unrecognized signal type")
	ErrInvalidTimestamp  = errors.New("timestamp is required and must be RFC 3339 or YYYY-MM-DD")
)

// SignalInput is one normalized event as submitted by a domain collaborator.
type SignalInput struct {
	Domain    string         `json:"domain"`
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	ValueNum  *float64       `json:"value_num,omitempty"`
	ValueText string         `json:"value_text,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	SourceID  string         `json:"source_id,omitempty"`
}

// SignalService validates and records behavioral signals. Validation only
// enforces enum membership and timestamp parseability; domain/type pairs are
// not cross-validated.
type SignalService struct {
	signals domain.SignalStore
	logger  *zap.Logger
}

func NewSignalService(signals domain.SignalStore, logger *zap.Logger) *SignalService {
	return &SignalService{signals: signals, logger: logger}
}

func (s *SignalService) validate(in SignalInput) (*domain.Signal, error) {
	if !domain.ValidSignalDomain(in.Domain) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, in.Domain)
	}
	if !domain.ValidSignalType(in.Type) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignalType, in.Type)
	}
	if in.Timestamp == "" {
		return nil, ErrInvalidTimestamp
	}
	ts, err := domain.ParseSignalTimestamp(in.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, in.Timestamp)
	}

	return &domain.Signal{
		Domain:    domain.SignalDomain(in.Domain),
		Type:      domain.SignalType(in.Type),
		Timestamp: ts,
		ValueNum:  in.ValueNum,
		ValueText: in.ValueText,
		Meta:      in.Meta,
		SourceID:  in.SourceID,
	}, nil
}

// Record validates and persists one signal. Failures are hard errors
// surfaced to the caller; nothing is silently dropped.
func (s *SignalService) Record(ctx context.Context, in SignalInput) (*domain.Signal, error) {
	sig, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	if err := s.signals.Record(ctx, sig); err != nil {
		return nil, fmt.Errorf("record signal: %w", err)
	}
	s.logger.Debug("signal recorded",
		zap.String("domain", string(sig.Domain)),
		zap.String("type", string(sig.Type)),
		zap.Time("ts", sig.Timestamp),
	)
	return sig, nil
}

// RecordBatch validates every input before anything touches the store, then
// persists the batch in one transaction: all signals commit or none do.
func (s *SignalService) RecordBatch(ctx context.Context, inputs []SignalInput) ([]*domain.Signal, error) {
	signals := make([]*domain.Signal, 0, len(inputs))
	for i, in := range inputs {
		sig, err := s.validate(in)
		if err != nil {
			return nil, fmt.Errorf("signal %d: %w", i, err)
		}
		signals = append(signals, sig)
	}

	if err := s.signals.RecordBatch(ctx, signals); err != nil {
		return nil, fmt.Errorf("record signal batch: %w", err)
	}
	s.logger.Info("signal batch recorded", zap.Int("count", len(signals)))
	return signals, nil
}

// Query returns signals descending by timestamp.
func (s *SignalService) Query(ctx context.Context, f domain.SignalFilter) ([]domain.Signal, error) {
	return s.signals.Query(ctx, f)
}

// ParseSignalFilter builds a filter from raw query values, validating enums.
func ParseSignalFilter(domainStr, typeStr, since, until string, limit int) (domain.SignalFilter, error) {
	var f domain.SignalFilter

	if domainStr != "" {
		if !domain.ValidSignalDomain(domainStr) {
			return f, fmt.Errorf("%w: %q", ErrInvalidDomain, domainStr)
		}
		d := domain.SignalDomain(domainStr)
		f.Domain = &d
	}
	if typeStr != "" {
		if !domain.ValidSignalType(typeStr) {
			return f, fmt.Errorf("%w: %q", ErrInvalidSignalType, typeStr)
		}
		t := domain.SignalType(typeStr)
		f.Type = &t
	}
	if since != "" {
		ts, err := domain.ParseSignalTimestamp(since)
		if err != nil {
			return f, fmt.Errorf("%w: since %q", ErrInvalidTimestamp, since)
		}
		f.Since = &ts
	}
	if until != "" {
		ts, err := domain.ParseSignalTimestamp(until)
		if err != nil {
			return f, fmt.Errorf("%w: until %q", ErrInvalidTimestamp, until)
		}
		f.Until = &ts
	}
	f.Limit = limit

	return f, nil
}
