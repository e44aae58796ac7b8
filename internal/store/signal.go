package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/selflens/selflens/internal/domain"
)

type SignalStore struct {
	db *pgxpool.Pool
}

func NewSignalStore(db *pgxpool.Pool) *SignalStore {
	return &SignalStore{db: db}
}

func (s *SignalStore) Record(ctx context.Context, sig *domain.Signal) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO signals (domain, type, ts, value_num, value_text, meta, source_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		sig.Domain, sig.Type, sig.Timestamp, sig.ValueNum, sig.ValueText, sig.Meta, sig.SourceID,
	).Scan(&sig.ID, &sig.CreatedAt)
}

// RecordBatch writes all signals inside one transaction so a batch either
// fully commits or fully fails. created_at is uniform within the transaction
// (Postgres NOW() is stable per transaction).
func (s *SignalStore) RecordBatch(ctx context.Context, signals []*domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin signal batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, sig := range signals {
		err := tx.QueryRow(ctx,
			`INSERT INTO signals (domain, type, ts, value_num, value_text, meta, source_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at`,
			sig.Domain, sig.Type, sig.Timestamp, sig.ValueNum, sig.ValueText, sig.Meta, sig.SourceID,
		).Scan(&sig.ID, &sig.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert signal in batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit signal batch: %w", err)
	}
	return nil
}

func (s *SignalStore) Query(ctx context.Context, f domain.SignalFilter) ([]domain.Signal, error) {
	where, args := signalConditions(f)

	query := fmt.Sprintf(
		`SELECT id, domain, type, ts, value_num, value_text, meta, source_id, created_at
		 FROM signals
		 WHERE %s
		 ORDER BY ts DESC`,
		where,
	)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("signal query: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

func (s *SignalStore) CountDistinctDays(ctx context.Context, f domain.SignalFilter) (int, error) {
	where, args := signalConditions(f)

	var count int
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(DISTINCT (ts AT TIME ZONE 'UTC')::date) FROM signals WHERE %s`, where),
		args...,
	).Scan(&count)
	return count, err
}

func signalConditions(f domain.SignalFilter) (string, []any) {
	conditions := []string{"TRUE"}
	var args []any

	if f.Domain != nil {
		conditions = append(conditions, fmt.Sprintf("domain = $%d", len(args)+1))
		args = append(args, string(*f.Domain))
	}
	if f.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, string(*f.Type))
	}
	if f.Since != nil {
		conditions = append(conditions, fmt.Sprintf("ts >= $%d", len(args)+1))
		args = append(args, *f.Since)
	}
	if f.Until != nil {
		conditions = append(conditions, fmt.Sprintf("ts <= $%d", len(args)+1))
		args = append(args, *f.Until)
	}

	return strings.Join(conditions, " AND "), args
}

func scanSignals(rows pgx.Rows) ([]domain.Signal, error) {
	var signals []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		if err := rows.Scan(&sig.ID, &sig.Domain, &sig.Type, &sig.Timestamp,
			&sig.ValueNum, &sig.ValueText, &sig.Meta, &sig.SourceID, &sig.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("signal rows: %w", err)
	}
	return signals, nil
}
