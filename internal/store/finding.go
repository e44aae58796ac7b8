package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/selflens/selflens/internal/domain"
)

type FindingStore struct {
	db *pgxpool.Pool
}

func NewFindingStore(db *pgxpool.Pool) *FindingStore {
	return &FindingStore{db: db}
}

// Upsert relies on the unique constraint over the natural key so concurrent
// discovery runs cannot produce duplicate rows. An existing row keeps its
// id, created_at, and status; stats, evidence, strength, and updated_at are
// refreshed.
func (s *FindingStore) Upsert(ctx context.Context, f *domain.Finding) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO findings (kind, subject, predicate, object, lag_days, stats, evidence, strength, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active')
		 ON CONFLICT (kind, subject, predicate, object, lag_days) DO UPDATE
		 SET stats = EXCLUDED.stats,
		     evidence = EXCLUDED.evidence,
		     strength = EXCLUDED.strength,
		     updated_at = NOW()
		 RETURNING id, status, created_at, updated_at`,
		f.Kind, f.Subject, f.Predicate, f.Object, f.Window.LagDays,
		f.Stats, f.Evidence, f.Strength,
	).Scan(&f.ID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
}

func (s *FindingStore) GetFinding(ctx context.Context, id uuid.UUID) (*domain.Finding, error) {
	var fd domain.Finding
	err := s.db.QueryRow(ctx,
		`SELECT id, kind, subject, predicate, object, lag_days, stats, evidence, strength, status, created_at, updated_at
		 FROM findings
		 WHERE id = $1`,
		id,
	).Scan(&fd.ID, &fd.Kind, &fd.Subject, &fd.Predicate, &fd.Object,
		&fd.Window.LagDays, &fd.Stats, &fd.Evidence, &fd.Strength, &fd.Status,
		&fd.CreatedAt, &fd.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get finding: %w", err)
	}
	return &fd, nil
}

func (s *FindingStore) GetFindings(ctx context.Context, f domain.FindingFilter) ([]domain.Finding, error) {
	conditions := []string{"TRUE"}
	var args []any

	if f.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, string(*f.Kind))
	}
	if f.Subject != nil {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, *f.Subject)
	}

	status := domain.FindingActive
	if f.Status != nil {
		status = *f.Status
	}
	conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
	args = append(args, string(status))

	if f.MinStrength != nil {
		conditions = append(conditions, fmt.Sprintf("ABS(strength) >= $%d", len(args)+1))
		args = append(args, *f.MinStrength)
	}

	query := fmt.Sprintf(
		`SELECT id, kind, subject, predicate, object, lag_days, stats, evidence, strength, status, created_at, updated_at
		 FROM findings
		 WHERE %s
		 ORDER BY ABS(strength) DESC`,
		strings.Join(conditions, " AND "),
	)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("findings query: %w", err)
	}
	defer rows.Close()

	var findings []domain.Finding
	for rows.Next() {
		var fd domain.Finding
		if err := rows.Scan(&fd.ID, &fd.Kind, &fd.Subject, &fd.Predicate, &fd.Object,
			&fd.Window.LagDays, &fd.Stats, &fd.Evidence, &fd.Strength, &fd.Status,
			&fd.CreatedAt, &fd.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan finding row: %w", err)
		}
		findings = append(findings, fd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding rows: %w", err)
	}
	return findings, nil
}

func (s *FindingStore) CountByKind(ctx context.Context, kind domain.FindingKind, status domain.FindingStatus) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM findings WHERE kind = $1 AND status = $2`,
		kind, status,
	).Scan(&count)
	return count, err
}
