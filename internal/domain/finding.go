package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type FindingKind string

const (
	FindingCorrelation   FindingKind = "correlation"
	FindingContradiction FindingKind = "contradiction"
)

func ValidFindingKind(k string) bool {
	switch FindingKind(k) {
	case FindingCorrelation, FindingContradiction:
		return true
	}
	return false
}

type FindingStatus string

const (
	FindingActive   FindingStatus = "active"
	FindingResolved FindingStatus = "resolved"
)

func ValidFindingStatus(s string) bool {
	switch FindingStatus(s) {
	case FindingActive, FindingResolved:
		return true
	}
	return false
}

// MaxEvidenceIDs caps how many contributing signal IDs a finding carries.
const MaxEvidenceIDs = 50

// FindingStats holds the quantitative support for a finding. Correlations use
// R/N/Direction; contradictions use Expected/Observed/Matched.
type FindingStats struct {
	R         float64 `json:"r,omitempty"`
	N         int     `json:"n,omitempty"`
	Direction string  `json:"direction,omitempty"`
	Expected  string  `json:"expected,omitempty"`
	Observed  string  `json:"observed,omitempty"`
	Matched   bool    `json:"matched,omitempty"`
}

type FindingWindow struct {
	LagDays int `json:"lag_days"`
}

type FindingEvidence struct {
	SignalIDs []uuid.UUID `json:"signal_ids"`
}

// Finding is a persisted statistical claim (a semantic triple plus stats),
// uniquely identified by (kind, subject, predicate, object, lag_days).
// Recomputation refreshes stats/evidence/strength in place and preserves
// id/created_at.
type Finding struct {
	ID        uuid.UUID       `json:"id"`
	Kind      FindingKind     `json:"kind"`
	Subject   string          `json:"subject"`
	Predicate string          `json:"predicate"`
	Object    string          `json:"object"`
	Window    FindingWindow   `json:"window"`
	Stats     FindingStats    `json:"stats"`
	Evidence  FindingEvidence `json:"evidence"`
	Strength  float64         `json:"strength"`
	Status    FindingStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DedupEvidence removes duplicate signal IDs preserving first occurrence and
// truncates to MaxEvidenceIDs.
func DedupEvidence(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == MaxEvidenceIDs {
			break
		}
	}
	return out
}

// Describe renders a finding as one human-readable sentence. Used for
// citations and for the deterministic fallback answer.
func (f *Finding) Describe() string {
	switch f.Kind {
	case FindingCorrelation:
		tendency := "rise"
		if f.Stats.Direction == "down" {
			tendency = "drop"
		}
		when := "on the same day as"
		if f.Window.LagDays > 0 {
			when = fmt.Sprintf("%d day(s) after", f.Window.LagDays)
		}
		return fmt.Sprintf("%s tends to %s %s %s (r=%.2f, n=%d)",
			f.Subject, tendency, when, f.Object, f.Stats.R, f.Stats.N)
	case FindingContradiction:
		return fmt.Sprintf("expected %s but observed %s for %s",
			f.Stats.Expected, f.Stats.Observed, f.Subject)
	default:
		return fmt.Sprintf("%s %s %s", f.Subject, f.Predicate, f.Object)
	}
}

// FindingFilter narrows a findings query. Status defaults to active when nil.
type FindingFilter struct {
	Kind        *FindingKind
	Subject     *string
	Status      *FindingStatus
	MinStrength *float64
	Limit       int
}
