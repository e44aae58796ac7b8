package domain

import "github.com/google/uuid"

// DailyAggregate is an ephemeral per-day rollup of signals. It is recomputed
// from raw signals on every aggregation call and never persisted, so it always
// reflects the signal set at call time.
type DailyAggregate struct {
	Day           string      `json:"day"` // UTC date key, YYYY-MM-DD
	Tasks         int         `json:"tasks"`
	Energy        *float64    `json:"energy,omitempty"`
	Mood          *float64    `json:"mood,omitempty"`
	StressorCount int         `json:"stressor_count"`
	MeetingCount  int         `json:"meeting_count"`
	SignalIDs     []uuid.UUID `json:"signal_ids"`
}

// TasksValue adapts the task count for correlation pairing, where every
// series is a possibly-absent float.
func (a *DailyAggregate) TasksValue() *float64 {
	v := float64(a.Tasks)
	return &v
}

// StressorValue adapts the stressor count for correlation pairing.
func (a *DailyAggregate) StressorValue() *float64 {
	v := float64(a.StressorCount)
	return &v
}

// MeetingValue adapts the meeting count for correlation pairing.
func (a *DailyAggregate) MeetingValue() *float64 {
	v := float64(a.MeetingCount)
	return &v
}
