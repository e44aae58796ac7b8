package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/selflens/selflens/internal/domain"
	"go.uber.org/zap"
)

func TestSignalService_Record(t *testing.T) {
	store := newMemSignalStore()
	svc := NewSignalService(store, zap.NewNop())

	sig, err := svc.Record(context.Background(), SignalInput{
		Domain:    "journal",
		Type:      "energy",
		Timestamp: "2025-06-01T08:30:00Z",
		ValueNum:  f64(7),
		SourceID:  "journal-app",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sig.ID == uuid.Nil {
		t.Error("recorded signal has no ID")
	}
	if sig.Domain != domain.DomainJournal || sig.Type != domain.SignalEnergy {
		t.Errorf("enums not carried through: %s/%s", sig.Domain, sig.Type)
	}
	if !sig.Timestamp.Equal(time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", sig.Timestamp)
	}
	if len(store.signals) != 1 {
		t.Errorf("store holds %d signals, want 1", len(store.signals))
	}
}

func TestSignalService_RecordDateOnlyTimestamp(t *testing.T) {
	svc := NewSignalService(newMemSignalStore(), zap.NewNop())

	sig, err := svc.Record(context.Background(), SignalInput{
		Domain:    "tasks",
		Type:      "task_completed",
		Timestamp: "2025-06-01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Timestamp.Format("2006-01-02") != "2025-06-01" {
		t.Errorf("timestamp = %v", sig.Timestamp)
	}
}

func TestSignalService_RecordValidation(t *testing.T) {
	svc := NewSignalService(newMemSignalStore(), zap.NewNop())
	valid := SignalInput{Domain: "journal", Type: "energy", Timestamp: "2025-06-01T08:00:00Z"}

	cases := []struct {
		name    string
		mutate  func(*SignalInput)
		wantErr error
	}{
		{"unknown domain", func(in *SignalInput) { in.Domain = "astrology" }, ErrInvalidDomain},
		{"unknown type", func(in *SignalInput) { in.Type = "vibe" }, ErrInvalidSignalType},
		{"empty timestamp", func(in *SignalInput) { in.Timestamp = "" }, ErrInvalidTimestamp},
		{"garbage timestamp", func(in *SignalInput) { in.Timestamp = "yesterday" }, ErrInvalidTimestamp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := svc.Record(context.Background(), in)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSignalService_RecordBatchValidatesBeforeStore(t *testing.T) {
	store := newMemSignalStore()
	svc := NewSignalService(store, zap.NewNop())

	_, err := svc.RecordBatch(context.Background(), []SignalInput{
		{Domain: "journal", Type: "energy", Timestamp: "2025-06-01", ValueNum: f64(7)},
		{Domain: "journal", Type: "vibe", Timestamp: "2025-06-01"},
	})
	if !errors.Is(err, ErrInvalidSignalType) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidSignalType)
	}
	// One bad input rejects the whole batch before the store sees it.
	if len(store.signals) != 0 {
		t.Errorf("store holds %d signals, want 0", len(store.signals))
	}
}

func TestSignalService_RecordBatch(t *testing.T) {
	store := newMemSignalStore()
	svc := NewSignalService(store, zap.NewNop())

	signals, err := svc.RecordBatch(context.Background(), []SignalInput{
		{Domain: "journal", Type: "energy", Timestamp: "2025-06-01", ValueNum: f64(7)},
		{Domain: "tasks", Type: "task_completed", Timestamp: "2025-06-01T10:00:00Z"},
		{Domain: "calendar", Type: "meeting", Timestamp: "2025-06-01T11:00:00Z"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 3 || len(store.signals) != 3 {
		t.Fatalf("got %d returned / %d stored, want 3/3", len(signals), len(store.signals))
	}
	for i, sig := range signals {
		if sig.ID == uuid.Nil {
			t.Errorf("signal %d has no ID", i)
		}
	}
}

func TestParseSignalFilter(t *testing.T) {
	f, err := ParseSignalFilter("journal", "mood", "2025-06-01", "2025-06-30T23:59:59Z", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Domain == nil || *f.Domain != domain.DomainJournal {
		t.Errorf("domain = %v", f.Domain)
	}
	if f.Type == nil || *f.Type != domain.SignalMood {
		t.Errorf("type = %v", f.Type)
	}
	if f.Since == nil || f.Until == nil {
		t.Fatal("since/until not parsed")
	}
	if f.Limit != 50 {
		t.Errorf("limit = %d", f.Limit)
	}

	if _, err := ParseSignalFilter("astrology", "", "", "", 0); !errors.Is(err, ErrInvalidDomain) {
		t.Errorf("err = %v, want %v", err, ErrInvalidDomain)
	}
	if _, err := ParseSignalFilter("", "vibe", "", "", 0); !errors.Is(err, ErrInvalidSignalType) {
		t.Errorf("err = %v, want %v", err, ErrInvalidSignalType)
	}
	if _, err := ParseSignalFilter("", "", "soon", "", 0); !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("err = %v, want %v", err, ErrInvalidTimestamp)
	}
}
