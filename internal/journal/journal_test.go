package journal

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/floralink/internal/poller"
	"github.com/nerrad567/floralink/internal/sensor"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return j
}

func testReading(t *testing.T) *sensor.Reading {
	t.Helper()
	r := sensor.NewReading(sensor.ClassMitempbt)
	r.Set(sensor.ParamTemperature, 21.5)
	r.Set(sensor.ParamHumidity, 48)
	r.Set(sensor.ParamBattery, 80)
	return r
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	j, err := Open(Config{Path: path, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	if j.Path() != path {
		t.Errorf("Path() = %q, want %q", j.Path(), path)
	}
}

func TestJournal_HealthCheck(t *testing.T) {
	j := testJournal(t)
	if err := j.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestJournal_RecordAndHistory(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()
	now := time.Now()

	results := []poller.Result{
		{
			Class:     "mitempbt",
			Name:      "Bedroom",
			MAC:       "4C:65:A8:11:22:33",
			Success:   true,
			Reading:   testReading(t),
			Timestamp: now.Add(-time.Minute),
		},
		{
			Class:     "mitempbt",
			Name:      "Bedroom",
			MAC:       "4C:65:A8:11:22:33",
			Success:   false,
			Timestamp: now,
		},
	}
	if err := j.RecordResults(ctx, results); err != nil {
		t.Fatalf("RecordResults() error = %v", err)
	}

	entries, err := j.History(ctx, "Bedroom", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest first: the failed acquisition leads.
	if entries[0].Success {
		t.Error("newest entry should be the failure")
	}
	if entries[0].Reading != "" {
		t.Errorf("failed entry carries a reading: %q", entries[0].Reading)
	}

	if !entries[1].Success {
		t.Error("older entry should be the success")
	}
	if !strings.Contains(entries[1].Reading, `"temperature":21.5`) {
		t.Errorf("reading snapshot = %q, missing temperature", entries[1].Reading)
	}
	if entries[1].MAC != "4C:65:A8:11:22:33" {
		t.Errorf("MAC = %q", entries[1].MAC)
	}
}

func TestJournal_HistoryScopedByName(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	err := j.RecordResults(ctx, []poller.Result{
		{Class: "mitempbt", Name: "Bedroom", MAC: "4C:65:A8:11:22:33", Success: false, Timestamp: time.Now()},
		{Class: "miflora", Name: "Petunia", MAC: "C4:7C:8D:11:22:33", Success: false, Timestamp: time.Now()},
	})
	if err != nil {
		t.Fatalf("RecordResults() error = %v", err)
	}

	entries, err := j.History(ctx, "Petunia", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Petunia" {
		t.Errorf("entries = %+v, want one Petunia entry", entries)
	}
}

func TestJournal_RecordEmptyPass(t *testing.T) {
	j := testJournal(t)
	if err := j.RecordResults(context.Background(), nil); err != nil {
		t.Errorf("RecordResults(nil) error = %v", err)
	}
}

func TestJournal_Prune(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()
	now := time.Now()

	err := j.RecordResults(ctx, []poller.Result{
		{Class: "mitempbt", Name: "Bedroom", MAC: "4C:65:A8:11:22:33", Success: false, Timestamp: now.Add(-48 * time.Hour)},
		{Class: "mitempbt", Name: "Bedroom", MAC: "4C:65:A8:11:22:33", Success: false, Timestamp: now},
	})
	if err != nil {
		t.Fatalf("RecordResults() error = %v", err)
	}

	deleted, err := j.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d rows, want 1", deleted)
	}

	entries, err := j.History(ctx, "Bedroom", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries after prune, want 1", len(entries))
	}
}
