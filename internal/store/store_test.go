package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/awslens/awslens/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.DBPath = filepath.Join(dir, "awslens-test.db")
	cfg.FlushInterval = time.Hour // no background flush during tests

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreWriteFlushAndQuery(t *testing.T) {
	s := newTestStore(t)

	ts := time.Unix(1000, 0)
	s.WriteSample("ec2", "i-abc123", "CPUUtilization", 42.5, ts)
	s.WriteSample("ec2", "i-abc123", "CPUUtilization", 55.0, ts.Add(time.Minute))
	s.WriteSample("ec2", "i-other", "CPUUtilization", 1.0, ts)
	s.Flush()

	samples, err := s.QuerySamples("ec2", "i-abc123", "CPUUtilization", ts.Add(-time.Second))
	if err != nil {
		t.Fatalf("QuerySamples returned error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Value != 42.5 || samples[1].Value != 55.0 {
		t.Fatalf("unexpected values: %+v", samples)
	}
	if !samples[0].Timestamp.Before(samples[1].Timestamp) {
		t.Fatal("samples not sorted ascending by timestamp")
	}
}

func TestStoreQuerySinceFiltersOldSamples(t *testing.T) {
	s := newTestStore(t)

	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now().Add(-time.Minute)
	s.WriteSample("rds", "db-1", "ReadLatency", 0.010, old)
	s.WriteSample("rds", "db-1", "ReadLatency", 0.030, recent)
	s.Flush()

	samples, err := s.QuerySamples("rds", "db-1", "ReadLatency", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("QuerySamples returned error: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected only the recent sample, got %d", len(samples))
	}
	if samples[0].Value != 0.030 {
		t.Fatalf("wrong sample survived the filter: %+v", samples[0])
	}
}

func TestStoreBufferFlushesWhenFull(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.DBPath = filepath.Join(dir, "awslens-test.db")
	cfg.FlushInterval = time.Hour
	cfg.WriteBufferSize = 2

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer s.Close()

	ts := time.Unix(2000, 0)
	s.WriteSample("ec2", "i-1", "NetworkIn", 100, ts)
	s.WriteSample("ec2", "i-1", "NetworkIn", 200, ts.Add(time.Minute))

	// buffer size reached; the batch must be on disk without an explicit Flush
	samples, err := s.QuerySamples("ec2", "i-1", "NetworkIn", ts.Add(-time.Second))
	if err != nil {
		t.Fatalf("QuerySamples returned error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected the full buffer written at capacity, got %d samples", len(samples))
	}
}

func TestStoreCleanupPrunesOldRows(t *testing.T) {
	s := newTestStore(t)

	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()
	s.WriteSample("ec2", "i-1", "CPUUtilization", 10, old)
	s.WriteSample("ec2", "i-1", "CPUUtilization", 20, fresh)
	s.Flush()

	deleted, err := s.Cleanup(24 * time.Hour)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 pruned row, got %d", deleted)
	}

	samples, err := s.QuerySamples("ec2", "i-1", "CPUUtilization", old.Add(-time.Hour))
	if err != nil {
		t.Fatalf("QuerySamples returned error: %v", err)
	}
	if len(samples) != 1 || samples[0].Value != 20 {
		t.Fatalf("expected only the fresh sample to survive, got %+v", samples)
	}
}

func TestAlertEventsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	fired := models.Alert{
		ID:         "EC2/i-abc/stopped",
		ResourceID: "i-abc",
		Region:     "us-east-1",
		Severity:   models.SeverityWarning,
		Message:    "Instance is stopped",
	}
	if err := s.AppendEvent("fired", fired); err != nil {
		t.Fatalf("AppendEvent returned error: %v", err)
	}
	if err := s.AppendEvent("resolved", fired); err != nil {
		t.Fatalf("AppendEvent returned error: %v", err)
	}

	events, err := s.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	// most recent first: the resolve follows the fire
	if events[0].Action != "resolved" || events[1].Action != "fired" {
		t.Fatalf("unexpected event order: %s then %s", events[0].Action, events[1].Action)
	}
	for _, e := range events {
		if e.ID == "" {
			t.Fatal("event missing ULID")
		}
		if e.AlertID != fired.ID || e.Region != "us-east-1" || e.Severity != "WARNING" {
			t.Fatalf("event fields lost: %+v", e)
		}
	}
}

func TestRecentEventsLimit(t *testing.T) {
	s := newTestStore(t)

	alert := models.Alert{ID: "RDS/db-1/status", ResourceID: "db-1", Region: "eu-west-1", Severity: models.SeverityCritical, Message: "Database status: rebooting"}
	for i := 0; i < 5; i++ {
		if err := s.AppendEvent("fired", alert); err != nil {
			t.Fatalf("AppendEvent returned error: %v", err)
		}
	}

	events, err := s.RecentEvents(3)
	if err != nil {
		t.Fatalf("RecentEvents returned error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(events))
	}
}

func TestStoreStats(t *testing.T) {
	s := newTestStore(t)

	s.WriteSample("ec2", "i-1", "CPUUtilization", 10, time.Now())
	s.Flush()
	s.AppendEvent("fired", models.Alert{ID: "a", Severity: models.SeverityWarning})

	stats := s.GetStats()
	if stats.Samples != 1 || stats.Events != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.DBPath == "" || stats.DBSize <= 0 {
		t.Fatalf("expected DB info populated: %+v", stats)
	}
	if stats.Buffered != 0 {
		t.Fatalf("expected empty buffer after flush, got %d", stats.Buffered)
	}
}
