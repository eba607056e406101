package models

import (
	"sync"
	"testing"
)

func TestUpdateInventorySortsAndComputesStats(t *testing.T) {
	s := NewState()
	s.SetRegions([]string{"us-east-1", "eu-west-1"})

	ec2 := []EC2Instance{
		{ID: "i-ccc", State: "running", Region: "us-east-1"},
		{ID: "i-aaa", State: "stopped", Region: "us-east-1"},
		{ID: "i-bbb", State: "running", Region: "eu-west-1"},
	}
	rds := []RDSInstance{
		{ID: "db-2", Status: "available", Region: "us-east-1"},
		{ID: "db-1", Status: "stopped", Region: "eu-west-1"},
	}

	s.UpdateInventory(ec2, rds, nil)
	snap := s.GetSnapshot()

	wantOrder := []string{"i-bbb", "i-aaa", "i-ccc"}
	for i, want := range wantOrder {
		if snap.EC2Instances[i].ID != want {
			t.Fatalf("ec2[%d] = %s, want %s", i, snap.EC2Instances[i].ID, want)
		}
	}

	if snap.Stats.EC2Total != 3 || snap.Stats.EC2Running != 2 || snap.Stats.EC2Stopped != 1 {
		t.Fatalf("unexpected ec2 stats: %+v", snap.Stats)
	}
	if snap.Stats.RDSTotal != 2 || snap.Stats.RDSAvailable != 1 {
		t.Fatalf("unexpected rds stats: %+v", snap.Stats)
	}
	if snap.Stats.Regions != 2 {
		t.Fatalf("expected 2 regions in stats, got %d", snap.Stats.Regions)
	}
	if snap.LastPoll.IsZero() {
		t.Fatal("expected LastPoll to be set")
	}
}

func TestUpdateInventoryRecordsRegionErrors(t *testing.T) {
	s := NewState()
	s.SetRegions([]string{"us-east-1", "eu-west-1"})

	s.UpdateInventory(nil, nil, map[string]string{"eu-west-1": "connection refused"})
	snap := s.GetSnapshot()

	if msg := snap.RegionErrors["eu-west-1"]; msg != "connection refused" {
		t.Fatalf("expected region error recorded, got %q", msg)
	}
	if snap.ConnectionHealth["eu-west-1"] {
		t.Fatal("expected eu-west-1 marked unhealthy")
	}
	if !snap.ConnectionHealth["us-east-1"] {
		t.Fatal("expected us-east-1 marked healthy")
	}
}

func TestGetSnapshotIsIsolated(t *testing.T) {
	s := NewState()
	s.UpdateInventory([]EC2Instance{{ID: "i-1", State: "running"}}, nil, nil)
	s.UpdateEC2Metrics(map[string][]MetricSeries{
		"i-1": {{ResourceID: "i-1", Metric: "CPUUtilization"}},
	})

	snap := s.GetSnapshot()
	snap.EC2Instances[0].ID = "mutated"
	snap.EC2Metrics["i-1"][0].Metric = "mutated"
	snap.RegionErrors["bogus"] = "mutated"

	fresh := s.GetSnapshot()
	if fresh.EC2Instances[0].ID != "i-1" {
		t.Fatal("snapshot mutation leaked into state instances")
	}
	if fresh.EC2Metrics["i-1"][0].Metric != "CPUUtilization" {
		t.Fatal("snapshot mutation leaked into state metrics")
	}
	if _, ok := fresh.RegionErrors["bogus"]; ok {
		t.Fatal("snapshot mutation leaked into region errors")
	}
}

func TestSortAlertsCriticalFirstStable(t *testing.T) {
	alerts := []Alert{
		{ID: "w1", Severity: SeverityWarning},
		{ID: "c1", Severity: SeverityCritical},
		{ID: "w2", Severity: SeverityWarning},
		{ID: "c2", Severity: SeverityCritical},
	}
	SortAlerts(alerts)

	wantOrder := []string{"c1", "c2", "w1", "w2"}
	for i, want := range wantOrder {
		if alerts[i].ID != want {
			t.Fatalf("alerts[%d] = %s, want %s", i, alerts[i].ID, want)
		}
	}
}

func TestCountAlerts(t *testing.T) {
	counts := CountAlerts([]Alert{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityWarning},
	})
	if counts.Critical != 2 || counts.Warning != 1 || counts.Total != 3 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestStateConcurrentAccess(t *testing.T) {
	s := NewState()
	s.SetRegions([]string{"us-east-1"})

	const iterations = 500

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			s.UpdateInventory([]EC2Instance{{ID: "i-1", State: "running", Region: "us-east-1"}}, nil, nil)
			s.UpdateAlerts([]Alert{{ID: "EC2/i-1/cpu", Severity: SeverityCritical}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			snap := s.GetSnapshot()
			_ = snap.Stats
		}
	}()
	wg.Wait()
}
