package alerts

import (
	"errors"
	"testing"
	"time"

	"github.com/awslens/awslens/internal/models"
)

type recordingSink struct {
	events []string
	fail   bool
}

func (r *recordingSink) AppendEvent(action string, alert models.Alert) error {
	if r.fail {
		return errors.New("sink unavailable")
	}
	r.events = append(r.events, action+":"+alert.ID)
	return nil
}

func TestReconcileFiresNewAlerts(t *testing.T) {
	m := NewManager()
	now := time.Now()

	detected := []models.Alert{
		{ID: "EC2/i-1/stopped", ResourceID: "i-1", Severity: models.SeverityWarning},
	}

	fired, resolved, muted := m.Reconcile(now, detected)
	if len(fired) != 1 || len(resolved) != 0 || muted != 0 {
		t.Fatalf("fired=%d resolved=%d muted=%d", len(fired), len(resolved), muted)
	}
	if !fired[0].FirstSeen.Equal(now) || !fired[0].LastSeen.Equal(now) {
		t.Fatalf("expected FirstSeen/LastSeen set to now, got %+v", fired[0])
	}
}

func TestReconcileKeepsFirstSeen(t *testing.T) {
	m := NewManager()
	first := time.Now().Add(-10 * time.Minute)
	later := time.Now()

	alert := models.Alert{ID: "EC2/i-1/cpu", ResourceID: "i-1", Severity: models.SeverityWarning, Value: 75}
	m.Reconcile(first, []models.Alert{alert})

	// same condition again, hotter
	alert.Severity = models.SeverityCritical
	alert.Value = 95
	alert.Message = "High CPU utilization: 95.0%"
	fired, resolved, _ := m.Reconcile(later, []models.Alert{alert})

	if len(fired) != 0 || len(resolved) != 0 {
		t.Fatalf("re-detection must not fire or resolve, got fired=%d resolved=%d", len(fired), len(resolved))
	}

	active := m.Active()
	if len(active) != 1 {
		t.Fatalf("expected 1 active alert, got %d", len(active))
	}
	if !active[0].FirstSeen.Equal(first) {
		t.Errorf("FirstSeen changed: got %v, want %v", active[0].FirstSeen, first)
	}
	if !active[0].LastSeen.Equal(later) {
		t.Errorf("LastSeen not refreshed: got %v, want %v", active[0].LastSeen, later)
	}
	if active[0].Severity != models.SeverityCritical || active[0].Value != 95 {
		t.Errorf("alert not refreshed: %+v", active[0])
	}
}

func TestReconcileResolvesDisappearedAlerts(t *testing.T) {
	m := NewManager()
	now := time.Now()

	m.Reconcile(now, []models.Alert{
		{ID: "EC2/i-1/stopped", Severity: models.SeverityWarning},
		{ID: "RDS/db-1/status", Severity: models.SeverityCritical},
	})

	fired, resolved, _ := m.Reconcile(now.Add(time.Minute), []models.Alert{
		{ID: "RDS/db-1/status", Severity: models.SeverityCritical},
	})

	if len(fired) != 0 {
		t.Fatalf("expected no fired, got %d", len(fired))
	}
	if len(resolved) != 1 || resolved[0].ID != "EC2/i-1/stopped" {
		t.Fatalf("expected EC2/i-1/stopped resolved, got %+v", resolved)
	}
	if len(m.Active()) != 1 {
		t.Fatalf("expected 1 active alert, got %d", len(m.Active()))
	}
}

func TestReconcileMutes(t *testing.T) {
	m := NewManager()
	m.SetMutes([]string{"i-dev-*", "staging-db"})

	fired, _, muted := m.Reconcile(time.Now(), []models.Alert{
		{ID: "EC2/i-dev-123/stopped", ResourceID: "i-dev-123", ResourceName: "dev box", Severity: models.SeverityWarning},
		{ID: "RDS/staging-db/status", ResourceID: "staging-db", ResourceName: "staging-db", Severity: models.SeverityCritical},
		{ID: "EC2/i-prod/stopped", ResourceID: "i-prod", ResourceName: "prod box", Severity: models.SeverityWarning},
	})

	if muted != 2 {
		t.Fatalf("muted = %d, want 2", muted)
	}
	if len(fired) != 1 || fired[0].ResourceID != "i-prod" {
		t.Fatalf("expected only i-prod fired, got %+v", fired)
	}
}

func TestReconcileMuteByName(t *testing.T) {
	m := NewManager()
	m.SetMutes([]string{"*-canary"})

	_, _, muted := m.Reconcile(time.Now(), []models.Alert{
		{ID: "EC2/i-9/stopped", ResourceID: "i-9", ResourceName: "web-canary", Severity: models.SeverityWarning},
	})
	if muted != 1 {
		t.Fatalf("muted = %d, want 1", muted)
	}
	if len(m.Active()) != 0 {
		t.Fatal("muted alert must not become active")
	}
}

func TestManagerRecordsHistory(t *testing.T) {
	m := NewManager()
	sink := &recordingSink{}
	m.SetHistorySink(sink)

	now := time.Now()
	m.Reconcile(now, []models.Alert{{ID: "EC2/i-1/stopped", Severity: models.SeverityWarning}})
	m.Reconcile(now.Add(time.Minute), nil)

	want := []string{"fired:EC2/i-1/stopped", "resolved:EC2/i-1/stopped"}
	if len(sink.events) != len(want) {
		t.Fatalf("events = %v, want %v", sink.events, want)
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Fatalf("events[%d] = %q, want %q", i, sink.events[i], want[i])
		}
	}
}

func TestManagerSinkErrorsDoNotBlockReconcile(t *testing.T) {
	m := NewManager()
	m.SetHistorySink(&recordingSink{fail: true})

	fired, _, _ := m.Reconcile(time.Now(), []models.Alert{{ID: "EC2/i-1/stopped", Severity: models.SeverityWarning}})
	if len(fired) != 1 {
		t.Fatal("sink failure must not prevent firing")
	}
	if len(m.Active()) != 1 {
		t.Fatal("sink failure must not prevent activation")
	}
}

func TestActiveSortsCriticalFirstThenID(t *testing.T) {
	m := NewManager()
	now := time.Now()

	m.Reconcile(now, []models.Alert{
		{ID: "EC2/i-b/stopped", Severity: models.SeverityWarning},
		{ID: "RDS/z-db/status", Severity: models.SeverityCritical},
		{ID: "EC2/i-a/stopped", Severity: models.SeverityWarning},
		{ID: "RDS/a-db/status", Severity: models.SeverityCritical},
	})

	active := m.Active()
	wantOrder := []string{"RDS/a-db/status", "RDS/z-db/status", "EC2/i-a/stopped", "EC2/i-b/stopped"}
	for i, want := range wantOrder {
		if active[i].ID != want {
			t.Fatalf("active[%d] = %s, want %s", i, active[i].ID, want)
		}
	}

	counts := m.Counts()
	if counts.Critical != 2 || counts.Warning != 2 || counts.Total != 4 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
