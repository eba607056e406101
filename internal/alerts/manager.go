package alerts

import (
	"sort"
	"sync"
	"time"

	"github.com/IGLOU-EU/go-wildcard/v2"
	"github.com/rs/zerolog/log"

	"github.com/awslens/awslens/internal/models"
)

// HistorySink records alert lifecycle events. Implementations must be safe
// for concurrent use.
type HistorySink interface {
	AppendEvent(action string, alert models.Alert) error
}

// Manager tracks active alerts across poll cycles so that FirstSeen survives
// re-detection and disappeared conditions resolve.
type Manager struct {
	mu      sync.RWMutex
	active  map[string]models.Alert
	mutes   []string
	history HistorySink
}

// NewManager creates an alert manager with no mutes and no history sink.
func NewManager() *Manager {
	return &Manager{
		active: make(map[string]models.Alert),
	}
}

// SetHistorySink attaches a sink for fired/resolved events.
func (m *Manager) SetHistorySink(sink HistorySink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = sink
}

// SetMutes replaces the mute patterns. Patterns match against resource IDs
// and resource names.
func (m *Manager) SetMutes(patterns []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutes = append([]string{}, patterns...)
}

// Mutes returns the current mute patterns.
func (m *Manager) Mutes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.mutes...)
}

// Reconcile merges freshly detected alerts into the active set. New alerts
// get FirstSeen=now and are returned as fired; alerts no longer detected are
// removed and returned as resolved; persisting alerts keep FirstSeen and
// refresh everything else. Muted alerts are dropped before reconciliation
// and counted in muted.
func (m *Manager) Reconcile(now time.Time, detected []models.Alert) (fired, resolved []models.Alert, muted int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(detected))

	for _, alert := range detected {
		if m.isMutedLocked(alert) {
			muted++
			continue
		}
		seen[alert.ID] = true

		if existing, ok := m.active[alert.ID]; ok {
			alert.FirstSeen = existing.FirstSeen
			alert.LastSeen = now
			m.active[alert.ID] = alert
			continue
		}

		alert.FirstSeen = now
		alert.LastSeen = now
		m.active[alert.ID] = alert
		fired = append(fired, alert)
	}

	for id, alert := range m.active {
		if !seen[id] {
			delete(m.active, id)
			resolved = append(resolved, alert)
		}
	}

	m.recordEventsLocked(fired, resolved)
	return fired, resolved, muted
}

// Active returns the active alerts, critical first.
func (m *Manager) Active() []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := make([]models.Alert, 0, len(m.active))
	for _, alert := range m.active {
		alerts = append(alerts, alert)
	}
	// ID order first, then a stable severity sort, so output is
	// deterministic regardless of map iteration order
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID < alerts[j].ID })
	models.SortAlerts(alerts)
	return alerts
}

// Counts tallies the active alerts by severity.
func (m *Manager) Counts() models.AlertCounts {
	return models.CountAlerts(m.Active())
}

func (m *Manager) isMutedLocked(alert models.Alert) bool {
	for _, pattern := range m.mutes {
		if wildcard.Match(pattern, alert.ResourceID) || wildcard.Match(pattern, alert.ResourceName) {
			return true
		}
	}
	return false
}

func (m *Manager) recordEventsLocked(fired, resolved []models.Alert) {
	if m.history == nil {
		return
	}
	for _, alert := range fired {
		if err := m.history.AppendEvent("fired", alert); err != nil {
			log.Error().Err(err).Str("alertId", alert.ID).Msg("Failed to record alert fired event")
		}
	}
	for _, alert := range resolved {
		if err := m.history.AppendEvent("resolved", alert); err != nil {
			log.Error().Err(err).Str("alertId", alert.ID).Msg("Failed to record alert resolved event")
		}
	}
}

