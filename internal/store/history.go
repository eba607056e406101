package store

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/awslens/awslens/internal/models"
)

// AlertEvent is one row of the alert lifecycle log.
type AlertEvent struct {
	ID         string    `json:"id"`
	AlertID    string    `json:"alertId"`
	Action     string    `json:"action"` // "fired" or "resolved"
	Severity   string    `json:"severity"`
	ResourceID string    `json:"resourceId"`
	Region     string    `json:"region"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// AppendEvent records a fired/resolved transition. Events are written
// immediately; they are rare compared to samples.
func (s *Store) AppendEvent(action string, alert models.Alert) error {
	id := ulid.Make().String()

	_, err := s.db.Exec(`
		INSERT INTO alert_events (id, alert_id, action, severity, resource_id, region, message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, alert.ID, action, string(alert.Severity), alert.ResourceID, alert.Region, alert.Message, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert alert event: %w", err)
	}

	log.Debug().
		Str("event", id).
		Str("alertId", alert.ID).
		Str("action", action).
		Msg("Recorded alert event")
	return nil
}

// RecentEvents returns the newest alert events, most recent first. ULIDs
// sort lexicographically by creation time, which breaks ties within the
// same second.
func (s *Store) RecentEvents(limit int) ([]AlertEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, alert_id, action, severity, resource_id, region, message, timestamp
		FROM alert_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert events: %w", err)
	}
	defer rows.Close()

	var events []AlertEvent
	for rows.Next() {
		var e AlertEvent
		var ts int64
		if err := rows.Scan(&e.ID, &e.AlertID, &e.Action, &e.Severity, &e.ResourceID, &e.Region, &e.Message, &ts); err != nil {
			log.Warn().Err(err).Msg("Failed to scan alert event row")
			continue
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		events = append(events, e)
	}

	return events, rows.Err()
}
