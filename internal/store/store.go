// Package store persists CloudWatch samples and alert history in SQLite
// so charts and the alert log survive restarts.
package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/awslens/awslens/internal/models"
)

// Config holds storage settings.
type Config struct {
	DBPath          string
	WriteBufferSize int           // samples to buffer before a batch write
	FlushInterval   time.Duration // max time between flushes
	Retention       time.Duration // how long to keep samples
}

// DefaultConfig returns sensible defaults rooted at dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		DBPath:          filepath.Join(dataDir, "awslens.db"),
		WriteBufferSize: 256,
		FlushInterval:   5 * time.Second,
		Retention:       24 * time.Hour,
	}
}

// bufferedSample holds a sample waiting to be written.
type bufferedSample struct {
	resourceType string
	resourceID   string
	metric       string
	value        float64
	timestamp    time.Time
}

// Store provides persistent sample and alert-event storage.
type Store struct {
	db     *sql.DB
	config Config

	bufferMu sync.Mutex
	buffer   []bufferedSample

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New opens (or creates) the database and starts the background flush and
// retention workers.
func New(config Config) (*Store, error) {
	dir := filepath.Dir(config.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Pragmas in the DSN so every pool connection is configured
	dsn := config.DBPath + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(5000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:     db,
		config: config,
		buffer: make([]bufferedSample, 0, config.WriteBufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	go s.backgroundWorker()

	log.Info().
		Str("path", config.DBPath).
		Int("bufferSize", config.WriteBufferSize).
		Dur("retention", config.Retention).
		Msg("Sample store initialized")

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			resource_type TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			metric TEXT NOT NULL,
			value REAL NOT NULL,
			timestamp INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_samples_lookup
		ON samples(resource_type, resource_id, metric, timestamp);

		CREATE INDEX IF NOT EXISTS idx_samples_time
		ON samples(timestamp);

		CREATE TABLE IF NOT EXISTS alert_events (
			id TEXT PRIMARY KEY,
			alert_id TEXT NOT NULL,
			action TEXT NOT NULL,
			severity TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			region TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alert_events_time
		ON alert_events(timestamp);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// WriteSample buffers one sample for batch insertion. Duplicate timestamps
// for the same metric are allowed; retention prunes them eventually.
func (s *Store) WriteSample(resourceType, resourceID, metric string, value float64, timestamp time.Time) {
	s.bufferMu.Lock()
	s.buffer = append(s.buffer, bufferedSample{
		resourceType: resourceType,
		resourceID:   resourceID,
		metric:       metric,
		value:        value,
		timestamp:    timestamp,
	})
	var batch []bufferedSample
	if len(s.buffer) >= s.config.WriteBufferSize {
		batch = s.takeBufferLocked()
	}
	s.bufferMu.Unlock()

	if batch != nil {
		s.writeBatch(batch)
	}
}

// Flush writes any buffered samples synchronously.
func (s *Store) Flush() {
	s.bufferMu.Lock()
	batch := s.takeBufferLocked()
	s.bufferMu.Unlock()
	s.writeBatch(batch)
}

// takeBufferLocked swaps the buffer out; caller must hold bufferMu.
func (s *Store) takeBufferLocked() []bufferedSample {
	if len(s.buffer) == 0 {
		return nil
	}
	batch := s.buffer
	s.buffer = make([]bufferedSample, 0, s.config.WriteBufferSize)
	return batch
}

func (s *Store) writeBatch(batch []bufferedSample) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		log.Error().Err(err).Msg("Failed to begin samples transaction")
		return
	}

	stmt, err := tx.Prepare(`
		INSERT INTO samples (resource_type, resource_id, metric, value, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		log.Error().Err(err).Msg("Failed to prepare samples insert")
		return
	}
	defer stmt.Close()

	for _, m := range batch {
		if _, err := stmt.Exec(m.resourceType, m.resourceID, m.metric, m.value, m.timestamp.Unix()); err != nil {
			log.Warn().Err(err).
				Str("resource", m.resourceID).
				Str("metric", m.metric).
				Msg("Failed to insert sample")
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("Failed to commit samples batch")
		return
	}

	log.Debug().Int("count", len(batch)).Msg("Wrote samples batch")
}

// QuerySamples returns the stored series for one metric of one resource
// since the given time, sorted ascending by timestamp.
func (s *Store) QuerySamples(resourceType, resourceID, metric string, since time.Time) ([]models.MetricSample, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, value
		FROM samples
		WHERE resource_type = ? AND resource_id = ? AND metric = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`, resourceType, resourceID, metric, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []models.MetricSample
	for rows.Next() {
		var ts int64
		var v float64
		if err := rows.Scan(&ts, &v); err != nil {
			log.Warn().Err(err).Msg("Failed to scan sample row")
			continue
		}
		samples = append(samples, models.MetricSample{
			Timestamp: time.Unix(ts, 0).UTC(),
			Value:     v,
		})
	}

	return samples, rows.Err()
}

// Cleanup deletes samples and alert events older than the retention window
// and reports how many rows were removed.
func (s *Store) Cleanup(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()

	var total int64
	res, err := s.db.Exec(`DELETE FROM samples WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune samples: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		total += n
	}

	res, err = s.db.Exec(`DELETE FROM alert_events WHERE timestamp < ?`, cutoff)
	if err != nil {
		return total, fmt.Errorf("failed to prune alert events: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		total += n
	}

	return total, nil
}

func (s *Store) backgroundWorker() {
	defer close(s.doneCh)

	flushTicker := time.NewTicker(s.config.FlushInterval)
	retentionTicker := time.NewTicker(time.Hour)
	defer flushTicker.Stop()
	defer retentionTicker.Stop()

	for {
		select {
		case <-s.stopCh:
			s.Flush()
			return

		case <-flushTicker.C:
			s.Flush()

		case <-retentionTicker.C:
			start := time.Now()
			deleted, err := s.Cleanup(s.config.Retention)
			if err != nil {
				log.Warn().Err(err).Msg("Retention cleanup failed")
				continue
			}
			if deleted > 0 {
				log.Info().
					Int64("deleted", deleted).
					Dur("duration", time.Since(start)).
					Msg("Retention cleanup completed")
			}
		}
	}
}

// Close flushes outstanding writes and shuts the store down.
func (s *Store) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	select {
	case <-s.doneCh:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Sample store shutdown timed out")
	}

	return s.db.Close()
}

// Stats holds store statistics for the diagnostics endpoint.
type Stats struct {
	DBPath   string `json:"dbPath"`
	DBSize   int64  `json:"dbSize"`
	Samples  int64  `json:"samples"`
	Events   int64  `json:"events"`
	Buffered int    `json:"buffered"`
}

// GetStats returns storage statistics.
func (s *Store) GetStats() Stats {
	stats := Stats{DBPath: s.config.DBPath}

	s.db.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&stats.Samples)
	s.db.QueryRow(`SELECT COUNT(*) FROM alert_events`).Scan(&stats.Events)

	if fi, err := os.Stat(s.config.DBPath); err == nil {
		stats.DBSize = fi.Size()
	}

	s.bufferMu.Lock()
	stats.Buffered = len(s.buffer)
	s.bufferMu.Unlock()

	return stats
}
