// Package monitor owns the poll loops that keep the dashboard state fresh:
// inventory and health on one interval, billing on another. Each cycle fans
// out across regions, reconciles alerts, persists samples, and broadcasts
// the merged snapshot to connected clients.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/awslens/awslens/internal/alerts"
	"github.com/awslens/awslens/internal/awsapi"
	"github.com/awslens/awslens/internal/config"
	"github.com/awslens/awslens/internal/demo"
	"github.com/awslens/awslens/internal/models"
	"github.com/awslens/awslens/internal/store"
)

// Broadcaster pushes state and alert transitions to connected dashboards.
// *websocket.Hub satisfies it.
type Broadcaster interface {
	BroadcastState(state any)
	BroadcastAlert(alert any)
	BroadcastAlertResolved(alertID string)
}

// maxCycleTimeout caps how long a single poll cycle may run regardless of
// the configured interval.
const maxCycleTimeout = 2 * time.Minute

const (
	probeTimeout    = 15 * time.Second
	discoverTimeout = 30 * time.Second
)

var errAllRegionsFailed = errors.New("all region queries failed")

// Monitor drives the polling lifecycle and owns the shared state.
type Monitor struct {
	cfg      *config.Config
	provider Provider
	state    *models.State
	alertMgr *alerts.Manager
	samples  *store.Store
	hub      Broadcaster

	regions  []string
	demoMode atomic.Bool
	started  time.Time

	bootstrapOnce sync.Once
	runCtx        context.Context

	pollMu   sync.Mutex
	inFlight bool

	statsMu      sync.Mutex
	lastPollTook time.Duration
}

// New wires a monitor from configuration. hub may be nil. The sample store
// is best-effort: if it cannot be opened the monitor runs without metric
// history and alert events.
func New(cfg *config.Config, hub Broadcaster) *Monitor {
	m := &Monitor{
		cfg:      cfg,
		provider: newAWSProvider(),
		state:    models.NewState(),
		alertMgr: alerts.NewManager(),
		hub:      hub,
		started:  time.Now(),
	}
	m.alertMgr.SetMutes(cfg.MutePatterns)

	samples, err := store.New(store.DefaultConfig(cfg.DataDir))
	if err != nil {
		log.Warn().Err(err).Str("dataDir", cfg.DataDir).Msg("Sample store unavailable, continuing without metric history")
	} else {
		m.samples = samples
		m.alertMgr.SetHistorySink(samples)
	}

	return m
}

// SetProvider replaces the cloud query layer. Must be called before Start.
func (m *Monitor) SetProvider(p Provider) {
	m.provider = p
}

// Bootstrap resolves the data source and pins the region list. Start calls
// it; callers that need the monitor usable before the loops begin may call
// it themselves. It runs at most once.
func (m *Monitor) Bootstrap(ctx context.Context) {
	m.bootstrapOnce.Do(func() { m.resolveSource(ctx) })
}

// Start bootstraps, runs an immediate poll of each loop, then ticks until
// ctx is canceled. It blocks for the life of the monitor.
func (m *Monitor) Start(ctx context.Context) error {
	m.runCtx = ctx
	m.Bootstrap(ctx)

	log.Info().
		Strs("regions", m.regions).
		Bool("demoMode", m.demoMode.Load()).
		Dur("pollInterval", m.cfg.PollInterval).
		Dur("costInterval", m.cfg.CostInterval).
		Msg("Monitor starting")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.runCostLoop(ctx)
	}()

	m.runInventoryLoop(ctx)
	wg.Wait()

	log.Info().Msg("Monitor stopped")
	return nil
}

// resolveSource decides between live AWS and the demo fleet and pins the
// region list for the life of the process.
func (m *Monitor) resolveSource(ctx context.Context) {
	if m.cfg.DemoMode {
		m.enterDemoMode("demo mode enabled")
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	identity, err := m.provider.Probe(probeCtx)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("Credential probe failed, falling back to demo data")
		m.enterDemoMode("no usable AWS credentials")
		return
	}

	log.Info().
		Str("account", identity.Account).
		Str("arn", identity.ARN).
		Msg("AWS credentials verified")
	m.state.SetIdentity(*identity)

	m.regions = m.resolveRegions(ctx)
	m.state.SetRegions(m.regions)
}

func (m *Monitor) enterDemoMode(reason string) {
	m.demoMode.Store(true)
	m.regions = append([]string{}, demo.Regions...)
	m.state.SetDemoMode(true)
	m.state.SetIdentity(demo.Identity())
	m.state.SetRegions(m.regions)
	log.Info().Str("reason", reason).Msg("Serving demo fleet")
}

func (m *Monitor) resolveRegions(ctx context.Context) []string {
	if len(m.cfg.Regions) > 0 {
		return append([]string{}, m.cfg.Regions...)
	}

	discoverCtx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	discovered, err := m.provider.DiscoverRegions(discoverCtx)
	if err != nil || len(discovered) == 0 {
		log.Warn().
			Err(err).
			Str("fallback", awsapi.DefaultRegion).
			Msg("Region discovery failed, monitoring the default region only")
		return []string{awsapi.DefaultRegion}
	}

	log.Info().Int("count", len(discovered)).Msg("Discovered enabled regions")
	return discovered
}

// runInventoryLoop polls on the configured interval. When every region
// fails the next attempt is scheduled with exponential backoff instead of
// the fixed ticker; the first healthy cycle resets the schedule.
func (m *Monitor) runInventoryLoop(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.cfg.PollInterval
	bo.MaxInterval = 5 * m.cfg.PollInterval
	if bo.MaxInterval < 5*time.Minute {
		bo.MaxInterval = 5 * time.Minute
	}

	for {
		allFailed := false
		if m.tryBeginPoll() {
			allFailed = m.pollInventory(ctx)
			m.endPoll()
		}

		wait := m.cfg.PollInterval
		if allFailed {
			wait = bo.NextBackOff()
			log.Warn().Dur("retryIn", wait).Msg("Backing off after a fully failed poll")
		} else {
			bo.Reset()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (m *Monitor) runCostLoop(ctx context.Context) {
	m.pollCosts(ctx)

	ticker := time.NewTicker(m.cfg.CostInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollCosts(ctx)
		}
	}
}

// RefreshNow triggers an immediate poll of both loops unless one is already
// running. It returns false when a cycle is in flight so the API can answer
// 409 instead of stacking polls.
func (m *Monitor) RefreshNow() bool {
	if !m.tryBeginPoll() {
		return false
	}

	ctx := m.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer m.endPoll()
		m.pollInventory(ctx)
		m.pollCosts(ctx)
	}()

	return true
}

func (m *Monitor) tryBeginPoll() bool {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	if m.inFlight {
		return false
	}
	m.inFlight = true
	return true
}

func (m *Monitor) endPoll() {
	m.pollMu.Lock()
	m.inFlight = false
	m.pollMu.Unlock()
}

func (m *Monitor) cycleTimeout() time.Duration {
	timeout := m.cfg.PollInterval
	if timeout <= 0 || timeout > maxCycleTimeout {
		timeout = maxCycleTimeout
	}
	return timeout
}

func (m *Monitor) setLastPollTook(d time.Duration) {
	m.statsMu.Lock()
	m.lastPollTook = d
	m.statsMu.Unlock()
}

// GetState returns a copy of the current dashboard state.
func (m *Monitor) GetState() models.StateSnapshot {
	return m.state.GetSnapshot()
}

// Alerts exposes the alert manager for counts and mute queries.
func (m *Monitor) Alerts() *alerts.Manager {
	return m.alertMgr
}

// Samples exposes the on-disk history store; nil when it failed to open.
func (m *Monitor) Samples() *store.Store {
	return m.samples
}

// DemoMode reports whether the monitor serves the canned fleet.
func (m *Monitor) DemoMode() bool {
	return m.demoMode.Load()
}

// StartedAt returns when the monitor was constructed.
func (m *Monitor) StartedAt() time.Time {
	return m.started
}

// LastPollDuration returns how long the most recent inventory cycle took.
func (m *Monitor) LastPollDuration() time.Duration {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.lastPollTook
}

// SetMutes replaces the alert mute patterns at runtime, typically after a
// config reload.
func (m *Monitor) SetMutes(patterns []string) {
	m.alertMgr.SetMutes(patterns)
	log.Info().Int("patterns", len(patterns)).Msg("Alert mute patterns updated")
}

// Close flushes and closes the sample store.
func (m *Monitor) Close() error {
	if m.samples == nil {
		return nil
	}
	return m.samples.Close()
}
