package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/awslens/awslens/internal/alerts"
	"github.com/awslens/awslens/internal/awsapi"
	"github.com/awslens/awslens/internal/demo"
	"github.com/awslens/awslens/internal/fanout"
	"github.com/awslens/awslens/internal/health"
	"github.com/awslens/awslens/internal/metrics"
	"github.com/awslens/awslens/internal/models"
)

// pollInventory runs one full inventory, health, and alert cycle. It
// reports whether every region failed, which drives the caller's backoff.
func (m *Monitor) pollInventory(ctx context.Context) bool {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, m.cycleTimeout())
	defer cancel()

	if m.demoMode.Load() {
		m.pollDemo(start)
		m.setLastPollTook(time.Since(start))
		metrics.RecordPoll("inventory", nil, time.Since(start))
		return false
	}

	ec2List, rdsList, regionErrors, allFailed := m.fetchInventory(ctx)
	if allFailed {
		for region, msg := range regionErrors {
			m.state.SetRegionError(region, msg)
			metrics.SetRegionUp(region, false)
		}
		m.setLastPollTook(time.Since(start))
		metrics.RecordPoll("inventory", errAllRegionsFailed, time.Since(start))
		log.Error().
			Int("regions", len(m.regions)).
			Msg("Inventory poll failed in every region, keeping previous data")
		m.broadcastState()
		return true
	}

	now := time.Now()
	dbHealth := m.fetchDBHealth(ctx, rdsList, now)
	cpuLatest, ec2Series := m.fetchEC2Metrics(ctx, ec2List, now)

	detected := alerts.Detect(ec2List, cpuLatest, rdsList)
	fired, resolved, muted := m.alertMgr.Reconcile(now, detected)
	active := m.alertMgr.Active()

	m.state.UpdateInventory(ec2List, rdsList, regionErrors)
	m.state.UpdateHealth(dbHealth)
	m.state.UpdateEC2Metrics(ec2Series)
	m.state.UpdateAlerts(active)

	m.recordSamples(now, cpuLatest, dbHealth)
	m.publishPollMetrics(regionErrors, len(ec2List), len(rdsList), fired, resolved, muted)
	m.notifyAlertChanges(fired, resolved)
	m.broadcastState()

	took := time.Since(start)
	m.setLastPollTook(took)
	metrics.RecordPoll("inventory", nil, took)

	log.Info().
		Int("ec2", len(ec2List)).
		Int("rds", len(rdsList)).
		Int("failedRegions", len(regionErrors)).
		Int("activeAlerts", len(active)).
		Dur("took", took).
		Msg("Inventory poll complete")

	return false
}

// fetchInventory fans the EC2 and RDS describe calls out across all
// monitored regions and merges the survivors. allFailed is true only when
// no region answered either query.
func (m *Monitor) fetchInventory(ctx context.Context) (ec2 []models.EC2Instance, rds []models.RDSInstance, regionErrors map[string]string, allFailed bool) {
	ec2Results := fanout.QueryRegions(ctx, m.regions, m.cfg.MaxParallel,
		func(ctx context.Context, region string) ([]models.EC2Instance, error) {
			return m.provider.EC2Instances(ctx, region)
		})
	ec2, ec2Errs := fanout.Aggregate(ec2Results, func(region string, inst *models.EC2Instance) {
		inst.Region = region
	})

	rdsResults := fanout.QueryRegions(ctx, m.regions, m.cfg.MaxParallel,
		func(ctx context.Context, region string) ([]models.RDSInstance, error) {
			return m.provider.RDSInstances(ctx, region)
		})
	rds, rdsErrs := fanout.Aggregate(rdsResults, func(region string, db *models.RDSInstance) {
		db.Region = region
	})

	regionErrors = make(map[string]string)
	for region, msg := range ec2Errs {
		regionErrors[region] = "ec2: " + msg
	}
	for region, msg := range rdsErrs {
		if prev, ok := regionErrors[region]; ok {
			regionErrors[region] = prev + "; rds: " + msg
		} else {
			regionErrors[region] = "rds: " + msg
		}
	}

	allFailed = len(m.regions) > 0 &&
		len(ec2Errs) == len(m.regions) &&
		len(rdsErrs) == len(m.regions)
	return ec2, rds, regionErrors, allFailed
}

// fetchDBHealth samples CloudWatch for every database and classifies each
// against the static thresholds. Metric failures degrade to UNKNOWN rather
// than failing the poll.
func (m *Monitor) fetchDBHealth(ctx context.Context, rds []models.RDSInstance, now time.Time) []models.DBHealth {
	if len(rds) == 0 {
		return nil
	}

	byRegion := make(map[string][]models.RDSInstance)
	var regions []string
	for _, db := range rds {
		if _, ok := byRegion[db.Region]; !ok {
			regions = append(regions, db.Region)
		}
		byRegion[db.Region] = append(byRegion[db.Region], db)
	}

	results := fanout.QueryRegions(ctx, regions, m.cfg.MaxParallel,
		func(ctx context.Context, region string) ([]models.DBHealth, error) {
			reports := make([]models.DBHealth, 0, len(byRegion[region]))
			for _, db := range byRegion[region] {
				series, err := m.provider.RDSHealthSamples(ctx, region, db.ID)
				if err != nil {
					log.Debug().
						Err(err).
						Str("db", db.ID).
						Str("region", region).
						Msg("Health samples unavailable")
					series = nil
				}
				latest := awsapi.LatestValues(series, now)
				reports = append(reports, health.Report(db.ID, db.Class, latest))
			}
			return reports, nil
		})

	reports, errs := fanout.Aggregate(results, nil)
	for region, msg := range errs {
		log.Debug().Str("region", region).Str("error", msg).Msg("Health sampling failed for region")
	}
	return reports
}

// fetchEC2Metrics pulls chart series for running instances and extracts the
// freshest CPU reading per instance for the alert detector.
func (m *Monitor) fetchEC2Metrics(ctx context.Context, ec2 []models.EC2Instance, now time.Time) (map[string]float64, map[string][]models.MetricSeries) {
	running := make(map[string][]models.EC2Instance)
	var regions []string
	for _, inst := range ec2 {
		if inst.State != "running" {
			continue
		}
		if _, ok := running[inst.Region]; !ok {
			regions = append(regions, inst.Region)
		}
		running[inst.Region] = append(running[inst.Region], inst)
	}

	cpuLatest := make(map[string]float64)
	allSeries := make(map[string][]models.MetricSeries)
	if len(regions) == 0 {
		return cpuLatest, allSeries
	}

	type regionMetrics struct {
		cpu    map[string]float64
		series map[string][]models.MetricSeries
	}

	results := fanout.QueryRegions(ctx, regions, m.cfg.MaxParallel,
		func(ctx context.Context, region string) (regionMetrics, error) {
			rm := regionMetrics{
				cpu:    make(map[string]float64),
				series: make(map[string][]models.MetricSeries),
			}
			for _, inst := range running[region] {
				series, err := m.provider.EC2Metrics(ctx, region, inst.ID)
				if err != nil {
					log.Debug().
						Err(err).
						Str("instance", inst.ID).
						Str("region", region).
						Msg("Instance metrics unavailable")
					continue
				}
				rm.series[inst.ID] = series
				if cpu, ok := awsapi.LatestValues(series, now)["CPUUtilization"]; ok {
					rm.cpu[inst.ID] = cpu
				}
			}
			return rm, nil
		})

	oks, errs := fanout.Partition(results)
	for _, rm := range oks {
		for id, v := range rm.cpu {
			cpuLatest[id] = v
		}
		for id, s := range rm.series {
			allSeries[id] = s
		}
	}
	for region, msg := range errs {
		log.Debug().Str("region", region).Str("error", msg).Msg("Instance metric sampling failed for region")
	}

	return cpuLatest, allSeries
}

// pollDemo refreshes state from the canned fleet. Demo data flows through
// the same classifier, detector, and reconciler as live polls so alert
// lifecycle behaves identically.
func (m *Monitor) pollDemo(now time.Time) {
	ec2List, rdsList := demo.Fleet()

	rdsLatest := demo.RDSLatest()
	dbHealth := make([]models.DBHealth, 0, len(rdsList))
	for _, db := range rdsList {
		dbHealth = append(dbHealth, health.Report(db.ID, db.Class, rdsLatest[db.ID]))
	}

	cpuLatest := demo.EC2LatestCPU()
	detected := alerts.Detect(ec2List, cpuLatest, rdsList)
	fired, resolved, muted := m.alertMgr.Reconcile(now, detected)
	active := m.alertMgr.Active()

	m.state.UpdateInventory(ec2List, rdsList, nil)
	m.state.UpdateHealth(dbHealth)
	m.state.UpdateEC2Metrics(demo.EC2Series(now))
	m.state.UpdateAlerts(active)

	m.recordSamples(now, cpuLatest, dbHealth)
	m.publishPollMetrics(nil, len(ec2List), len(rdsList), fired, resolved, muted)
	m.notifyAlertChanges(fired, resolved)
	m.broadcastState()
}

// pollCosts refreshes the billing summary. Cost Explorer failures are
// reported inside the summary itself, never as a poll error.
func (m *Monitor) pollCosts(ctx context.Context) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, m.cycleTimeout())
	defer cancel()

	var summary models.CostSummary
	if m.demoMode.Load() {
		summary = demo.Costs(start)
	} else {
		summary = m.provider.Costs(ctx, start)
	}

	m.state.UpdateCosts(summary)
	metrics.SetCostMonthToDate(summary)

	var status error
	if !summary.Available {
		status = errors.New(summary.Message)
	}
	metrics.RecordPoll("costs", status, time.Since(start))
	m.broadcastState()

	if summary.Available {
		log.Info().
			Float64("monthToDate", summary.MonthToDate).
			Dur("took", time.Since(start)).
			Msg("Cost poll complete")
	} else {
		log.Warn().Str("reason", summary.Message).Msg("Cost data unavailable")
	}
}

// recordSamples appends the freshest values to the on-disk history so the
// chart endpoints can serve windows longer than one CloudWatch query.
func (m *Monitor) recordSamples(now time.Time, cpuLatest map[string]float64, dbHealth []models.DBHealth) {
	if m.samples == nil {
		return
	}
	for id, v := range cpuLatest {
		m.samples.WriteSample("ec2", id, "CPUUtilization", v, now)
	}
	for _, report := range dbHealth {
		for _, mh := range report.Metrics {
			if mh.Status == models.HealthUnknown {
				continue
			}
			m.samples.WriteSample("rds", report.ResourceID, mh.Metric, mh.Value, now)
		}
	}
}

func (m *Monitor) publishPollMetrics(regionErrors map[string]string, ec2Count, rdsCount int, fired, resolved []models.Alert, muted int) {
	for _, region := range m.regions {
		_, failed := regionErrors[region]
		metrics.SetRegionUp(region, !failed)
	}
	metrics.SetResourceCounts(ec2Count, rdsCount)
	metrics.RecordAlertChanges(fired, resolved, muted)
	metrics.SetActiveAlerts(m.alertMgr.Counts())
}

func (m *Monitor) notifyAlertChanges(fired, resolved []models.Alert) {
	if m.hub == nil {
		return
	}
	for _, alert := range fired {
		m.hub.BroadcastAlert(alert)
	}
	for _, alert := range resolved {
		m.hub.BroadcastAlertResolved(alert.ID)
	}
}

func (m *Monitor) broadcastState() {
	if m.hub == nil {
		return
	}
	m.hub.BroadcastState(m.state.GetSnapshot())
}
