// Package metrics exposes the service's own operational counters on
// /metrics for Prometheus scraping.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/awslens/awslens/internal/models"
)

var (
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "awslens_polls_total",
			Help: "Total number of poll cycles by kind and outcome",
		},
		[]string{"kind", "status"}, // kind: inventory|costs, status: ok|error
	)

	PollDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "awslens_poll_duration_seconds",
			Help:    "Duration of poll cycles by kind",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	RegionUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "awslens_region_up",
			Help: "Whether the last poll of a region succeeded (1) or failed (0)",
		},
		[]string{"region"},
	)

	Resources = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "awslens_resources",
			Help: "Number of inventoried resources by type",
		},
		[]string{"type"}, // ec2|rds
	)

	AlertsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "awslens_alerts_active",
			Help: "Number of currently active alerts by severity",
		},
		[]string{"severity"},
	)

	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "awslens_alerts_fired_total",
			Help: "Total number of alerts fired by severity",
		},
		[]string{"severity"},
	)

	AlertsResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "awslens_alerts_resolved_total",
			Help: "Total number of alerts resolved",
		},
	)

	AlertsMutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "awslens_alerts_muted_total",
			Help: "Total number of detections dropped by mute patterns",
		},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "awslens_ws_clients",
			Help: "Number of connected WebSocket clients",
		},
	)

	CostMonthToDateDollars = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "awslens_cost_month_to_date_dollars",
			Help: "Month-to-date unblended cost in USD from the last cost poll",
		},
	)
)

// RecordPoll records one completed poll cycle.
func RecordPoll(kind string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	PollsTotal.WithLabelValues(kind, status).Inc()
	PollDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// SetRegionUp records the last poll outcome per region.
func SetRegionUp(region string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	RegionUp.WithLabelValues(region).Set(v)
}

// SetResourceCounts records the inventory sizes.
func SetResourceCounts(ec2, rds int) {
	Resources.WithLabelValues("ec2").Set(float64(ec2))
	Resources.WithLabelValues("rds").Set(float64(rds))
}

// RecordAlertChanges updates alert counters after a reconcile pass.
func RecordAlertChanges(fired, resolved []models.Alert, muted int) {
	for _, a := range fired {
		AlertsFiredTotal.WithLabelValues(string(a.Severity)).Inc()
	}
	if n := len(resolved); n > 0 {
		AlertsResolvedTotal.Add(float64(n))
	}
	if muted > 0 {
		AlertsMutedTotal.Add(float64(muted))
	}
}

// SetActiveAlerts records the standing alert totals.
func SetActiveAlerts(counts models.AlertCounts) {
	AlertsActive.WithLabelValues(string(models.SeverityCritical)).Set(float64(counts.Critical))
	AlertsActive.WithLabelValues(string(models.SeverityWarning)).Set(float64(counts.Warning))
}

// SetCostMonthToDate records the latest month-to-date spend. Unavailable
// cost data leaves the gauge at its previous value.
func SetCostMonthToDate(summary models.CostSummary) {
	if summary.Available {
		CostMonthToDateDollars.Set(summary.MonthToDate)
	}
}
