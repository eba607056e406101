// Package health classifies RDS instance health from CloudWatch metrics.
package health

import (
	"fmt"

	"github.com/awslens/awslens/internal/models"
)

// threshold bands per metric: values at or beyond critical are CRITICAL,
// at or beyond warning are WARNING. Ratio metrics are converted first.
type threshold struct {
	warning  float64
	critical float64
	upper    bool
}

var metricThresholds = map[string]threshold{
	"CPUUtilization":      {70.0, 90.0, true},
	"FreeableMemory":      {0.25, 0.10, false}, // ratio of free to total
	"ReadLatency":         {0.020, 0.050, true},
	"WriteLatency":        {0.020, 0.050, true},
	"DiskQueueDepth":      {10.0, 50.0, true},
	"DatabaseConnections": {0.80, 0.95, true}, // ratio of used to max
}

// MetricOrder is the display order for RDS health metrics.
var MetricOrder = []string{
	"CPUUtilization",
	"FreeableMemory",
	"ReadLatency",
	"WriteLatency",
	"DiskQueueDepth",
	"DatabaseConnections",
}

const fallbackTotalMemoryBytes = 2 * 1024 * 1024 * 1024

// defaultMaxConnections approximates the engine default per instance class.
var defaultMaxConnections = map[string]int{
	"db.t2.micro":    66,
	"db.t2.small":    150,
	"db.t2.medium":   312,
	"db.t2.large":    648,
	"db.t3.micro":    112,
	"db.t3.small":    225,
	"db.t3.medium":   450,
	"db.t3.large":    900,
	"db.t3.xlarge":   1800,
	"db.t3.2xlarge":  3600,
	"db.m5.large":    823,
	"db.m5.xlarge":   1646,
	"db.m5.2xlarge":  3429,
	"db.m5.4xlarge":  5000,
	"db.r5.large":    1000,
	"db.r5.xlarge":   2000,
	"db.r5.2xlarge":  4000,
}

// Limits carries per-instance context needed to evaluate ratio metrics.
type Limits struct {
	TotalMemoryBytes float64 // for FreeableMemory; fallback 2 GiB when <= 0
	MaxConnections   int     // for DatabaseConnections; <= 0 means unknown
}

// MaxConnectionsForClass returns the approximate connection limit for an
// RDS instance class, or 0 when the class is not in the table.
func MaxConnectionsForClass(class string) int {
	return defaultMaxConnections[class]
}

// ClassifyMetric evaluates one metric value against its threshold band.
// Metrics without a band classify as UNKNOWN.
func ClassifyMetric(metric string, value float64, limits Limits) models.HealthStatus {
	band, ok := metricThresholds[metric]
	if !ok {
		return models.HealthUnknown
	}

	switch metric {
	case "FreeableMemory":
		total := limits.TotalMemoryBytes
		if total <= 0 {
			total = fallbackTotalMemoryBytes
		}
		ratio := value / total
		// free ratio below the band is bad
		if ratio < band.critical {
			return models.HealthCritical
		}
		if ratio < band.warning {
			return models.HealthWarning
		}
		return models.HealthHealthy

	case "DatabaseConnections":
		if limits.MaxConnections <= 0 {
			// cannot evaluate without the limit
			return models.HealthHealthy
		}
		ratio := value / float64(limits.MaxConnections)
		if ratio >= band.critical {
			return models.HealthCritical
		}
		if ratio >= band.warning {
			return models.HealthWarning
		}
		return models.HealthHealthy
	}

	if band.upper {
		if value >= band.critical {
			return models.HealthCritical
		}
		if value >= band.warning {
			return models.HealthWarning
		}
	} else {
		if value <= band.critical {
			return models.HealthCritical
		}
		if value <= band.warning {
			return models.HealthWarning
		}
	}
	return models.HealthHealthy
}

// FormatValue renders a metric value for display.
func FormatValue(metric string, value float64) string {
	switch metric {
	case "CPUUtilization":
		return fmt.Sprintf("%.1f%%", value)
	case "FreeableMemory":
		gb := value / (1024 * 1024 * 1024)
		if gb >= 1 {
			return fmt.Sprintf("%.2f GB", gb)
		}
		mb := value / (1024 * 1024)
		return fmt.Sprintf("%.0f MB", mb)
	case "ReadLatency", "WriteLatency":
		ms := value * 1000
		if ms < 1 {
			return fmt.Sprintf("%.2f ms", ms)
		}
		return fmt.Sprintf("%.1f ms", ms)
	case "DiskQueueDepth":
		return fmt.Sprintf("%.1f", value)
	case "DatabaseConnections":
		return fmt.Sprintf("%d", int(value))
	default:
		return fmt.Sprintf("%.2f", value)
	}
}

// Overall reduces per-metric statuses to the worst one. UNKNOWN wins only
// when every metric is UNKNOWN; an empty input is UNKNOWN.
func Overall(statuses []models.HealthStatus) models.HealthStatus {
	allUnknown := true
	worst := models.HealthHealthy
	for _, s := range statuses {
		switch s {
		case models.HealthCritical:
			return models.HealthCritical
		case models.HealthWarning:
			worst = models.HealthWarning
			allUnknown = false
		case models.HealthHealthy:
			allUnknown = false
		}
	}
	if allUnknown {
		return models.HealthUnknown
	}
	return worst
}

// Report builds the health report for one database instance. latest maps
// metric name to its most recent datapoint; missing metrics classify as
// UNKNOWN with an N/A display.
func Report(resourceID, class string, latest map[string]float64) models.DBHealth {
	limits := Limits{MaxConnections: MaxConnectionsForClass(class)}

	metrics := make([]models.MetricHealth, 0, len(MetricOrder))
	statuses := make([]models.HealthStatus, 0, len(MetricOrder))

	for _, name := range MetricOrder {
		value, ok := latest[name]
		if !ok {
			metrics = append(metrics, models.MetricHealth{
				Metric:  name,
				Display: "N/A",
				Status:  models.HealthUnknown,
			})
			statuses = append(statuses, models.HealthUnknown)
			continue
		}
		status := ClassifyMetric(name, value, limits)
		metrics = append(metrics, models.MetricHealth{
			Metric:  name,
			Value:   value,
			Display: FormatValue(name, value),
			Status:  status,
		})
		statuses = append(statuses, status)
	}

	return models.DBHealth{
		ResourceID: resourceID,
		Overall:    Overall(statuses),
		Metrics:    metrics,
	}
}
