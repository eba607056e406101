// Package alerts detects and tracks alert conditions on the inventory.
package alerts

import (
	"fmt"

	"github.com/awslens/awslens/internal/models"
)

// CPU utilization bounds for running EC2 instances, inclusive.
const (
	cpuWarningThreshold  = 70.0
	cpuCriticalThreshold = 90.0
)

// DetectEC2 finds alert conditions on EC2 instances. cpuByInstance maps
// instance ID to the latest CPUUtilization datapoint; instances without an
// entry get no CPU alert.
func DetectEC2(instances []models.EC2Instance, cpuByInstance map[string]float64) []models.Alert {
	var alerts []models.Alert

	for _, inst := range instances {
		name := inst.Name
		if name == "" {
			name = inst.ID
		}

		if inst.State == "stopped" {
			alerts = append(alerts, models.Alert{
				ID:           alertID("EC2", inst.ID, "stopped"),
				ResourceType: "EC2",
				ResourceID:   inst.ID,
				ResourceName: name,
				Region:       inst.Region,
				Severity:     models.SeverityWarning,
				Message:      "Instance is stopped",
			})
		}

		if inst.State == "running" {
			cpu, ok := cpuByInstance[inst.ID]
			if !ok {
				continue
			}
			switch {
			case cpu >= cpuCriticalThreshold:
				alerts = append(alerts, models.Alert{
					ID:           alertID("EC2", inst.ID, "cpu"),
					ResourceType: "EC2",
					ResourceID:   inst.ID,
					ResourceName: name,
					Region:       inst.Region,
					Severity:     models.SeverityCritical,
					Message:      fmt.Sprintf("High CPU utilization: %.1f%%", cpu),
					Value:        cpu,
				})
			case cpu >= cpuWarningThreshold:
				alerts = append(alerts, models.Alert{
					ID:           alertID("EC2", inst.ID, "cpu"),
					ResourceType: "EC2",
					ResourceID:   inst.ID,
					ResourceName: name,
					Region:       inst.Region,
					Severity:     models.SeverityWarning,
					Message:      fmt.Sprintf("Elevated CPU utilization: %.1f%%", cpu),
					Value:        cpu,
				})
			}
		}
	}

	return alerts
}

// DetectRDS finds alert conditions on RDS instances. An empty status means
// the status is not known yet and raises nothing.
func DetectRDS(instances []models.RDSInstance) []models.Alert {
	var alerts []models.Alert

	for _, db := range instances {
		if db.Status != "" && db.Status != "available" {
			alerts = append(alerts, models.Alert{
				ID:           alertID("RDS", db.ID, "status"),
				ResourceType: "RDS",
				ResourceID:   db.ID,
				ResourceName: db.ID,
				Region:       db.Region,
				Severity:     models.SeverityCritical,
				Message:      fmt.Sprintf("Database status: %s", db.Status),
			})
		}
	}

	return alerts
}

// Detect runs all detectors and orders the result critical first,
// preserving detection order within each severity.
func Detect(ec2 []models.EC2Instance, cpuByInstance map[string]float64, rds []models.RDSInstance) []models.Alert {
	alerts := DetectEC2(ec2, cpuByInstance)
	alerts = append(alerts, DetectRDS(rds)...)
	models.SortAlerts(alerts)
	return alerts
}

func alertID(resourceType, resourceID, kind string) string {
	return fmt.Sprintf("%s/%s/%s", resourceType, resourceID, kind)
}
