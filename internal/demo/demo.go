// Package demo provides the canned fleet served when demo mode is enabled
// or no usable AWS credentials are found at startup. The data is
// deterministic so repeated polls render identical dashboards.
package demo

import (
	"math"
	"time"

	"github.com/awslens/awslens/internal/models"
)

// Regions covered by the demo fleet.
var Regions = []string{"eu-west-1", "us-east-1", "us-west-2"}

// Identity is the fake caller identity shown in demo mode.
func Identity() models.Identity {
	return models.Identity{
		Account: "123456789012",
		ARN:     "arn:aws:iam::123456789012:user/demo",
		UserID:  "AIDADEMO0EXAMPLE",
	}
}

// Fleet returns the demo inventory. The mix covers the interesting
// dashboard states: stopped and hot instances, a database mid-change.
func Fleet() ([]models.EC2Instance, []models.RDSInstance) {
	ec2 := []models.EC2Instance{
		{ID: "i-demo001", Name: "web-server-1", Type: "t3.medium", State: "running", PrivateIP: "10.0.1.10", PublicIP: "54.123.45.67", AZ: "us-east-1a", Region: "us-east-1"},
		{ID: "i-demo002", Name: "web-server-2", Type: "t3.medium", State: "running", PrivateIP: "10.0.1.11", PublicIP: "54.123.45.68", AZ: "us-east-1b", Region: "us-east-1"},
		{ID: "i-demo003", Name: "api-server", Type: "t3.large", State: "running", PrivateIP: "10.0.2.10", AZ: "us-west-2a", Region: "us-west-2"},
		{ID: "i-demo004", Name: "batch-processor", Type: "c5.xlarge", State: "stopped", PrivateIP: "10.0.2.20", AZ: "us-west-2b", Region: "us-west-2"},
		{ID: "i-demo005", Name: "dev-server", Type: "t3.small", State: "running", PrivateIP: "10.0.3.10", PublicIP: "52.18.100.50", AZ: "eu-west-1a", Region: "eu-west-1"},
	}

	rds := []models.RDSInstance{
		{ID: "prod-db", Engine: "mysql", EngineVersion: "8.0.35", Class: "db.r5.large", Status: "available", AZ: "us-east-1a", MultiAZ: true, StorageGB: 100, Endpoint: "prod-db.cluster.us-east-1.rds.amazonaws.com", Port: 3306, Region: "us-east-1"},
		{ID: "analytics-db", Engine: "postgres", EngineVersion: "15.4", Class: "db.r5.xlarge", Status: "available", AZ: "us-east-1b", MultiAZ: true, StorageGB: 500, Endpoint: "analytics-db.cluster.us-east-1.rds.amazonaws.com", Port: 5432, Region: "us-east-1"},
		{ID: "dev-db", Engine: "mysql", EngineVersion: "8.0.35", Class: "db.t3.medium", Status: "modifying", AZ: "eu-west-1a", MultiAZ: false, StorageGB: 20, Endpoint: "dev-db.eu-west-1.rds.amazonaws.com", Port: 3306, Region: "eu-west-1"},
	}

	return ec2, rds
}

// latest CPU per demo instance; web-server-2 sits in the warning band and
// api-server in the critical band so the alert panel has content.
var ec2LatestCPU = map[string]float64{
	"i-demo001": 32.5,
	"i-demo002": 78.2,
	"i-demo003": 91.4,
	"i-demo005": 8.1,
}

// EC2LatestCPU returns the most recent CPU reading per running instance.
func EC2LatestCPU() map[string]float64 {
	out := make(map[string]float64, len(ec2LatestCPU))
	for id, v := range ec2LatestCPU {
		out[id] = v
	}
	return out
}

// EC2Series builds hourly chart series ending at now, 5-minute resolution.
// The last CPU sample matches EC2LatestCPU so charts agree with alerts.
func EC2Series(now time.Time) map[string][]models.MetricSeries {
	now = now.UTC().Truncate(time.Minute)
	const points = 12

	out := make(map[string][]models.MetricSeries, len(ec2LatestCPU))
	seed := 0
	for _, id := range []string{"i-demo001", "i-demo002", "i-demo003", "i-demo005"} {
		latest := ec2LatestCPU[id]
		cpu := models.MetricSeries{ResourceID: id, Metric: "CPUUtilization", Unit: "Percent"}
		netIn := models.MetricSeries{ResourceID: id, Metric: "NetworkIn", Unit: "Bytes"}
		netOut := models.MetricSeries{ResourceID: id, Metric: "NetworkOut", Unit: "Bytes"}

		for i := 0; i < points; i++ {
			ts := now.Add(-time.Duration(points-1-i) * 5 * time.Minute)
			wave := math.Sin(float64(i+seed) * math.Pi / 6)

			v := latest + wave*latest*0.12
			if i == points-1 {
				v = latest
			}
			cpu.Samples = append(cpu.Samples, models.MetricSample{Timestamp: ts, Value: round1(v)})
			netIn.Samples = append(netIn.Samples, models.MetricSample{Timestamp: ts, Value: math.Round(250000 + wave*90000)})
			netOut.Samples = append(netOut.Samples, models.MetricSample{Timestamp: ts, Value: math.Round(180000 + wave*60000)})
		}

		out[id] = []models.MetricSeries{cpu, netIn, netOut}
		seed += 3
	}

	return out
}

// RDSLatest returns the current health-metric values per database.
// analytics-db sits in the warning bands; the others are healthy.
func RDSLatest() map[string]map[string]float64 {
	const gib = 1024 * 1024 * 1024

	return map[string]map[string]float64{
		"prod-db": {
			"CPUUtilization":      45.2,
			"FreeableMemory":      6.1 * gib,
			"ReadLatency":         0.004,
			"WriteLatency":        0.008,
			"DiskQueueDepth":      2,
			"DatabaseConnections": 450,
		},
		"analytics-db": {
			"CPUUtilization":      82.6,
			"FreeableMemory":      0.4 * gib,
			"ReadLatency":         0.031,
			"WriteLatency":        0.012,
			"DiskQueueDepth":      14,
			"DatabaseConnections": 1760,
		},
		"dev-db": {
			"CPUUtilization":      12.3,
			"FreeableMemory":      1.8 * gib,
			"ReadLatency":         0.002,
			"WriteLatency":        0.003,
			"DiskQueueDepth":      0,
			"DatabaseConnections": 30,
		},
	}
}

// Costs fills a plausible billing summary so the cost panels render.
func Costs(now time.Time) models.CostSummary {
	now = now.UTC()
	daysElapsed := now.Day() - 1
	if daysElapsed < 1 {
		daysElapsed = 1
	}

	summary := models.CostSummary{
		Available:   true,
		Message:     "Demo data",
		MonthToDate: 1847.32,
		LastMonth:   2103.77,
		Forecast:    2012.45,
		TopServices: []models.ServiceCost{
			{Service: "Amazon Elastic Compute Cloud - Compute", Amount: 612.40},
			{Service: "Amazon Relational Database Service", Amount: 534.10},
			{Service: "Amazon Simple Storage Service", Amount: 123.90},
			{Service: "AmazonCloudWatch", Amount: 61.22},
			{Service: "AWS Data Transfer", Amount: 44.70},
		},
		Regions: []models.RegionCost{
			{Region: "us-east-1", Amount: 1200.12},
			{Region: "us-west-2", Amount: 402.20},
			{Region: "eu-west-1", Amount: 245.00},
		},
		RDSByUsageType: []models.UsageCost{
			{UsageType: "InstanceUsage:db.r5.xlarge", Amount: 262.80},
			{UsageType: "InstanceUsage:db.r5.large", Amount: 131.40},
			{UsageType: "Multi-AZUsage:db.r5.large", Amount: 98.55},
			{UsageType: "RDS:GP2-Storage", Amount: 41.35},
		},
		FetchedAt: now,
	}
	summary.DailyAvg = math.Round(summary.MonthToDate/float64(daysElapsed)*100) / 100

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := 14; i >= 1; i-- {
		day := today.AddDate(0, 0, -i)
		amount := 17.10 + 1.3*math.Sin(float64(day.Day())*math.Pi/7)
		summary.RDSDaily = append(summary.RDSDaily, models.DailyCost{
			Date:   day.Format("2006-01-02"),
			Amount: math.Round(amount*100) / 100,
		})
	}

	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
