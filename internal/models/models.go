package models

import (
	"time"
)

// EC2Instance represents a single EC2 instance
type EC2Instance struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	State      string `json:"state"`
	PrivateIP  string `json:"privateIp"`
	PublicIP   string `json:"publicIp"`
	LaunchTime string `json:"launchTime"`
	AZ         string `json:"az"`
	Region     string `json:"region"`
}

// RDSInstance represents a single RDS database instance
type RDSInstance struct {
	ID            string `json:"id"`
	Engine        string `json:"engine"`
	EngineVersion string `json:"engineVersion"`
	Class         string `json:"class"`
	Status        string `json:"status"`
	AZ            string `json:"az"`
	MultiAZ       bool   `json:"multiAz"`
	StorageGB     int32  `json:"storageGb"`
	Endpoint      string `json:"endpoint"`
	Port          int32  `json:"port"`
	Region        string `json:"region"`
}

// MetricSample is a single CloudWatch datapoint
type MetricSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricSeries holds the sampled datapoints for one metric of one resource,
// sorted ascending by timestamp.
type MetricSeries struct {
	ResourceID string         `json:"resourceId"`
	Metric     string         `json:"metric"`
	Unit       string         `json:"unit"`
	Samples    []MetricSample `json:"samples"`
}

// ResourceMetrics carries the most recent datapoint per metric for a resource
type ResourceMetrics struct {
	ResourceID string             `json:"resourceId"`
	Latest     map[string]float64 `json:"latest"`
}

// HealthStatus classifies a metric or resource
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthWarning  HealthStatus = "WARNING"
	HealthCritical HealthStatus = "CRITICAL"
	HealthUnknown  HealthStatus = "UNKNOWN"
)

// MetricHealth is the classification of one health metric
type MetricHealth struct {
	Metric  string       `json:"metric"`
	Value   float64      `json:"value"`
	Display string       `json:"display"`
	Status  HealthStatus `json:"status"`
}

// DBHealth is the overall health report for one database instance
type DBHealth struct {
	ResourceID string         `json:"resourceId"`
	Overall    HealthStatus   `json:"overall"`
	Metrics    []MetricHealth `json:"metrics"`
}

// AlertSeverity is the severity of an alert
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Alert represents an active alert condition on a resource
type Alert struct {
	ID           string        `json:"id"`
	ResourceType string        `json:"resourceType"`
	ResourceID   string        `json:"resourceId"`
	ResourceName string        `json:"resourceName"`
	Region       string        `json:"region"`
	Severity     AlertSeverity `json:"severity"`
	Message      string        `json:"message"`
	Value        float64       `json:"value,omitempty"`
	FirstSeen    time.Time     `json:"firstSeen"`
	LastSeen     time.Time     `json:"lastSeen"`
}

// AlertCounts summarizes active alerts by severity
type AlertCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Total    int `json:"total"`
}

// ServiceCost is month-to-date spend for one AWS service
type ServiceCost struct {
	Service string  `json:"service"`
	Amount  float64 `json:"amount"`
}

// RegionCost is month-to-date spend for one region
type RegionCost struct {
	Region string  `json:"region"`
	Amount float64 `json:"amount"`
}

// UsageCost is month-to-date spend for one usage type
type UsageCost struct {
	UsageType string  `json:"usageType"`
	Amount    float64 `json:"amount"`
}

// DailyCost is total spend for one calendar day (date formatted YYYY-MM-DD)
type DailyCost struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// CostSummary aggregates Cost Explorer data. Available is false when the
// account has Cost Explorer disabled or the query failed; Message carries
// the reason.
type CostSummary struct {
	Available          bool          `json:"available"`
	Message            string        `json:"message,omitempty"`
	MonthToDate        float64       `json:"monthToDate"`
	LastMonth          float64       `json:"lastMonth"`
	Forecast           float64       `json:"forecast"`
	ForecastIsEstimate bool          `json:"forecastIsEstimate"`
	DailyAvg           float64       `json:"dailyAvg"`
	TopServices        []ServiceCost `json:"topServices"`
	Regions            []RegionCost  `json:"regions"`
	RDSByUsageType     []UsageCost   `json:"rdsByUsageType"`
	RDSDaily           []DailyCost   `json:"rdsDaily"`
	FetchedAt          time.Time     `json:"fetchedAt"`
}

// Identity is the caller identity reported by STS
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn"`
	UserID  string `json:"userId"`
}

// SummaryStats are the dashboard header tiles
type SummaryStats struct {
	EC2Total     int `json:"ec2Total"`
	EC2Running   int `json:"ec2Running"`
	EC2Stopped   int `json:"ec2Stopped"`
	RDSTotal     int `json:"rdsTotal"`
	RDSAvailable int `json:"rdsAvailable"`
	Regions      int `json:"regions"`
}
