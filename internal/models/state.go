package models

import (
	"sort"
	"sync"
	"time"
)

// State is the shared snapshot of everything the dashboard shows
type State struct {
	mu               sync.RWMutex
	EC2Instances     []EC2Instance             `json:"ec2Instances"`
	RDSInstances     []RDSInstance             `json:"rdsInstances"`
	DBHealth         []DBHealth                `json:"dbHealth"`
	EC2Metrics       map[string][]MetricSeries `json:"ec2Metrics"`
	ActiveAlerts     []Alert                   `json:"activeAlerts"`
	Costs            CostSummary               `json:"costs"`
	Regions          []string                  `json:"regions"`
	RegionErrors     map[string]string         `json:"regionErrors"`
	ConnectionHealth map[string]bool           `json:"connectionHealth"`
	Stats            SummaryStats              `json:"stats"`
	Identity         Identity                  `json:"identity"`
	DemoMode         bool                      `json:"demoMode"`
	LastPoll         time.Time                 `json:"lastPoll"`
	LastCostPoll     time.Time                 `json:"lastCostPoll"`
}

// StateSnapshot is a copy of State without the mutex, safe to serialize
type StateSnapshot struct {
	EC2Instances     []EC2Instance             `json:"ec2Instances"`
	RDSInstances     []RDSInstance             `json:"rdsInstances"`
	DBHealth         []DBHealth                `json:"dbHealth"`
	EC2Metrics       map[string][]MetricSeries `json:"ec2Metrics"`
	ActiveAlerts     []Alert                   `json:"activeAlerts"`
	Costs            CostSummary               `json:"costs"`
	Regions          []string                  `json:"regions"`
	RegionErrors     map[string]string         `json:"regionErrors"`
	ConnectionHealth map[string]bool           `json:"connectionHealth"`
	Stats            SummaryStats              `json:"stats"`
	Identity         Identity                  `json:"identity"`
	DemoMode         bool                      `json:"demoMode"`
	LastPoll         time.Time                 `json:"lastPoll"`
	LastCostPoll     time.Time                 `json:"lastCostPoll"`
}

// NewState creates an initialized State
func NewState() *State {
	return &State{
		EC2Instances:     []EC2Instance{},
		RDSInstances:     []RDSInstance{},
		DBHealth:         []DBHealth{},
		EC2Metrics:       make(map[string][]MetricSeries),
		ActiveAlerts:     []Alert{},
		Regions:          []string{},
		RegionErrors:     make(map[string]string),
		ConnectionHealth: make(map[string]bool),
	}
}

// SetRegions records the region list being monitored
func (s *State) SetRegions(regions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Regions = append([]string{}, regions...)
	sort.Strings(s.Regions)
	s.Stats.Regions = len(s.Regions)
}

// SetIdentity records the caller identity from the credential probe
func (s *State) SetIdentity(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Identity = id
}

// SetDemoMode flags the state as demo data
func (s *State) SetDemoMode(demo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DemoMode = demo
}

// UpdateInventory replaces the instance inventory after a poll cycle.
// regionErrors holds the regions whose queries failed this cycle; their
// previous inventory has already been dropped by the aggregation, so
// callers pass merged results from the successful regions only.
func (s *State) UpdateInventory(ec2 []EC2Instance, rds []RDSInstance, regionErrors map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newEC2 := append([]EC2Instance{}, ec2...)
	sort.Slice(newEC2, func(i, j int) bool {
		if newEC2[i].Region != newEC2[j].Region {
			return newEC2[i].Region < newEC2[j].Region
		}
		return newEC2[i].ID < newEC2[j].ID
	})

	newRDS := append([]RDSInstance{}, rds...)
	sort.Slice(newRDS, func(i, j int) bool {
		if newRDS[i].Region != newRDS[j].Region {
			return newRDS[i].Region < newRDS[j].Region
		}
		return newRDS[i].ID < newRDS[j].ID
	})

	s.EC2Instances = newEC2
	s.RDSInstances = newRDS

	s.RegionErrors = make(map[string]string, len(regionErrors))
	for region, msg := range regionErrors {
		s.RegionErrors[region] = msg
	}
	for _, region := range s.Regions {
		_, failed := regionErrors[region]
		s.ConnectionHealth[region] = !failed
	}

	s.Stats = calcStats(newEC2, newRDS, len(s.Regions))
	s.LastPoll = time.Now()
}

// SetRegionError marks a region as failed without touching the inventory.
// Used when a whole poll cycle fails and the previous data is kept.
func (s *State) SetRegionError(region, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.RegionErrors[region] = msg
	s.ConnectionHealth[region] = false
}

// UpdateHealth replaces the database health reports
func (s *State) UpdateHealth(health []DBHealth) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newHealth := append([]DBHealth{}, health...)
	sort.Slice(newHealth, func(i, j int) bool {
		return newHealth[i].ResourceID < newHealth[j].ResourceID
	})
	s.DBHealth = newHealth
}

// UpdateEC2Metrics replaces the per-instance metric series
func (s *State) UpdateEC2Metrics(metrics map[string][]MetricSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newMetrics := make(map[string][]MetricSeries, len(metrics))
	for id, series := range metrics {
		newMetrics[id] = append([]MetricSeries{}, series...)
	}
	s.EC2Metrics = newMetrics
}

// UpdateAlerts replaces the active alert list, critical first
func (s *State) UpdateAlerts(alerts []Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newAlerts := append([]Alert{}, alerts...)
	SortAlerts(newAlerts)
	s.ActiveAlerts = newAlerts
}

// UpdateCosts replaces the cost summary
func (s *State) UpdateCosts(costs CostSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Costs = costs
	s.LastCostPoll = time.Now()
}

// GetSnapshot returns a copy of the current state without the mutex
func (s *State) GetSnapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make(map[string][]MetricSeries, len(s.EC2Metrics))
	for id, series := range s.EC2Metrics {
		metrics[id] = append([]MetricSeries{}, series...)
	}

	regionErrors := make(map[string]string, len(s.RegionErrors))
	for region, msg := range s.RegionErrors {
		regionErrors[region] = msg
	}

	connectionHealth := make(map[string]bool, len(s.ConnectionHealth))
	for region, healthy := range s.ConnectionHealth {
		connectionHealth[region] = healthy
	}

	return StateSnapshot{
		EC2Instances:     append([]EC2Instance{}, s.EC2Instances...),
		RDSInstances:     append([]RDSInstance{}, s.RDSInstances...),
		DBHealth:         append([]DBHealth{}, s.DBHealth...),
		EC2Metrics:       metrics,
		ActiveAlerts:     append([]Alert{}, s.ActiveAlerts...),
		Costs:            s.Costs,
		Regions:          append([]string{}, s.Regions...),
		RegionErrors:     regionErrors,
		ConnectionHealth: connectionHealth,
		Stats:            s.Stats,
		Identity:         s.Identity,
		DemoMode:         s.DemoMode,
		LastPoll:         s.LastPoll,
		LastCostPoll:     s.LastCostPoll,
	}
}

// SortAlerts orders alerts critical first, preserving relative order
// within the same severity.
func SortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
	})
}

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// CountAlerts tallies alerts by severity
func CountAlerts(alerts []Alert) AlertCounts {
	counts := AlertCounts{Total: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			counts.Critical++
		case SeverityWarning:
			counts.Warning++
		}
	}
	return counts
}

func calcStats(ec2 []EC2Instance, rds []RDSInstance, regions int) SummaryStats {
	stats := SummaryStats{
		EC2Total: len(ec2),
		RDSTotal: len(rds),
		Regions:  regions,
	}
	for _, inst := range ec2 {
		switch inst.State {
		case "running":
			stats.EC2Running++
		case "stopped":
			stats.EC2Stopped++
		}
	}
	for _, db := range rds {
		if db.Status == "available" {
			stats.RDSAvailable++
		}
	}
	return stats
}
