package api

import (
	"net/http"
	"os"
	"runtime"
	"time"

	gohost "github.com/shirou/gopsutil/v4/host"
	goprocess "github.com/shirou/gopsutil/v4/process"

	"github.com/awslens/awslens/internal/store"
)

// Diagnostics is the support bundle served by /api/diagnostics.
type Diagnostics struct {
	Version            string       `json:"version"`
	GoVersion          string       `json:"goVersion"`
	PID                int          `json:"pid"`
	UptimeSeconds      int64        `json:"uptimeSeconds"`
	Hostname           string       `json:"hostname"`
	OS                 string       `json:"os"`
	Platform           string       `json:"platform"`
	NumGoroutine       int          `json:"numGoroutine"`
	Memory             MemoryUsage  `json:"memory"`
	CPUPercent         float64      `json:"cpuPercent"`
	DemoMode           bool         `json:"demoMode"`
	Regions            []string     `json:"regions"`
	LastPollDurationMs int64        `json:"lastPollDurationMs"`
	WSClients          int          `json:"wsClients"`
	SampleStore        *store.Stats `json:"sampleStore,omitempty"`
}

// MemoryUsage reports process memory from the OS and the Go runtime.
type MemoryUsage struct {
	RSSBytes  uint64 `json:"rssBytes"`
	HeapBytes uint64 `json:"heapBytes"`
}

func (r *Router) handleDiagnostics(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	snap := r.monitor.GetState()

	diag := Diagnostics{
		Version:            r.version,
		GoVersion:          runtime.Version(),
		PID:                os.Getpid(),
		UptimeSeconds:      int64(time.Since(r.monitor.StartedAt()).Seconds()),
		NumGoroutine:       runtime.NumGoroutine(),
		DemoMode:           snap.DemoMode,
		Regions:            snap.Regions,
		LastPollDurationMs: r.monitor.LastPollDuration().Milliseconds(),
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	diag.Memory.HeapBytes = memStats.HeapAlloc

	ctx := req.Context()
	if info, err := gohost.InfoWithContext(ctx); err == nil {
		diag.Hostname = info.Hostname
		diag.OS = info.OS
		diag.Platform = info.Platform
	}
	if proc, err := goprocess.NewProcessWithContext(ctx, int32(diag.PID)); err == nil {
		if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			diag.Memory.RSSBytes = mem.RSS
		}
		if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
			diag.CPUPercent = cpu
		}
	}

	if r.hub != nil {
		diag.WSClients = r.hub.ClientCount()
	}
	if samples := r.monitor.Samples(); samples != nil {
		stats := samples.GetStats()
		diag.SampleStore = &stats
	}

	writeJSON(w, http.StatusOK, diag)
}
