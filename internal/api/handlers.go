package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/awslens/awslens/internal/models"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000

	defaultMetricWindow = time.Hour
	maxMetricWindow     = 24 * time.Hour
)

// allowMethod rejects the request with a JSON 405 unless it uses the given
// method.
func allowMethod(w http.ResponseWriter, req *http.Request, method string) bool {
	if req.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return false
	}
	return true
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	snap := r.monitor.GetState()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"version":       r.version,
		"demoMode":      snap.DemoMode,
		"lastPoll":      snap.LastPoll,
		"uptimeSeconds": int64(time.Since(r.monitor.StartedAt()).Seconds()),
	})
}

func (r *Router) handleState(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, r.monitor.GetState())
}

func (r *Router) handleEC2Instances(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, r.monitor.GetState().EC2Instances)
}

func (r *Router) handleRDSInstances(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, r.monitor.GetState().RDSInstances)
}

func (r *Router) handleRDSHealth(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, r.monitor.GetState().DBHealth)
}

func (r *Router) handleAlerts(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	alerts := r.monitor.GetState().ActiveAlerts
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"counts": models.CountAlerts(alerts),
	})
}

func (r *Router) handleAlertHistory(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	samples := r.monitor.Samples()
	if samples == nil {
		writeError(w, http.StatusServiceUnavailable, "history_unavailable", "Alert history store is not available")
		return
	}

	limit := defaultHistoryLimit
	if raw := req.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	events, err := samples.RecentEvents(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to read alert history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (r *Router) handleCosts(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, r.monitor.GetState().Costs)
}

func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, r.monitor.GetState().Stats)
}

func (r *Router) handleRegions(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	snap := r.monitor.GetState()
	writeJSON(w, http.StatusOK, map[string]any{
		"regions":          snap.Regions,
		"errors":           snap.RegionErrors,
		"connectionHealth": snap.ConnectionHealth,
	})
}

// handleEC2MetricQuery serves chart series from the sample store, which
// holds a longer window than a single CloudWatch query.
func (r *Router) handleEC2MetricQuery(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	samples := r.monitor.Samples()
	if samples == nil {
		writeError(w, http.StatusServiceUnavailable, "history_unavailable", "Metric history store is not available")
		return
	}

	query := req.URL.Query()
	instance := query.Get("instance")
	if instance == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "instance parameter is required")
		return
	}

	metric := query.Get("metric")
	if metric == "" {
		metric = "CPUUtilization"
	}

	window := defaultMetricWindow
	if raw := query.Get("since"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "since must be a positive duration like 30m or 6h")
			return
		}
		window = parsed
	}
	if window > maxMetricWindow {
		window = maxMetricWindow
	}

	points, err := samples.QuerySamples("ec2", instance, metric, time.Now().Add(-window))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to query metric history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instance": instance,
		"metric":   metric,
		"samples":  points,
	})
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodPost) {
		return
	}

	if !r.monitor.RefreshNow() {
		writeError(w, http.StatusConflict, "refresh_in_flight", "A refresh is already running")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}
