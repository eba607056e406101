// Package api exposes the dashboard state over HTTP: JSON endpoints for
// inventory, health, alerts, and costs, report downloads, the websocket
// upgrade, and the prometheus scrape handler.
package api

import (
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/awslens/awslens/internal/config"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/monitor"
	"github.com/awslens/awslens/internal/ui"
	"github.com/awslens/awslens/internal/websocket"
)

// Router handles HTTP routing and the middleware chain.
type Router struct {
	mux     *http.ServeMux
	config  *config.Config
	monitor *monitor.Monitor
	hub     *websocket.Hub
	version string

	authMu   sync.RWMutex
	authUser string
	authPass string // bcrypt hash
	apiToken string

	allowedOrigins []string
}

// NewRouter creates the router with all routes registered.
func NewRouter(cfg *config.Config, mon *monitor.Monitor, hub *websocket.Hub, version string) *Router {
	r := &Router{
		mux:            http.NewServeMux(),
		config:         cfg,
		monitor:        mon,
		hub:            hub,
		version:        version,
		allowedOrigins: cfg.ResolveOrigins(),
	}
	r.UpdateAuth(cfg.AuthUser, cfg.AuthPass, cfg.APIToken)
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("/api/health", r.handleHealth)
	r.mux.HandleFunc("/api/state", r.handleState)
	r.mux.HandleFunc("/api/instances/ec2", r.handleEC2Instances)
	r.mux.HandleFunc("/api/instances/rds", r.handleRDSInstances)
	r.mux.HandleFunc("/api/health/rds", r.handleRDSHealth)
	r.mux.HandleFunc("/api/alerts", r.handleAlerts)
	r.mux.HandleFunc("/api/alerts/history", r.handleAlertHistory)
	r.mux.HandleFunc("/api/costs", r.handleCosts)
	r.mux.HandleFunc("/api/stats", r.handleStats)
	r.mux.HandleFunc("/api/regions", r.handleRegions)
	r.mux.HandleFunc("/api/metrics/ec2", r.handleEC2MetricQuery)
	r.mux.HandleFunc("/api/refresh", r.handleRefresh)
	r.mux.HandleFunc("/api/export/xlsx", r.handleExportXLSX)
	r.mux.HandleFunc("/api/export/pdf", r.handleExportPDF)
	r.mux.HandleFunc("/api/export/costs.csv", r.handleExportCostsCSV)
	r.mux.HandleFunc("/api/diagnostics", r.handleDiagnostics)

	// unknown API paths get a JSON 404 instead of the SPA fallback
	r.mux.HandleFunc("/api/", r.handleAPINotFound)

	if r.hub != nil {
		r.mux.HandleFunc("/ws", r.hub.HandleWebSocket)
	}
	r.mux.Handle("/metrics", promhttp.Handler())

	r.mux.Handle("/", ui.Handler())
}

// ServeHTTP implements http.Handler: recover, request log, CORS, security
// headers, auth, then the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path == "" {
		req.URL.Path = "/"
	}

	// websocket upgrades manage the connection themselves
	if req.Header.Get("Upgrade") == "websocket" {
		if !r.authorized(req) {
			r.rejectUnauthorized(w)
			return
		}
		r.mux.ServeHTTP(w, req)
		return
	}

	ctx, requestID := logging.WithRequestID(req.Context(), req.Header.Get("X-Request-ID"))
	req = req.WithContext(ctx)

	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	rw.Header().Set("X-Request-ID", requestID)

	defer func() {
		if err := recover(); err != nil {
			log.Error().
				Interface("error", err).
				Str("path", req.URL.Path).
				Str("method", req.Method).
				Str("requestId", requestID).
				Bytes("stack", debug.Stack()).
				Msg("Panic recovered in API handler")
			writeError(rw, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		}
	}()

	r.applyCORS(rw, req)
	if req.Method == http.MethodOptions {
		rw.WriteHeader(http.StatusNoContent)
		return
	}

	if strings.HasPrefix(req.URL.Path, "/api/") {
		addSecurityHeaders(rw)
	}

	if r.requiresAuth(req.URL.Path) && !r.authorized(req) {
		r.rejectUnauthorized(rw)
		return
	}

	start := time.Now()
	r.mux.ServeHTTP(rw, req)

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", rw.statusCode).
		Dur("duration", time.Since(start)).
		Msg("Request handled")

	if rw.statusCode >= 400 {
		log.Warn().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", rw.statusCode).
			Str("requestId", requestID).
			Msg("Request failed")
	}
}

// applyCORS sets CORS headers when the request origin is on the allowlist.
// A lone "*" allows any origin.
func (r *Router) applyCORS(w http.ResponseWriter, req *http.Request) {
	origin := req.Header.Get("Origin")
	if origin == "" || len(r.allowedOrigins) == 0 {
		return
	}

	allowed := ""
	for _, candidate := range r.allowedOrigins {
		if candidate == "*" {
			allowed = "*"
			break
		}
		if strings.EqualFold(candidate, origin) {
			allowed = origin
			break
		}
	}
	if allowed == "" {
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowed)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Token, X-Request-ID")
}

func addSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Cache-Control", "no-store")
}

func (r *Router) handleAPINotFound(w http.ResponseWriter, req *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "not found")
}
