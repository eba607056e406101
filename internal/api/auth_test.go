package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/awslens/awslens/internal/config"
)

func newAuthedRequest(user, pass string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.SetBasicAuth(user, pass)
	return req
}

func serveRequest(r *Router, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAPITokenAuth(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.APIToken = "sekrit-token"
	})

	rr := doRequest(r, http.MethodGet, "/api/state", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got != "" {
		t.Errorf("WWW-Authenticate = %q, want unset without basic auth", got)
	}

	rr = doRequest(r, http.MethodGet, "/api/state", map[string]string{"X-API-Token": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", rr.Code)
	}

	rr = doRequest(r, http.MethodGet, "/api/state", map[string]string{"X-API-Token": "sekrit-token"})
	if rr.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", rr.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("passw0rd"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.AuthUser = "admin"
		cfg.AuthPass = string(hash)
	})

	rr := doRequest(r, http.MethodGet, "/api/state", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no credentials: expected 401, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got != `Basic realm="awslens"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}

	req := newAuthedRequest("admin", "wrong")
	rr = serveRequest(r, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rr.Code)
	}

	req = newAuthedRequest("admin", "passw0rd")
	rr = serveRequest(r, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("valid credentials: expected 200, got %d", rr.Code)
	}
}

func TestAuthExemptPaths(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.APIToken = "sekrit-token"
	})

	rr := doRequest(r, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("/api/health: expected 200 without credentials, got %d", rr.Code)
	}

	rr = doRequest(r, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("/metrics: expected 200 without credentials, got %d", rr.Code)
	}

	rr = doRequest(r, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("/: expected 200 without credentials, got %d", rr.Code)
	}
}

func TestUpdateAuthSwapsToken(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.APIToken = "old-token"
	})

	rr := doRequest(r, http.MethodGet, "/api/state", map[string]string{"X-API-Token": "old-token"})
	if rr.Code != http.StatusOK {
		t.Fatalf("old token before swap: expected 200, got %d", rr.Code)
	}

	r.UpdateAuth("", "", "new-token")

	rr = doRequest(r, http.MethodGet, "/api/state", map[string]string{"X-API-Token": "old-token"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("old token after swap: expected 401, got %d", rr.Code)
	}

	rr = doRequest(r, http.MethodGet, "/api/state", map[string]string{"X-API-Token": "new-token"})
	if rr.Code != http.StatusOK {
		t.Fatalf("new token: expected 200, got %d", rr.Code)
	}
}

func TestRequiresAuth(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.APIToken = "sekrit-token"
	})

	tests := []struct {
		path string
		want bool
	}{
		{"/api/health", false},
		{"/metrics", false},
		{"/", false},
		{"/api/state", true},
		{"/api/alerts", true},
		{"/ws", true},
	}
	for _, tt := range tests {
		if got := r.requiresAuth(tt.path); got != tt.want {
			t.Errorf("requiresAuth(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRequiresAuthDisabledWithoutCredentials(t *testing.T) {
	r := newTestRouter(t, nil)

	if r.requiresAuth("/api/state") {
		t.Error("expected auth disabled when nothing is configured")
	}

	rr := doRequest(r, http.MethodGet, "/api/state", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with auth disabled, got %d", rr.Code)
	}
}
