package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// authExempt paths stay reachable without credentials so load balancers and
// scrapers keep working when auth is enabled.
func (r *Router) requiresAuth(path string) bool {
	r.authMu.RLock()
	enabled := r.authUser != "" || r.apiToken != ""
	r.authMu.RUnlock()
	if !enabled {
		return false
	}

	if path == "/api/health" || path == "/metrics" {
		return false
	}
	return strings.HasPrefix(path, "/api/") || path == "/ws"
}

// authorized checks the API token header first, then basic auth. Both
// comparisons are constant time; the password compares against the bcrypt
// hash loaded from configuration.
func (r *Router) authorized(req *http.Request) bool {
	r.authMu.RLock()
	user, pass, token := r.authUser, r.authPass, r.apiToken
	r.authMu.RUnlock()

	if user == "" && token == "" {
		return true
	}

	if token != "" {
		presented := req.Header.Get("X-API-Token")
		if presented != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1 {
			return true
		}
	}

	if user != "" {
		reqUser, reqPass, ok := req.BasicAuth()
		if ok &&
			subtle.ConstantTimeCompare([]byte(reqUser), []byte(user)) == 1 &&
			bcrypt.CompareHashAndPassword([]byte(pass), []byte(reqPass)) == nil {
			return true
		}
	}

	return false
}

func (r *Router) rejectUnauthorized(w http.ResponseWriter) {
	r.authMu.RLock()
	basicConfigured := r.authUser != ""
	r.authMu.RUnlock()

	if basicConfigured {
		w.Header().Set("WWW-Authenticate", `Basic realm="awslens"`)
	}
	writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
}

// UpdateAuth swaps the credentials at runtime, typically after a config
// reload.
func (r *Router) UpdateAuth(user, passHash, token string) {
	r.authMu.Lock()
	defer r.authMu.Unlock()
	r.authUser = user
	r.authPass = passHash
	r.apiToken = token
}
