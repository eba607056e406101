// Package ui serves the embedded single-page dashboard.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed static
var embedded embed.FS

// Handler serves the embedded dashboard assets. Unknown non-API paths fall
// back to index.html so browser reloads on client-side routes keep working.
func Handler() http.Handler {
	fsys, err := fs.Sub(embedded, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("Embedded UI assets missing")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			// SPA fallback
			path = "index.html"
			content, err = fs.ReadFile(fsys, path)
			if err != nil {
				http.NotFound(w, r)
				return
			}
		}

		w.Header().Set("Content-Type", contentTypeFor(path))
		if strings.HasSuffix(path, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		_, _ = w.Write(content)
	})
}

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(path, ".css"):
		return "text/css; charset=utf-8"
	case strings.HasSuffix(path, ".js"):
		return "application/javascript; charset=utf-8"
	case strings.HasSuffix(path, ".json"):
		return "application/json"
	case strings.HasSuffix(path, ".svg"):
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
