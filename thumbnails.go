package main

import (
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mdownloader/internal/netclient"
)

// GET /api/thumbnail/proxy?url=
func (s *Server) handleThumbnailProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "URL parameter required")
		return
	}

	resp, err := netclient.Get(r.Context(), s.httpClient, target)
	if err != nil {
		log.Printf("❌ Thumbnail proxy error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to proxy thumbnail")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️  Thumbnail upstream %s -> %d", target, resp.StatusCode)
		writeError(w, http.StatusNotFound, "Failed to fetch thumbnail")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("⚠️  Thumbnail copy aborted: %v", err)
	}
}

const placeholderSVG = `<svg width="320" height="180" xmlns="http://www.w3.org/2000/svg">
    <rect width="100%%" height="100%%" fill="#f0f0f0"/>
    <text x="50%%" y="50%%" text-anchor="middle" dy=".3em" font-family="Arial, sans-serif" font-size="16" fill="#666">
        %s Video
    </text>
</svg>
`

// GET /api/thumbnail/placeholder?platform=
func handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	if platform == "" {
		platform = "unknown"
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	fmt.Fprintf(w, placeholderSVG, html.EscapeString(strings.ToUpper(platform)))
}

// handleStatic serves the front-end from static_dir. Unknown paths get
// index.html so client-side routes keep working.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if name != "/" {
		full := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(name))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			http.ServeFile(w, r, full)
			return
		}
	}

	index := filepath.Join(s.cfg.StaticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	http.ServeFile(w, r, index)
}
