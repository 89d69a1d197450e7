package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"mdownloader/internal/history"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		ActiveDownloads:    s.activeDownloads.Load(),
		CompletedDownloads: s.completedDownloads.Load(),
		FailedDownloads:    s.failedDownloads.Load(),
		UptimeSeconds:      time.Since(s.startedAt).Seconds(),
		MetadataBackend:    s.cfg.MetadataBackend,
		Serverless:         s.cfg.Serverless,
		HistoryEnabled:     s.history != nil,
	})
}

// GET /api/progress/{id}
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !downloadIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return
	}
	p, ok, err := s.progress.Get(r.Context(), id)
	if err != nil {
		log.Printf("❌ progress lookup %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to read progress")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, msgDownloadNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("❌ history query: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, Entries: entries})
}

// DELETE /api/history/{id}
func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := s.history.Remove(r.Context(), id)
	if err != nil {
		log.Printf("❌ history delete %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete history entry")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "History entry not found")
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Success: true, Deleted: 1})
}

// DELETE /api/history
func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.history.Clear(r.Context())
	if err != nil {
		log.Printf("❌ history clear: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Success: true, Deleted: n})
}

func (s *Server) recordHistory(e history.Entry) {
	if s.history == nil {
		return
	}
	if err := s.history.Add(s.baseCtx, e); err != nil {
		log.Printf("⚠️  history not recorded for %s: %v", e.ID, err)
	}
}
