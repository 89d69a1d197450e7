package main

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"mdownloader/internal/cookies"
	"mdownloader/internal/download"
	"mdownloader/internal/history"
	"mdownloader/internal/media"
	"mdownloader/internal/progress"
)

// Server holds everything a request handler needs. There is no package-level
// mutable state; one Server backs one http.Server.
type Server struct {
	cfg *Config

	fetcher    media.MetadataFetcher
	downloads  *download.Orchestrator
	progress   progress.Store
	history    *history.Store
	cookies    cookies.Policy
	httpClient *http.Client
	limiter    *rate.Limiter

	// baseCtx outlives requests; subprocesses are bound to it so a client
	// hang-up does not kill a running extraction.
	baseCtx   context.Context
	startedAt time.Time

	activeDownloads    atomic.Int64
	completedDownloads atomic.Int64
	failedDownloads    atomic.Int64
}

type serverDeps struct {
	Fetcher    media.MetadataFetcher
	Downloader media.MediaDownloader
	Progress   progress.Store
	History    *history.Store
	HTTPClient *http.Client
}

func newServer(ctx context.Context, cfg *Config, deps serverDeps) *Server {
	s := &Server{
		cfg:        cfg,
		fetcher:    deps.Fetcher,
		downloads:  download.New(deps.Fetcher, deps.Downloader, deps.Progress, cfg.TempDir),
		progress:   deps.Progress,
		history:    deps.History,
		httpClient: deps.HTTPClient,
		cookies: cookies.Policy{
			Serverless: cfg.Serverless,
			FixedFile:  cfg.CookieFile,
			TempDir:    cfg.TempDir,
		},
		baseCtx:   ctx,
		startedAt: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: cfg.ThumbnailTimeout.Duration}
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/info", s.rateLimitMiddleware(s.handleInfo))
	mux.HandleFunc("POST /api/download/video", s.rateLimitMiddleware(s.handleDownload(download.ModeVideo)))
	mux.HandleFunc("POST /api/download/audio", s.rateLimitMiddleware(s.handleDownload(download.ModeAudio)))
	mux.HandleFunc("GET /api/thumbnail/proxy", s.rateLimitMiddleware(s.handleThumbnailProxy))
	mux.HandleFunc("GET /api/thumbnail/placeholder", handlePlaceholder)
	mux.HandleFunc("GET /api/progress/{id}", s.handleProgress)
	if s.history != nil {
		mux.HandleFunc("GET /api/history", s.handleHistory)
		mux.HandleFunc("DELETE /api/history/{id}", s.handleHistoryDelete)
		mux.HandleFunc("DELETE /api/history", s.handleHistoryClear)
	}
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /", s.handleStatic)
	return logRequests(corsMiddleware(mux))
}
