package main

import "mdownloader/internal/history"

// infoRequest is the JSON body accepted by POST /api/info.
type infoRequest struct {
	URL     string `json:"url"`
	Cookies string `json:"cookies"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type StatsResponse struct {
	ActiveDownloads    int64   `json:"active_downloads"`
	CompletedDownloads int64   `json:"completed_downloads"`
	FailedDownloads    int64   `json:"failed_downloads"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	MetadataBackend    string  `json:"metadata_backend"`
	Serverless         bool    `json:"serverless"`
	HistoryEnabled     bool    `json:"history_enabled"`
}

type historyResponse struct {
	Success bool            `json:"success"`
	Entries []history.Entry `json:"entries"`
}

type deletedResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

const (
	msgURLRequired      = "URL is required"
	msgInvalidURL       = "Invalid URL format"
	msgCookiesFailed    = "Failed to process cookies"
	msgProcessFailed    = "Failed to process video"
	msgExtractionEmpty  = "Could not extract video info. The video may be private or need sign-in cookies."
	msgNoFileCreated    = "Download failed - no file created"
	msgAudioFailed      = "Audio extraction failed"
	msgProcessingFailed = "Processing failed"
	msgInvalidBitrate   = "Invalid bitrate"
	msgInvalidID        = "Invalid download_id"
	msgRateLimited      = "Rate limit exceeded"
	msgDownloadNotFound = "Download not found"
)
