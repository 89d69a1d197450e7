// Package progress keeps short-lived per-download progress snapshots.
package progress

import (
	"context"
	"time"
)

// Download states published while a request is served.
const (
	StateIdle        = "idle"
	StateExtracting  = "extracting"
	StateDownloading = "downloading"
	StateStreaming   = "streaming"
	StateCleaned     = "cleaned"
	StateFailed      = "failed"
)

type Progress struct {
	ID              string    `json:"id"`
	State           string    `json:"state"`
	Mode            string    `json:"mode,omitempty"`
	Status          string    `json:"status,omitempty"`
	DownloadedBytes int64     `json:"downloaded_bytes"`
	TotalBytes      int64     `json:"total_bytes"`
	Speed           float64   `json:"speed,omitempty"`
	ETA             int64     `json:"eta,omitempty"`
	Filename        string    `json:"filename,omitempty"`
	Error           string    `json:"error,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store is last-writer-wins; entries expire on their own.
type Store interface {
	Set(ctx context.Context, id string, p Progress) error
	Get(ctx context.Context, id string) (Progress, bool, error)
	Delete(ctx context.Context, id string) error
	// Close releases the backing connection, if any.
	Close() error
}
