package media

import "context"

// FetchOptions tune a single metadata lookup.
type FetchOptions struct {
	// CookieFile is a Netscape cookie file path handed to the extractor.
	CookieFile string
}

// MetadataFetcher resolves a page URL into metadata and raw formats.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string, opts FetchOptions) (*Metadata, error)
}

// Progress is a single progress report emitted while a download runs.
type Progress struct {
	Status          string
	DownloadedBytes int64
	TotalBytes      int64
	Speed           float64
	ETA             int64
	Filename        string
}

// DownloadSpec describes one materialization of a URL into Dir.
type DownloadSpec struct {
	URL        string
	Format     string
	Dir        string
	CookieFile string

	// ExtractAudio asks the post-processor for an mp3 at AudioQuality kbps.
	ExtractAudio bool
	AudioQuality string

	OnProgress func(Progress)
}

// MediaDownloader writes the media selected by a DownloadSpec into its Dir.
type MediaDownloader interface {
	Download(ctx context.Context, spec DownloadSpec) error
}
