// Package ytdlp drives the yt-dlp binary for metadata lookups and downloads.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mdownloader/internal/media"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// outputTemplate names downloads after the media title; the extension is
// whatever yt-dlp or its post-processor ends up writing.
const outputTemplate = "%(title)s.%(ext)s"

// Runner executes name with args, wiring the given writers to the process.
type Runner func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error

func execRunner(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

type Options struct {
	Binary         string
	FFmpegLocation string
	// ProxyAddr is a SOCKS5 host:port.
	ProxyAddr string
	UserAgent string
	// Timeout bounds each invocation. Zero means no limit.
	Timeout time.Duration
}

// Client implements media.MetadataFetcher and media.MediaDownloader.
type Client struct {
	opts Options
	run  Runner
}

func New(opts Options) *Client {
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{opts: opts, run: execRunner}
}

type ytdlpFormat struct {
	FormatID string      `json:"format_id"`
	ACodec   string      `json:"acodec"`
	VCodec   string      `json:"vcodec"`
	Ext      string      `json:"ext"`
	Height   int         `json:"height"`
	Width    int         `json:"width"`
	FPS      json.Number `json:"fps"`
	ABR      float64     `json:"abr"`
	Filesize int64       `json:"filesize"`
}

type ytdlpThumbnail struct {
	ID         flexString `json:"id"`
	URL        string     `json:"url"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Resolution string     `json:"resolution"`
}

type ytdlpInfo struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Uploader    string           `json:"uploader"`
	Duration    float64          `json:"duration"`
	ViewCount   int64            `json:"view_count"`
	LikeCount   int64            `json:"like_count"`
	Description string           `json:"description"`
	UploadDate  string           `json:"upload_date"`
	Extractor   string           `json:"extractor"`
	WebpageURL  string           `json:"webpage_url"`
	Thumbnail   string           `json:"thumbnail"`
	Thumbnails  []ytdlpThumbnail `json:"thumbnails"`
	Formats     []ytdlpFormat    `json:"formats"`
}

// flexString accepts both JSON strings and numbers; extractors disagree on
// thumbnail ids.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

func (c *Client) FetchMetadata(ctx context.Context, url string, opts media.FetchOptions) (*media.Metadata, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var stdout, stderr bytes.Buffer
	runErr := c.run(ctx, c.opts.Binary, c.metadataArgs(url, opts.CookieFile), &stdout, &stderr)

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 || bytes.Equal(out, []byte("null")) {
		if msg := lastError(stderr.String()); msg != "" {
			return nil, &media.ExtractionError{Msg: msg}
		}
		if runErr != nil && !isExitError(runErr) {
			return nil, fmt.Errorf("yt-dlp metadata error: %w", runErr)
		}
		return nil, media.ErrExtractionEmpty
	}

	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("yt-dlp metadata parse error: %w", err)
	}
	return toMetadata(info, url), nil
}

func (c *Client) Download(ctx context.Context, spec media.DownloadSpec) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanProgress(pr, spec.OnProgress)
	}()

	var stderr bytes.Buffer
	err := c.run(ctx, c.opts.Binary, c.downloadArgs(spec), pw, &stderr)
	pw.Close()
	<-done

	if err != nil {
		if msg := lastError(stderr.String()); msg != "" {
			return &media.ExtractionError{Msg: msg}
		}
		return fmt.Errorf("yt-dlp download error: %v | %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (c *Client) commonArgs(cookieFile string) []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--no-check-certificates",
		"--user-agent", c.opts.UserAgent,
	}
	if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}
	if c.opts.ProxyAddr != "" {
		args = append(args, "--proxy", "socks5://"+c.opts.ProxyAddr)
	}
	return args
}

func (c *Client) metadataArgs(url, cookieFile string) []string {
	args := []string{"-J", "--ignore-errors"}
	args = append(args, c.commonArgs(cookieFile)...)
	return append(args, "--", url)
}

func (c *Client) downloadArgs(spec media.DownloadSpec) []string {
	args := c.commonArgs(spec.CookieFile)
	args = append(args,
		"--newline",
		"--progress-template", progressTemplate,
		"-f", spec.Format,
		"-o", filepath.Join(spec.Dir, outputTemplate),
	)
	if spec.ExtractAudio {
		args = append(args,
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", spec.AudioQuality+"K",
		)
	}
	if c.opts.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", c.opts.FFmpegLocation)
	}
	return append(args, "--", spec.URL)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.Timeout > 0 {
		return context.WithTimeout(ctx, c.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func toMetadata(info ytdlpInfo, requestURL string) *media.Metadata {
	thumbs := make([]media.Thumbnail, 0, len(info.Thumbnails))
	for _, t := range info.Thumbnails {
		thumbs = append(thumbs, media.Thumbnail{
			ID:         string(t.ID),
			URL:        t.URL,
			Width:      t.Width,
			Height:     t.Height,
			Resolution: t.Resolution,
		})
	}

	formats := make([]media.RawFormat, 0, len(info.Formats))
	for _, f := range info.Formats {
		fps, _ := f.FPS.Float64()
		formats = append(formats, media.RawFormat{
			FormatID: f.FormatID,
			VCodec:   f.VCodec,
			ACodec:   f.ACodec,
			Height:   f.Height,
			Width:    f.Width,
			FPS:      fps,
			FPSText:  f.FPS.String(),
			ABR:      f.ABR,
			Ext:      f.Ext,
			Filesize: f.Filesize,
		})
	}

	return &media.Metadata{
		Info: media.NormalizeInfo(media.VideoInfo{
			ID:          info.ID,
			Title:       info.Title,
			Uploader:    info.Uploader,
			Duration:    info.Duration,
			ViewCount:   info.ViewCount,
			LikeCount:   info.LikeCount,
			Description: info.Description,
			UploadDate:  info.UploadDate,
			Extractor:   info.Extractor,
			WebpageURL:  info.WebpageURL,
			Thumbnail:   info.Thumbnail,
			Thumbnails:  thumbs,
		}, requestURL),
		Formats: formats,
	}
}

// lastError returns the final "ERROR:" line yt-dlp wrote, without the prefix.
func lastError(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return ""
}

func isExitError(err error) bool {
	_, ok := err.(*exec.ExitError)
	return ok
}
