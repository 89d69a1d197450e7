// Package download turns a URL and a format choice into a single local file
// that removes itself once the caller is done with it.
package download

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mdownloader/internal/media"
	"mdownloader/internal/progress"
)

type Mode string

const (
	ModeVideo Mode = "video"
	ModeAudio Mode = "audio"
)

const (
	DefaultBitrate = "192"

	videoSelector = "best[height<=?1080]"
	audioSelector = "bestaudio/best"

	videoContentType = "video/mp4"
	audioContentType = "audio/mpeg"
)

type Request struct {
	URL        string
	FormatID   string
	Mode       Mode
	Bitrate    string
	DownloadID string
	CookieFile string
}

// File is an open download. Close removes it and its scratch directory.
type File struct {
	*os.File
	Name        string
	ContentType string
	Size        int64

	dir     string
	onClose func()
}

func (f *File) Close() error {
	f.File.Close()
	os.RemoveAll(f.dir)
	if f.onClose != nil {
		f.onClose()
	}
	return nil
}

type Orchestrator struct {
	fetcher    media.MetadataFetcher
	downloader media.MediaDownloader
	store      progress.Store
	tempDir    string
}

// New builds an Orchestrator. The fetcher resolves the title the served file
// is named after. store may be nil; tempDir "" means the OS default.
func New(fetcher media.MetadataFetcher, downloader media.MediaDownloader, store progress.Store, tempDir string) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, downloader: downloader, store: store, tempDir: tempDir}
}

func (o *Orchestrator) Download(ctx context.Context, req Request) (*File, error) {
	dir, err := os.MkdirTemp(o.tempDir, "mdownloader-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	snap := progress.Progress{ID: req.DownloadID, State: progress.StateExtracting, Mode: string(req.Mode)}
	o.publish(ctx, snap)

	fail := func(err error) (*File, error) {
		os.RemoveAll(dir)
		snap.State = progress.StateFailed
		snap.Error = err.Error()
		o.publish(ctx, snap)
		return nil, err
	}

	title, err := o.resolveTitle(ctx, req)
	if err != nil {
		return fail(err)
	}

	spec := media.DownloadSpec{
		URL:        req.URL,
		Dir:        dir,
		CookieFile: req.CookieFile,
		OnProgress: func(p media.Progress) {
			snap.State = progress.StateDownloading
			snap.Status = p.Status
			snap.DownloadedBytes = p.DownloadedBytes
			snap.TotalBytes = p.TotalBytes
			snap.Speed = p.Speed
			snap.ETA = p.ETA
			if p.Filename != "" {
				snap.Filename = filepath.Base(p.Filename)
			}
			o.publish(ctx, snap)
		},
	}
	if req.Mode == ModeAudio {
		spec.Format = audioSelector
		spec.ExtractAudio = true
		spec.AudioQuality = req.Bitrate
		if spec.AudioQuality == "" {
			spec.AudioQuality = DefaultBitrate
		}
	} else {
		spec.Format = videoFormat(req.FormatID)
	}

	file, err := o.materialize(ctx, spec, dir, req.Mode, title)
	if err != nil {
		return fail(err)
	}

	snap.State = progress.StateStreaming
	snap.Filename = file.Name
	snap.TotalBytes = file.Size
	snap.DownloadedBytes = file.Size
	o.publish(ctx, snap)

	cleanupCtx := context.WithoutCancel(ctx)
	file.onClose = func() {
		snap.State = progress.StateCleaned
		o.publish(cleanupCtx, snap)
	}
	return file, nil
}

// resolveTitle extracts the metadata up front and returns the sanitized name
// the file is served under. yt-dlp rewrites reserved characters in the names
// it writes, so the on-disk name cannot be used.
func (o *Orchestrator) resolveTitle(ctx context.Context, req Request) (string, error) {
	meta, err := o.fetcher.FetchMetadata(ctx, req.URL, media.FetchOptions{CookieFile: req.CookieFile})
	if err != nil {
		return "", err
	}
	if meta == nil {
		return "", media.ErrExtractionEmpty
	}
	return media.DownloadTitle(meta.Info.Title, string(req.Mode)), nil
}

func (o *Orchestrator) materialize(ctx context.Context, spec media.DownloadSpec, dir string, mode Mode, title string) (*File, error) {
	if err := o.downloader.Download(ctx, spec); err != nil {
		return nil, err
	}

	ext := ""
	missing := media.ErrNoFileProduced
	contentType := videoContentType
	if mode == ModeAudio {
		ext = ".mp3"
		missing = media.ErrAudioExtractionFailed
		contentType = audioContentType
	}

	path, err := pickFile(dir, ext)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, missing
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open download: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat download: %w", err)
	}

	fileExt := filepath.Ext(path)
	if mode == ModeAudio {
		fileExt = ".mp3"
	}

	return &File{
		File:        f,
		Name:        title + fileExt,
		ContentType: contentType,
		Size:        st.Size(),
		dir:         dir,
	}, nil
}

func videoFormat(formatID string) string {
	if formatID == "" || formatID == "best" {
		return videoSelector
	}
	return formatID
}

// pickFile returns the newest regular file in dir, ignoring partial
// artifacts. A non-empty ext restricts the candidates. Equal modification
// times fall back to name order.
func pickFile(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read download dir: %w", err)
	}

	type candidate struct {
		name string
		mod  time.Time
	}
	var files []candidate
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{name: name, mod: info.ModTime()})
	}
	if len(files) == 0 {
		return "", nil
	}
	if len(files) > 1 {
		log.Printf("⚠️  %d files produced in %s, picking the newest", len(files), dir)
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].mod.Equal(files[j].mod) {
			return files[i].mod.After(files[j].mod)
		}
		return files[i].name < files[j].name
	})
	return filepath.Join(dir, files[0].name), nil
}

func (o *Orchestrator) publish(ctx context.Context, p progress.Progress) {
	if o.store == nil || p.ID == "" {
		return
	}
	p.UpdatedAt = time.Now().UTC()
	if err := o.store.Set(ctx, p.ID, p); err != nil {
		log.Printf("⚠️  progress update for %s failed: %v", p.ID, err)
	}
}
