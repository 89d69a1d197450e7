// Package youtube resolves YouTube metadata natively, without spawning yt-dlp.
package youtube

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"mdownloader/internal/media"
)

// Fetcher implements media.MetadataFetcher on top of kkdai/youtube.
// Cookie files are not supported and are ignored.
type Fetcher struct {
	client *youtube.Client
}

func New(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{client: &youtube.Client{HTTPClient: httpClient}}
}

func (f *Fetcher) FetchMetadata(ctx context.Context, url string, _ media.FetchOptions) (*media.Metadata, error) {
	video, err := f.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, &media.ExtractionError{Msg: err.Error()}
	}
	if video == nil {
		return nil, media.ErrExtractionEmpty
	}
	return toMetadata(video, url), nil
}

func toMetadata(v *youtube.Video, requestURL string) *media.Metadata {
	thumbs := make([]media.Thumbnail, 0, len(v.Thumbnails))
	best := ""
	var bestArea uint
	for i, t := range v.Thumbnails {
		thumbs = append(thumbs, media.Thumbnail{
			ID:     strconv.Itoa(i),
			URL:    t.URL,
			Width:  int(t.Width),
			Height: int(t.Height),
		})
		if area := t.Width * t.Height; best == "" || area > bestArea {
			best, bestArea = t.URL, area
		}
	}

	info := media.VideoInfo{
		ID:          v.ID,
		Title:       v.Title,
		Uploader:    v.Author,
		Duration:    v.Duration.Seconds(),
		ViewCount:   int64(v.Views),
		Description: v.Description,
		Extractor:   "youtube",
		Thumbnail:   best,
		Thumbnails:  thumbs,
	}
	if v.ID != "" {
		info.WebpageURL = "https://www.youtube.com/watch?v=" + v.ID
	}
	if !v.PublishDate.IsZero() {
		info.UploadDate = v.PublishDate.Format("20060102")
	}

	formats := make([]media.RawFormat, 0, len(v.Formats))
	for _, f := range v.Formats {
		formats = append(formats, toRawFormat(f))
	}

	return &media.Metadata{
		Info:    media.NormalizeInfo(info, requestURL),
		Formats: formats,
	}
}

func toRawFormat(f youtube.Format) media.RawFormat {
	ext, codecs := parseMime(f.MimeType)
	hasVideo := f.Width > 0 || f.Height > 0
	hasAudio := f.AudioChannels > 0

	raw := media.RawFormat{
		FormatID: strconv.Itoa(f.ItagNo),
		VCodec:   media.CodecNone,
		ACodec:   media.CodecNone,
		Ext:      ext,
		Filesize: f.ContentLength,
	}

	// Muxed mime types list the video codec first.
	switch {
	case hasVideo && hasAudio:
		raw.VCodec = codecAt(codecs, 0)
		raw.ACodec = codecAt(codecs, 1)
	case hasVideo:
		raw.VCodec = codecAt(codecs, 0)
	case hasAudio:
		raw.ACodec = codecAt(codecs, 0)
	}

	if hasVideo {
		raw.Height = f.Height
		raw.Width = f.Width
		raw.FPS = float64(f.FPS)
	}
	if hasAudio && !hasVideo {
		bitrate := f.AverageBitrate
		if bitrate == 0 {
			bitrate = f.Bitrate
		}
		raw.ABR = float64(bitrate) / 1000
	}
	return raw
}

// parseMime turns `audio/mp4; codecs="mp4a.40.2"` into ("m4a", ["mp4a.40.2"]).
func parseMime(mimeType string) (string, []string) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", nil
	}
	kind, sub, _ := strings.Cut(mediaType, "/")
	ext := sub
	if kind == "audio" && sub == "mp4" {
		ext = "m4a"
	}

	var codecs []string
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, c)
		}
	}
	return ext, codecs
}

// codecAt never returns "none" for a stream that exists, so an unknown codec
// is still classified as present.
func codecAt(codecs []string, i int) string {
	if i < len(codecs) {
		return codecs[i]
	}
	return ""
}
