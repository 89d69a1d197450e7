// Package media holds the format-selection and response-shaping rules that sit
// between an extraction backend and the HTTP surface.
package media

// CodecNone is the sentinel extractors use for a stream that carries no
// audio or no video.
const CodecNone = "none"

// RawFormat is one stream variant as reported by the extractor. Zero numeric
// values mean the extractor did not report the field.
type RawFormat struct {
	FormatID string  `json:"format_id"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
	Height   int     `json:"height"`
	Width    int     `json:"width"`
	FPS      float64 `json:"fps"`
	ABR      float64 `json:"abr"`
	Ext      string  `json:"ext"`
	Filesize int64   `json:"filesize"`

	// FPSText is the frame rate exactly as the extractor printed it
	// ("30.0" stays "30.0"). Empty means format FPS instead.
	FPSText string `json:"-"`
}

// Thumbnail is one thumbnail variant of the source media.
type Thumbnail struct {
	ID         string `json:"id,omitempty"`
	URL        string `json:"url"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

// VideoInfo is the normalized metadata snapshot returned to callers.
type VideoInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Uploader    string      `json:"uploader"`
	Duration    float64     `json:"duration"`
	ViewCount   int64       `json:"view_count"`
	LikeCount   int64       `json:"like_count"`
	Description string      `json:"description"`
	UploadDate  string      `json:"upload_date"`
	Extractor   string      `json:"extractor"`
	WebpageURL  string      `json:"webpage_url"`
	Thumbnail   string      `json:"thumbnail"`
	Thumbnails  []Thumbnail `json:"thumbnails"`
}

// Metadata is what a MetadataFetcher hands back for a single URL.
type Metadata struct {
	Info    VideoInfo
	Formats []RawFormat
}

// VideoFormatOption is one selectable video quality tier.
type VideoFormatOption struct {
	FormatID string  `json:"format_id"`
	Quality  string  `json:"quality"`
	Height   int     `json:"height"`
	Width    int     `json:"width,omitempty"`
	Ext      string  `json:"ext"`
	Filesize int64   `json:"filesize,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
}

// AudioFormatOption is one selectable audio bitrate tier.
type AudioFormatOption struct {
	FormatID string  `json:"format_id"`
	Quality  string  `json:"quality"`
	ABR      float64 `json:"abr,omitempty"`
	Ext      string  `json:"ext"`
	Filesize int64   `json:"filesize,omitempty"`
	ACodec   string  `json:"acodec,omitempty"`
}

// FormatSet groups the ranked options sent to the client.
type FormatSet struct {
	Video []VideoFormatOption `json:"video"`
	Audio []AudioFormatOption `json:"audio"`
}

// ResponsePayload is the body of a successful info lookup.
type ResponsePayload struct {
	Success bool      `json:"success"`
	Info    VideoInfo `json:"info"`
	Formats FormatSet `json:"formats"`
}
