package media

import (
	"context"
	"sort"
	"strconv"
)

const (
	MaxVideoOptions = 10
	MaxAudioOptions = 6

	// BestAudioSelector asks the downloader for the best audio it can find.
	BestAudioSelector = "bestaudio"
)

var fallbackBitrates = []int{320, 256, 192, 128}

// Classify splits raw formats into muxed video candidates and audio-only
// candidates. Video-only and stream-less entries are dropped. Input order is
// kept in both buckets.
func Classify(formats []RawFormat) (video, audio []RawFormat) {
	for _, f := range formats {
		hasVideo := f.VCodec != CodecNone
		hasAudio := f.ACodec != CodecNone
		switch {
		case hasVideo && hasAudio:
			video = append(video, f)
		case hasAudio:
			audio = append(audio, f)
		}
	}
	return video, audio
}

// RankVideo keeps the first format seen for every height, then orders the
// result tallest first.
func RankVideo(candidates []RawFormat) []VideoFormatOption {
	seen := make(map[int]bool)
	out := make([]VideoFormatOption, 0, len(candidates))
	for _, f := range candidates {
		if f.Height <= 0 || seen[f.Height] {
			continue
		}
		seen[f.Height] = true

		ext := f.Ext
		if ext == "" {
			ext = "mp4"
		}
		out = append(out, VideoFormatOption{
			FormatID: f.FormatID,
			Quality:  videoLabel(f.Height, f.FPS, f.FPSText),
			Height:   f.Height,
			Width:    f.Width,
			Ext:      ext,
			Filesize: f.Filesize,
			FPS:      f.FPS,
			VCodec:   f.VCodec,
			ACodec:   f.ACodec,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Height > out[j].Height
	})
	return truncateVideo(out)
}

// RankAudio keeps the first format seen for every average bitrate, then
// orders the result highest bitrate first.
func RankAudio(candidates []RawFormat) []AudioFormatOption {
	seen := make(map[float64]bool)
	out := make([]AudioFormatOption, 0, len(candidates))
	for _, f := range candidates {
		if f.ABR <= 0 || seen[f.ABR] {
			continue
		}
		seen[f.ABR] = true

		ext := f.Ext
		if ext == "" {
			ext = "mp3"
		}
		out = append(out, AudioFormatOption{
			FormatID: f.FormatID,
			Quality:  audioLabel(f.ABR),
			ABR:      f.ABR,
			Ext:      ext,
			Filesize: f.Filesize,
			ACodec:   f.ACodec,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ABR > out[j].ABR
	})
	return truncateAudio(out)
}

// SynthesizeIfEmpty returns the fixed mp3 bitrate ladder when no real
// audio-only formats survived ranking. Non-empty input is returned as is.
func SynthesizeIfEmpty(audio []AudioFormatOption) []AudioFormatOption {
	if len(audio) > 0 {
		return audio
	}
	ladder := make([]AudioFormatOption, 0, len(fallbackBitrates))
	for _, kbps := range fallbackBitrates {
		ladder = append(ladder, AudioFormatOption{
			FormatID: BestAudioSelector,
			Quality:  strconv.Itoa(kbps) + "kbps",
			Ext:      "mp3",
		})
	}
	return ladder
}

// Assemble builds the outgoing payload. The option lists are capped here as
// well, so an already capped list comes back unchanged.
func Assemble(info VideoInfo, video []VideoFormatOption, audio []AudioFormatOption) ResponsePayload {
	if video == nil {
		video = []VideoFormatOption{}
	}
	if audio == nil {
		audio = []AudioFormatOption{}
	}
	return ResponsePayload{
		Success: true,
		Info:    info,
		Formats: FormatSet{
			Video: truncateVideo(video),
			Audio: truncateAudio(audio),
		},
	}
}

// BuildPayload runs classification, ranking and the audio fallback over the
// fetched metadata.
func BuildPayload(meta *Metadata) ResponsePayload {
	video, audio := Classify(meta.Formats)
	return Assemble(meta.Info, RankVideo(video), SynthesizeIfEmpty(RankAudio(audio)))
}

// Describe fetches metadata for url and shapes it into a ResponsePayload.
func Describe(ctx context.Context, fetcher MetadataFetcher, url string, opts FetchOptions) (ResponsePayload, error) {
	meta, err := fetcher.FetchMetadata(ctx, url, opts)
	if err != nil {
		return ResponsePayload{}, err
	}
	if meta == nil {
		return ResponsePayload{}, ErrExtractionEmpty
	}
	return BuildPayload(meta), nil
}

// videoLabel appends the raw frame rate with no separator, so 1080/30 reads
// "1080p30" and 1080/30.0 reads "1080p30.0". Clients already depend on that
// shape.
func videoLabel(height int, fps float64, fpsText string) string {
	label := strconv.Itoa(height) + "p"
	if fps == 0 {
		return label
	}
	if fpsText != "" {
		return label + fpsText
	}
	return label + strconv.FormatFloat(fps, 'f', -1, 64)
}

func audioLabel(abr float64) string {
	return strconv.Itoa(int(abr)) + "kbps"
}

func truncateVideo(v []VideoFormatOption) []VideoFormatOption {
	if len(v) > MaxVideoOptions {
		return v[:MaxVideoOptions]
	}
	return v
}

func truncateAudio(a []AudioFormatOption) []AudioFormatOption {
	if len(a) > MaxAudioOptions {
		return a[:MaxAudioOptions]
	}
	return a
}
