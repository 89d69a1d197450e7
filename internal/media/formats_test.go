package media

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	formats := []RawFormat{
		{FormatID: "18", VCodec: "avc1", ACodec: "mp4a", Height: 360},
		{FormatID: "140", VCodec: "none", ACodec: "mp4a", ABR: 129.5},
		{FormatID: "137", VCodec: "avc1", ACodec: "none", Height: 1080},
		{FormatID: "sb0", VCodec: "none", ACodec: "none"},
		{FormatID: "22", VCodec: "avc1", ACodec: "mp4a", Height: 720},
		{FormatID: "hls", VCodec: "", ACodec: ""},
	}

	video, audio := Classify(formats)

	wantVideo := []string{"18", "22", "hls"}
	if len(video) != len(wantVideo) {
		t.Fatalf("video candidates = %d, want %d", len(video), len(wantVideo))
	}
	for i, id := range wantVideo {
		if video[i].FormatID != id {
			t.Errorf("video[%d] = %q, want %q", i, video[i].FormatID, id)
		}
	}

	if len(audio) != 1 || audio[0].FormatID != "140" {
		t.Fatalf("audio candidates = %+v, want only 140", audio)
	}

	seen := map[string]bool{}
	for _, f := range video {
		seen[f.FormatID] = true
	}
	for _, f := range audio {
		if seen[f.FormatID] {
			t.Errorf("format %q classified as both video and audio", f.FormatID)
		}
	}
}

func TestRankVideo(t *testing.T) {
	candidates := []RawFormat{
		{FormatID: "a", VCodec: "avc1", ACodec: "mp4a", Height: 360, Ext: "mp4"},
		{FormatID: "b", VCodec: "avc1", ACodec: "mp4a", Height: 1080, FPS: 30, Ext: "mp4"},
		{FormatID: "c", VCodec: "vp9", ACodec: "opus", Height: 1080, FPS: 60, Ext: "webm"},
		{FormatID: "d", VCodec: "avc1", ACodec: "mp4a", Height: 0},
		{FormatID: "e", VCodec: "avc1", ACodec: "mp4a", Height: 720},
	}

	got := RankVideo(candidates)

	want := []struct {
		id      string
		quality string
	}{
		{"b", "1080p30"},
		{"e", "720p"},
		{"a", "360p"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d options, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].FormatID != w.id || got[i].Quality != w.quality {
			t.Errorf("option[%d] = %s/%s, want %s/%s", i, got[i].FormatID, got[i].Quality, w.id, w.quality)
		}
	}
	if got[1].Ext != "mp4" {
		t.Errorf("missing ext should default to mp4, got %q", got[1].Ext)
	}
}

func TestRankVideoTruncatesAndSorts(t *testing.T) {
	var candidates []RawFormat
	for h := 100; h <= 1500; h += 100 {
		candidates = append(candidates, RawFormat{FormatID: fmt.Sprint(h), VCodec: "avc1", ACodec: "mp4a", Height: h})
	}

	got := RankVideo(candidates)
	if len(got) != MaxVideoOptions {
		t.Fatalf("len = %d, want %d", len(got), MaxVideoOptions)
	}
	heights := map[int]bool{}
	for i, opt := range got {
		if heights[opt.Height] {
			t.Errorf("duplicate height %d", opt.Height)
		}
		heights[opt.Height] = true
		if i > 0 && got[i-1].Height < opt.Height {
			t.Errorf("not sorted descending at %d: %d < %d", i, got[i-1].Height, opt.Height)
		}
	}
	if got[0].Height != 1500 {
		t.Errorf("first height = %d, want 1500", got[0].Height)
	}
}

func TestRankAudio(t *testing.T) {
	candidates := []RawFormat{
		{FormatID: "249", VCodec: "none", ACodec: "opus", ABR: 50.5, Ext: "webm"},
		{FormatID: "140", VCodec: "none", ACodec: "mp4a", ABR: 128.0, Ext: "m4a"},
		{FormatID: "251", VCodec: "none", ACodec: "opus", ABR: 160.2, Ext: "webm"},
		{FormatID: "dup", VCodec: "none", ACodec: "mp4a", ABR: 128.0},
		{FormatID: "noabr", VCodec: "none", ACodec: "mp4a"},
	}

	got := RankAudio(candidates)

	want := []struct {
		id      string
		quality string
	}{
		{"251", "160kbps"},
		{"140", "128kbps"},
		{"249", "50kbps"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d options, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].FormatID != w.id || got[i].Quality != w.quality {
			t.Errorf("option[%d] = %s/%s, want %s/%s", i, got[i].FormatID, got[i].Quality, w.id, w.quality)
		}
	}
}

func TestRankAudioTruncates(t *testing.T) {
	var candidates []RawFormat
	for i := 1; i <= 9; i++ {
		candidates = append(candidates, RawFormat{FormatID: fmt.Sprint(i), VCodec: "none", ACodec: "opus", ABR: float64(i * 32)})
	}
	got := RankAudio(candidates)
	if len(got) != MaxAudioOptions {
		t.Fatalf("len = %d, want %d", len(got), MaxAudioOptions)
	}
	if got[0].ABR != 288 || got[len(got)-1].ABR != 128 {
		t.Errorf("unexpected range %v..%v", got[0].ABR, got[len(got)-1].ABR)
	}
}

func TestRankStableOnTies(t *testing.T) {
	// Heights are unique after dedup, so ties cannot occur; the first-seen
	// entry for a height must win even when a later one looks better.
	got := RankVideo([]RawFormat{
		{FormatID: "first", VCodec: "avc1", ACodec: "mp4a", Height: 480},
		{FormatID: "second", VCodec: "avc1", ACodec: "mp4a", Height: 480, FPS: 60},
	})
	if len(got) != 1 || got[0].FormatID != "first" {
		t.Fatalf("got %+v, want first-seen entry", got)
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"1080 at 30fps", videoLabel(1080, 30, ""), "1080p30"},
		{"720 no fps", videoLabel(720, 0, ""), "720p"},
		{"fractional fps", videoLabel(480, 29.97, ""), "480p29.97"},
		{"float fps kept as printed", videoLabel(1080, 30, "30.0"), "1080p30.0"},
		{"integer fps as printed", videoLabel(720, 60, "60"), "720p60"},
		{"128 kbps", audioLabel(128.0), "128kbps"},
		{"fractional bitrate truncates", audioLabel(129.87), "129kbps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestSynthesizeIfEmpty(t *testing.T) {
	ladder := SynthesizeIfEmpty(nil)
	want := []string{"320kbps", "256kbps", "192kbps", "128kbps"}
	if len(ladder) != len(want) {
		t.Fatalf("len = %d, want %d", len(ladder), len(want))
	}
	for i, q := range want {
		if ladder[i].Quality != q {
			t.Errorf("ladder[%d].Quality = %q, want %q", i, ladder[i].Quality, q)
		}
		if ladder[i].FormatID != BestAudioSelector || ladder[i].Ext != "mp3" {
			t.Errorf("ladder[%d] = %+v, want bestaudio/mp3", i, ladder[i])
		}
	}

	real := []AudioFormatOption{{FormatID: "140", Quality: "128kbps", ABR: 128}}
	got := SynthesizeIfEmpty(real)
	if len(got) != 1 || got[0].FormatID != "140" {
		t.Errorf("non-empty input changed: %+v", got)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	var video []VideoFormatOption
	for h := 1; h <= 14; h++ {
		video = append(video, VideoFormatOption{Height: h})
	}
	var audio []AudioFormatOption
	for i := 1; i <= 9; i++ {
		audio = append(audio, AudioFormatOption{ABR: float64(i)})
	}

	once := Assemble(VideoInfo{}, video, audio)
	twice := Assemble(VideoInfo{}, once.Formats.Video, once.Formats.Audio)

	if len(once.Formats.Video) != MaxVideoOptions || len(once.Formats.Audio) != MaxAudioOptions {
		t.Fatalf("first pass lengths = %d/%d", len(once.Formats.Video), len(once.Formats.Audio))
	}
	if len(twice.Formats.Video) != len(once.Formats.Video) || len(twice.Formats.Audio) != len(once.Formats.Audio) {
		t.Fatalf("second pass changed lengths: %d/%d", len(twice.Formats.Video), len(twice.Formats.Audio))
	}
	for i := range once.Formats.Video {
		if once.Formats.Video[i] != twice.Formats.Video[i] {
			t.Errorf("video[%d] changed", i)
		}
	}
	if !twice.Success {
		t.Error("payload should report success")
	}
}

func TestBuildPayloadFallback(t *testing.T) {
	meta := &Metadata{
		Info: VideoInfo{Title: "clip"},
		Formats: []RawFormat{
			{FormatID: "18", VCodec: "avc1", ACodec: "mp4a", Height: 360},
		},
	}
	payload := BuildPayload(meta)
	if len(payload.Formats.Video) != 1 {
		t.Fatalf("video = %+v", payload.Formats.Video)
	}
	if len(payload.Formats.Audio) != 4 || payload.Formats.Audio[0].Quality != "320kbps" {
		t.Fatalf("audio fallback missing: %+v", payload.Formats.Audio)
	}

	meta.Formats = append(meta.Formats, RawFormat{FormatID: "140", VCodec: "none", ACodec: "mp4a", ABR: 128})
	payload = BuildPayload(meta)
	for _, a := range payload.Formats.Audio {
		if a.FormatID == BestAudioSelector {
			t.Fatalf("fallback entry mixed with real audio: %+v", payload.Formats.Audio)
		}
	}
}

type stubFetcher struct {
	meta *Metadata
	err  error
}

func (s stubFetcher) FetchMetadata(context.Context, string, FetchOptions) (*Metadata, error) {
	return s.meta, s.err
}

func TestDescribe(t *testing.T) {
	if _, err := Describe(context.Background(), stubFetcher{}, "https://x.test/v", FetchOptions{}); !errors.Is(err, ErrExtractionEmpty) {
		t.Errorf("nil metadata: err = %v, want ErrExtractionEmpty", err)
	}

	boom := &ExtractionError{Msg: "ERROR: unsupported URL"}
	if _, err := Describe(context.Background(), stubFetcher{err: boom}, "https://x.test/v", FetchOptions{}); err != boom {
		t.Errorf("err = %v, want passthrough", err)
	}

	payload, err := Describe(context.Background(), stubFetcher{meta: &Metadata{Info: VideoInfo{Title: "ok"}}}, "https://x.test/v", FetchOptions{})
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}
	if !payload.Success || payload.Info.Title != "ok" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Formats.Video == nil {
		t.Error("video list should be an empty slice, not nil")
	}
}
