package media

import "errors"

var (
	// ErrExtractionEmpty means the extractor ran but produced no result,
	// usually a private, removed or login-gated video.
	ErrExtractionEmpty = errors.New("extractor returned no data")

	// ErrNoFileProduced means a video download finished without leaving a file.
	ErrNoFileProduced = errors.New("download produced no file")

	// ErrAudioExtractionFailed means an audio download left no .mp3 behind.
	ErrAudioExtractionFailed = errors.New("audio extraction produced no mp3")
)

// ExtractionError carries the extractor's own failure message so it can be
// passed through to the caller.
type ExtractionError struct {
	Msg string
}

func (e *ExtractionError) Error() string {
	return e.Msg
}
