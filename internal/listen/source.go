package listen

import (
	"context"
	"errors"
	"time"
)

// Audio is one captured PCM segment (16-bit little-endian samples).
type Audio struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Failure taxonomy for the transcription source. Match with errors.Is;
// wrapped variants may carry backend detail.
var (
	// ErrNoSpeech means the listen window elapsed without speech. Not an
	// error condition for the streaming loop.
	ErrNoSpeech = errors.New("no speech detected")
	// ErrUnintelligible means audio was present but could not be understood.
	ErrUnintelligible = errors.New("could not understand audio")
	// ErrUnavailable means the recognition backend could not be reached.
	ErrUnavailable = errors.New("recognition service unavailable")
)

// Source abstracts audio capture and speech recognition. Listen blocks for
// at most the given timeout; Recognize turns one audio segment into text.
type Source interface {
	Listen(ctx context.Context, timeout time.Duration) (Audio, error)
	Recognize(ctx context.Context, audio Audio, language string) (string, error)
}
