package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tonallabs/tonal-core/internal/affect"
	"github.com/tonallabs/tonal-core/internal/config"
	"github.com/tonallabs/tonal-core/internal/listen"
	"github.com/tonallabs/tonal-core/internal/punct"
)

// Batch is the non-streaming counterpart to Controller: one uploaded
// recording, one pass through recognition, punctuation, and affect
// analysis. No accumulation, no state machine.
type Batch struct {
	recognizer config.RecognizerConfig
	source     listen.Source
	restorer   *punct.Restorer
	analyzer   *affect.Analyzer
	sink       Sink
	logger     *slog.Logger
}

func NewBatch(cfg config.Config, source listen.Source, restorer *punct.Restorer,
	analyzer *affect.Analyzer, sink Sink, logger *slog.Logger) *Batch {
	return &Batch{
		recognizer: cfg.Recognizer,
		source:     source,
		restorer:   restorer,
		analyzer:   analyzer,
		sink:       sink,
		logger:     logger.With(slog.String("component", "batch")),
	}
}

// ProcessFile analyzes one PCM wave recording. Every failure is caught and
// rendered as a notice on the session's display; it never aborts the host.
func (b *Batch) ProcessFile(ctx context.Context, sessionID, path string) {
	audio, err := listen.ReadFile(path)
	if err != nil {
		b.logger.Warn("failed to read audio file", slogError(err))
		b.sink.Notice(sessionID, "error", "error processing the file: "+err.Error())
		return
	}

	text, err := b.source.Recognize(ctx, audio, b.recognizer.Language)
	if err != nil {
		switch {
		case errors.Is(err, listen.ErrUnintelligible):
			b.sink.Notice(sessionID, "warn", "could not understand audio from file")
		case errors.Is(err, listen.ErrUnavailable):
			b.sink.Notice(sessionID, "error", "could not request results, check internet connection: "+err.Error())
		default:
			b.sink.Notice(sessionID, "error", "error processing the file: "+err.Error())
		}
		return
	}

	punctuated := b.restorer.Restore(ctx, text)
	b.sink.SetTranscript(sessionID, punctuated)

	sentiment, dominant := b.analyzer.Analyze(ctx, text)
	b.sink.SetSentiment(sessionID, sentiment)
	b.sink.SetEmotion(sessionID, dominant)
}
