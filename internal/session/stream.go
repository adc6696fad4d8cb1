package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tonallabs/tonal-core/internal/affect"
	"github.com/tonallabs/tonal-core/internal/config"
	"github.com/tonallabs/tonal-core/internal/eventstore"
	"github.com/tonallabs/tonal-core/internal/listen"
	"github.com/tonallabs/tonal-core/internal/protocol"
	"github.com/tonallabs/tonal-core/internal/punct"
	"github.com/tonallabs/tonal-core/internal/transcript"
)

type stepResult int

const (
	stepOK stepResult = iota
	stepUnavailable
	stepFatal
)

// Controller runs the live listening loop for one session. It is a two
// state machine: idle until Start, listening until Stop or an unexpected
// failure. The transcript buffer is confined to this controller; the loop
// is the only writer.
type Controller struct {
	id         string
	recognizer config.RecognizerConfig
	session    config.SessionConfig
	source     listen.Source
	restorer   *punct.Restorer
	analyzer   *affect.Analyzer
	sink       Sink
	store      *eventstore.Store
	metrics    *metrics
	logger     *slog.Logger

	mu        sync.Mutex
	listening bool
	cancel    context.CancelFunc
	done      chan struct{}

	// Loop-confined state; only touched by Start (before the loop runs)
	// and the loop goroutine itself.
	buffer transcript.Buffer
	seq    int
}

func NewController(id string, cfg config.Config, source listen.Source, restorer *punct.Restorer,
	analyzer *affect.Analyzer, sink Sink, store *eventstore.Store, m *metrics, logger *slog.Logger) *Controller {
	return &Controller{
		id:         id,
		recognizer: cfg.Recognizer,
		session:    cfg.Session,
		source:     source,
		restorer:   restorer,
		analyzer:   analyzer,
		sink:       sink,
		store:      store,
		metrics:    m,
		logger:     logger.With(slog.String("component", "session"), slog.String("session_id", id)),
	}
}

// Listening reports whether the controller is in the LISTENING state.
func (c *Controller) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Start transitions IDLE -> LISTENING: resets the transcript buffer, clears
// the display regions, and launches the loop. Starting an already-listening
// session is a no-op.
func (c *Controller) Start(parent context.Context) {
	c.mu.Lock()
	if c.listening {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.listening = true
	c.buffer.Reset()
	c.seq = 0
	c.mu.Unlock()

	c.sink.Clear(c.id)
	c.logger.Info("session listening")
	go c.run(ctx, cancel, done)
}

// Stop transitions LISTENING -> IDLE. The cancellation is cooperative: it
// takes effect at the top of the next loop iteration, never
// mid-classification. Stopping an idle session is a no-op. The buffer is
// retained until the next Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	<-done
	c.logger.Info("session stopped")
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	// Release the loop context on every exit path, fatal ones included, so
	// restarts do not accumulate live children of the service context.
	defer cancel()
	defer close(done)
	defer func() {
		c.mu.Lock()
		c.listening = false
		c.mu.Unlock()
	}()

	pause := time.Duration(c.session.PauseMS) * time.Millisecond
	maxBackoff := time.Duration(c.session.MaxBackoffMS) * time.Millisecond
	var backoff time.Duration

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch c.step(ctx) {
		case stepFatal:
			return
		case stepUnavailable:
			backoff = nextBackoff(backoff, maxBackoff)
		case stepOK:
			backoff = 0
		}

		if !sleepCtx(ctx, pause+backoff) {
			return
		}
	}
}

// nextBackoff doubles the unavailability pause, starting at 100ms and
// capped at max.
func nextBackoff(current, max time.Duration) time.Duration {
	if current == 0 {
		current = 100 * time.Millisecond
	} else {
		current *= 2
	}
	if current > max {
		current = max
	}
	return current
}

// step runs one loop iteration: a bounded-timeout listen, recognition of
// the captured segment, punctuation of the full accumulated transcript, and
// affect analysis of the new chunk only.
func (c *Controller) step(ctx context.Context) stepResult {
	timeout := time.Duration(c.recognizer.ListenTimeoutMS) * time.Millisecond

	audio, err := c.source.Listen(ctx, timeout)
	if err != nil {
		return c.handleSourceError(ctx, err)
	}

	text, err := c.source.Recognize(ctx, audio, c.recognizer.Language)
	if err != nil {
		return c.handleSourceError(ctx, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return stepOK
	}

	c.buffer.Append(text)
	c.seq++
	c.metrics.chunkProcessed(ctx, c.id)

	punctuated := c.restorer.Restore(ctx, c.buffer.Render())
	c.sink.SetTranscript(c.id, punctuated)

	sentiment, dominant := c.analyzer.Analyze(ctx, text)
	if sentiment.Failed() || dominant.Label == affect.LabelError {
		c.metrics.classifierFailure(ctx, c.id)
	}
	c.sink.SetSentiment(c.id, sentiment)
	c.sink.SetEmotion(c.id, dominant)

	c.record(ctx, text, sentiment, dominant)
	return stepOK
}

func (c *Controller) handleSourceError(ctx context.Context, err error) stepResult {
	if ctx.Err() != nil {
		return stepOK
	}
	switch {
	case errors.Is(err, listen.ErrNoSpeech):
		return stepOK
	case errors.Is(err, listen.ErrUnintelligible):
		c.metrics.recognitionFailure(ctx, c.id)
		c.logger.Warn("could not understand audio")
		c.sink.Notice(c.id, "warn", "could not understand audio")
		return stepOK
	case errors.Is(err, listen.ErrUnavailable):
		c.metrics.recognitionFailure(ctx, c.id)
		c.logger.Warn("recognition service unavailable", slogError(err))
		c.sink.Notice(c.id, "error", "could not request results, check internet connection: "+err.Error())
		return stepUnavailable
	default:
		c.logger.Error("unexpected session error", slogError(err))
		c.sink.Notice(c.id, "error", "an unexpected error occurred: "+err.Error())
		return stepFatal
	}
}

// record appends the chunk and its affect results to the event timeline.
// Best-effort: storage failures never interrupt the loop.
func (c *Controller) record(ctx context.Context, text string, sentiment affect.SentimentResult, dominant affect.Dominant) {
	if c.store == nil {
		return
	}
	now := time.Now().UTC()
	chunk, err := json.Marshal(protocol.UtteranceChunk{SessionID: c.id, Seq: c.seq, Text: text, Timestamp: now})
	if err == nil {
		err = c.store.AppendEvent(ctx, eventstore.Event{SessionID: c.id, Type: "utterance", Payload: chunk})
	}
	if err != nil {
		c.logger.Warn("failed to record utterance", slogError(err))
		return
	}
	record, err := json.Marshal(protocol.AffectRecord{
		SessionID:    c.id,
		Seq:          c.seq,
		Sentiment:    sentiment.Label,
		Confidence:   sentiment.Confidence,
		Error:        sentiment.Err,
		Emotion:      dominant.Label,
		EmotionScore: dominant.Score,
		Timestamp:    now,
	})
	if err == nil {
		err = c.store.AppendEvent(ctx, eventstore.Event{SessionID: c.id, Type: "affect", Payload: record})
	}
	if err != nil {
		c.logger.Warn("failed to record affect", slogError(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
