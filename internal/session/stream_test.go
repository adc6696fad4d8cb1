package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tonallabs/tonal-core/internal/affect"
	"github.com/tonallabs/tonal-core/internal/config"
	"github.com/tonallabs/tonal-core/internal/listen"
	"github.com/tonallabs/tonal-core/internal/punct"
)

type recordingSink struct {
	mu         sync.Mutex
	transcript string
	sentiment  affect.SentimentResult
	emotion    affect.Dominant
	notices    []string
	cleared    int
}

func (r *recordingSink) SetTranscript(_ string, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcript = text
}

func (r *recordingSink) SetSentiment(_ string, result affect.SentimentResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sentiment = result
}

func (r *recordingSink) SetEmotion(_ string, dominant affect.Dominant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emotion = dominant
}

func (r *recordingSink) Notice(_ string, level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, level+": "+message)
}

func (r *recordingSink) Clear(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcript = ""
	r.sentiment = affect.SentimentResult{}
	r.emotion = affect.Dominant{}
	r.cleared++
}

type stubClassifier struct {
	sentiment affect.Score
	emotions  affect.Distribution
}

func (s stubClassifier) ClassifySentiment(context.Context, string) (affect.Score, error) {
	return s.sentiment, nil
}

func (s stubClassifier) ClassifyEmotions(context.Context, string) (affect.Distribution, error) {
	return s.emotions, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestController(classifier affect.Classifier, sink Sink, events ...listen.Event) *Controller {
	cfg := config.Default()
	cfg.Session.PauseMS = 1
	cfg.Recognizer.ListenTimeoutMS = 10
	logger := newLogger()
	return NewController("test-session", cfg,
		listen.NewMockSource(events...),
		punct.NewRestorer(nil, logger),
		affect.NewAnalyzer(classifier, logger),
		sink, nil, nil, logger)
}

func TestStepPublishesTranscriptAndAffect(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(stubClassifier{
		sentiment: affect.Score{Label: affect.LabelPositive, Value: 0.95},
		emotions: affect.Distribution{
			{Label: "joy", Value: 0.8},
			{Label: "anger", Value: 0.1},
		},
	}, sink, listen.Event{Text: "I am so happy today"})

	if got := c.step(context.Background()); got != stepOK {
		t.Fatalf("expected stepOK, got %v", got)
	}
	if sink.transcript != "I am so happy today." {
		t.Fatalf("unexpected transcript %q", sink.transcript)
	}
	if sink.sentiment.Label != affect.LabelPositive || sink.sentiment.Confidence != 0.95 {
		t.Fatalf("unexpected sentiment %+v", sink.sentiment)
	}
	if sink.emotion.Label != "joy" || sink.emotion.Score != 0.8 {
		t.Fatalf("unexpected emotion %+v", sink.emotion)
	}
}

func TestStepPunctuatesFullBufferButClassifiesChunk(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(stubClassifier{
		sentiment: affect.Score{Label: affect.LabelNeutral, Value: 0.6},
		emotions:  affect.Distribution{{Label: "neutral", Value: 0.9}},
	}, sink, listen.Event{Text: "hello"}, listen.Event{Text: "world"})

	ctx := context.Background()
	c.step(ctx)
	c.step(ctx)
	if sink.transcript != "hello world." {
		t.Fatalf("expected accumulated transcript, got %q", sink.transcript)
	}
	if c.buffer.Chunks() != 2 {
		t.Fatalf("expected 2 chunks, got %d", c.buffer.Chunks())
	}
}

func TestStepMismatchedPolarityYieldsNeutral(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(stubClassifier{
		sentiment: affect.Score{Label: affect.LabelPositive, Value: 0.9},
		emotions: affect.Distribution{
			{Label: "anger", Value: 0.9},
			{Label: "sadness", Value: 0.7},
		},
	}, sink, listen.Event{Text: "strange mix"})

	c.step(context.Background())
	if sink.emotion.Label != "neutral" || sink.emotion.Score != 0 {
		t.Fatalf("expected neutral/0, got %+v", sink.emotion)
	}
}

func TestUnintelligibleKeepsPreviousAffect(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(stubClassifier{
		sentiment: affect.Score{Label: affect.LabelPositive, Value: 0.95},
		emotions:  affect.Distribution{{Label: "joy", Value: 0.8}},
	}, sink,
		listen.Event{Text: "I am so happy today"},
		listen.Event{RecognizeErr: listen.ErrUnintelligible},
	)

	ctx := context.Background()
	c.step(ctx)
	previous := sink.sentiment

	if got := c.step(ctx); got != stepOK {
		t.Fatalf("unintelligible audio must not stop the loop, got %v", got)
	}
	if sink.sentiment != previous {
		t.Fatalf("previous sentiment should remain displayed, got %+v", sink.sentiment)
	}
	if len(sink.notices) != 1 || sink.notices[0] != "warn: could not understand audio" {
		t.Fatalf("expected warning notice, got %v", sink.notices)
	}
}

func TestUnavailableContinuesWithNotice(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(stubClassifier{}, sink,
		listen.Event{ListenErr: listen.ErrUnavailable},
	)

	if got := c.step(context.Background()); got != stepUnavailable {
		t.Fatalf("expected stepUnavailable, got %v", got)
	}
	if len(sink.notices) != 1 {
		t.Fatalf("expected error notice, got %v", sink.notices)
	}
}

func TestUnexpectedErrorIsFatalToLoop(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(stubClassifier{}, sink,
		listen.Event{ListenErr: errors.New("boom")},
	)

	if got := c.step(context.Background()); got != stepFatal {
		t.Fatalf("expected stepFatal, got %v", got)
	}
}

func TestStartResetsBufferAndClearsSinks(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(stubClassifier{
		sentiment: affect.Score{Label: affect.LabelNeutral, Value: 0.6},
		emotions:  affect.Distribution{{Label: "neutral", Value: 0.9}},
	}, sink, listen.Event{Text: "a"})

	ctx := context.Background()
	c.step(ctx)
	if c.buffer.Render() != "a" {
		t.Fatalf("expected buffered chunk, got %q", c.buffer.Render())
	}

	c.Start(ctx)
	if !c.Listening() {
		t.Fatal("expected listening state after start")
	}
	c.Start(ctx) // idempotent
	c.Stop()
	c.Stop() // idempotent
	if c.Listening() {
		t.Fatal("expected idle state after stop")
	}

	if got := c.buffer.Render(); got != "" {
		t.Fatalf("expected empty buffer after restart, got %q", got)
	}
	if sink.cleared == 0 {
		t.Fatal("expected sinks cleared on start")
	}
}

// ctxCaptureSource records the loop context handed to Listen and always
// fails with an unexpected error.
type ctxCaptureSource struct {
	mu   sync.Mutex
	last context.Context
}

func (s *ctxCaptureSource) Listen(ctx context.Context, _ time.Duration) (listen.Audio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = ctx
	return listen.Audio{}, errors.New("device unplugged")
}

func (s *ctxCaptureSource) Recognize(context.Context, listen.Audio, string) (string, error) {
	return "", nil
}

func TestFatalExitReleasesLoopContext(t *testing.T) {
	src := &ctxCaptureSource{}
	cfg := config.Default()
	cfg.Session.PauseMS = 1
	logger := newLogger()
	c := NewController("test-session", cfg, src,
		punct.NewRestorer(nil, logger),
		affect.NewAnalyzer(stubClassifier{}, logger),
		&recordingSink{}, nil, nil, logger)

	c.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		src.mu.Lock()
		loopCtx := src.last
		src.mu.Unlock()
		if loopCtx != nil && loopCtx.Err() != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("loop context still live after fatal exit")
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	max := 500 * time.Millisecond

	b := nextBackoff(0, max)
	if b != 100*time.Millisecond {
		t.Fatalf("expected 100ms base, got %v", b)
	}
	if b = nextBackoff(b, max); b != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", b)
	}
	if b = nextBackoff(b, max); b != 400*time.Millisecond {
		t.Fatalf("expected 400ms, got %v", b)
	}
	if b = nextBackoff(b, max); b != max {
		t.Fatalf("expected cap at %v, got %v", max, b)
	}
	if b = nextBackoff(b, max); b != max {
		t.Fatalf("expected to stay at cap, got %v", b)
	}
}

func TestStopTakesEffectAtLoopTop(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(stubClassifier{}, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	c.Stop()
	if c.Listening() {
		t.Fatal("expected idle state after stop")
	}
}

func TestFormatting(t *testing.T) {
	got := FormatSentiment(affect.SentimentResult{Label: affect.LabelPositive, Confidence: 0.95})
	if got != "Sentiment: POSITIVE (0.95)" {
		t.Fatalf("unexpected rendering %q", got)
	}
	got = FormatSentiment(affect.SentimentResult{Label: affect.LabelError, Err: "could not analyze sentiment: model gone"})
	if got != "Sentiment: Error (could not analyze sentiment: model gone)" {
		t.Fatalf("unexpected rendering %q", got)
	}
	got = FormatEmotion(affect.Dominant{Label: "joy", Score: 0.8})
	if got != "Emotion: Joy (0.80)" {
		t.Fatalf("unexpected rendering %q", got)
	}
}
