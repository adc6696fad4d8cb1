package punct

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type failingBackend struct{}

func (failingBackend) Restore(context.Context, string) (string, error) {
	return "", errors.New("model crashed")
}

type fixedBackend struct{ out string }

func (b fixedBackend) Restore(context.Context, string) (string, error) {
	return b.out, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRestoreFallsBackOnBackendError(t *testing.T) {
	r := NewRestorer(failingBackend{}, newLogger())
	if got := r.Restore(context.Background(), "hello there"); got != "hello there." {
		t.Fatalf("expected %q, got %q", "hello there.", got)
	}
}

func TestRestoreFallsBackWithoutBackend(t *testing.T) {
	r := NewRestorer(nil, newLogger())
	if got := r.Restore(context.Background(), "  hello there "); got != "hello there." {
		t.Fatalf("expected trimmed fallback, got %q", got)
	}
}

func TestRestoreTrimsBackendOutput(t *testing.T) {
	r := NewRestorer(fixedBackend{out: "  Hello, there.  "}, newLogger())
	if got := r.Restore(context.Background(), "hello there"); got != "Hello, there." {
		t.Fatalf("expected trimmed output, got %q", got)
	}
}

func TestMockBackendCapitalizesAndTerminates(t *testing.T) {
	r := NewRestorer(NewMockBackend(), newLogger())
	if got := r.Restore(context.Background(), "hello there"); got != "Hello there." {
		t.Fatalf("expected %q, got %q", "Hello there.", got)
	}
	if got := r.Restore(context.Background(), "really?"); got != "Really?" {
		t.Fatalf("expected existing terminator kept, got %q", got)
	}
}
