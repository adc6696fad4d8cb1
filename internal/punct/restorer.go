package punct

import (
	"context"
	"log/slog"
	"strings"
)

// Backend produces a punctuated rendering of raw transcript text.
type Backend interface {
	Restore(ctx context.Context, text string) (string, error)
}

// Restorer is the fail-open facade over a punctuation backend. Restore is a
// total function: when the backend is missing or errors, the raw text is
// trimmed and terminated with a period so the display always receives
// terminated text.
type Restorer struct {
	backend Backend
	logger  *slog.Logger
}

func NewRestorer(backend Backend, logger *slog.Logger) *Restorer {
	return &Restorer{
		backend: backend,
		logger:  logger.With(slog.String("component", "punctuation")),
	}
}

func (r *Restorer) Restore(ctx context.Context, text string) string {
	if r.backend == nil {
		return fallback(text)
	}
	out, err := r.backend.Restore(ctx, text)
	if err != nil {
		r.logger.Warn("punctuation restoration failed", slog.String("error", err.Error()))
		return fallback(text)
	}
	return strings.TrimSpace(out)
}

func fallback(text string) string {
	return strings.TrimSpace(text) + "."
}
