package session

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the session-level counters. A nil receiver is a no-op so
// controllers constructed in tests need no meter.
type metrics struct {
	chunks              metric.Int64Counter
	recognitionFailures metric.Int64Counter
	classifierFailures  metric.Int64Counter
}

func newMetrics(logger *slog.Logger) *metrics {
	meter := otel.Meter("tonal/session")
	m := &metrics{}
	var err error
	if m.chunks, err = meter.Int64Counter("session.chunks_processed"); err != nil {
		logger.Warn("failed to create chunk counter", slogError(err))
		return nil
	}
	if m.recognitionFailures, err = meter.Int64Counter("session.recognition_failures"); err != nil {
		logger.Warn("failed to create recognition failure counter", slogError(err))
		return nil
	}
	if m.classifierFailures, err = meter.Int64Counter("session.classifier_failures"); err != nil {
		logger.Warn("failed to create classifier failure counter", slogError(err))
		return nil
	}
	return m
}

func (m *metrics) chunkProcessed(ctx context.Context, sessionID string) {
	if m == nil {
		return
	}
	m.chunks.Add(ctx, 1, metric.WithAttributes(attribute.String("session_id", sessionID)))
}

func (m *metrics) recognitionFailure(ctx context.Context, sessionID string) {
	if m == nil {
		return
	}
	m.recognitionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("session_id", sessionID)))
}

func (m *metrics) classifierFailure(ctx context.Context, sessionID string) {
	if m == nil {
		return
	}
	m.classifierFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("session_id", sessionID)))
}
