package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/tonallabs/tonal-core/internal/affect"
	"github.com/tonallabs/tonal-core/internal/bus"
	"github.com/tonallabs/tonal-core/internal/protocol"
)

// Sink receives the three per-session display regions plus notices. Each
// Set call overwrites the region's previous value; Clear blanks all three.
type Sink interface {
	SetTranscript(sessionID, text string)
	SetSentiment(sessionID string, result affect.SentimentResult)
	SetEmotion(sessionID string, dominant affect.Dominant)
	Notice(sessionID, level, message string)
	Clear(sessionID string)
}

// FormatSentiment renders the sentiment display line.
func FormatSentiment(r affect.SentimentResult) string {
	if r.Failed() {
		return fmt.Sprintf("Sentiment: %s (%s)", r.Label, r.Err)
	}
	return fmt.Sprintf("Sentiment: %s (%.2f)", r.Label, r.Confidence)
}

// FormatEmotion renders the emotion display line.
func FormatEmotion(d affect.Dominant) string {
	return fmt.Sprintf("Emotion: %s (%.2f)", capitalize(d.Label), d.Score)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// BusSink publishes display updates on the message bus for downstream UI
// consumers.
type BusSink struct {
	bus    *bus.Client
	logger *slog.Logger
}

func NewBusSink(busClient *bus.Client, logger *slog.Logger) *BusSink {
	return &BusSink{
		bus:    busClient,
		logger: logger.With(slog.String("component", "sink")),
	}
}

func (s *BusSink) publish(subject string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("failed to marshal display update", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(subject, data); err != nil {
		s.logger.Warn("failed to publish display update", slogError(err))
	}
}

func (s *BusSink) SetTranscript(sessionID, text string) {
	s.publish(protocol.SubjectTranscript, protocol.TranscriptUpdate{
		SessionID: sessionID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
}

func (s *BusSink) SetSentiment(sessionID string, result affect.SentimentResult) {
	s.publish(protocol.SubjectSentiment, protocol.SentimentUpdate{
		SessionID:  sessionID,
		Label:      result.Label,
		Confidence: result.Confidence,
		Error:      result.Err,
		Rendered:   FormatSentiment(result),
		Timestamp:  time.Now().UTC(),
	})
}

func (s *BusSink) SetEmotion(sessionID string, dominant affect.Dominant) {
	s.publish(protocol.SubjectEmotion, protocol.EmotionUpdate{
		SessionID: sessionID,
		Label:     dominant.Label,
		Score:     dominant.Score,
		Rendered:  FormatEmotion(dominant),
		Timestamp: time.Now().UTC(),
	})
}

func (s *BusSink) Notice(sessionID, level, message string) {
	s.publish(protocol.SubjectNotice, protocol.Notice{
		SessionID: sessionID,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (s *BusSink) Clear(sessionID string) {
	now := time.Now().UTC()
	s.publish(protocol.SubjectTranscript, protocol.TranscriptUpdate{SessionID: sessionID, Timestamp: now})
	s.publish(protocol.SubjectSentiment, protocol.SentimentUpdate{SessionID: sessionID, Timestamp: now})
	s.publish(protocol.SubjectEmotion, protocol.EmotionUpdate{SessionID: sessionID, Timestamp: now})
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
