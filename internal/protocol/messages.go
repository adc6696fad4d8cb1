package protocol

import "time"

// UtteranceChunk is one unit of recognized speech from a single
// transcription cycle. Chunks are immutable once produced; Seq reflects
// arrival order within the session.
type UtteranceChunk struct {
	SessionID string    `json:"session_id"`
	Seq       int       `json:"seq"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptUpdate carries the punctuated rendering of the full session
// transcript. Consumers overwrite their transcript region on every update.
type TranscriptUpdate struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SentimentUpdate carries the sentiment classification of the latest chunk.
// Error is set instead of Confidence when classification failed.
type SentimentUpdate struct {
	SessionID  string    `json:"session_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence,omitempty"`
	Error      string    `json:"error,omitempty"`
	Rendered   string    `json:"rendered"`
	Timestamp  time.Time `json:"timestamp"`
}

// EmotionUpdate carries the dominant emotion selected for the latest chunk.
type EmotionUpdate struct {
	SessionID string    `json:"session_id"`
	Label     string    `json:"label"`
	Score     float64   `json:"score"`
	Rendered  string    `json:"rendered"`
	Timestamp time.Time `json:"timestamp"`
}

// AffectRecord is the event-store payload pairing a chunk's sentiment with
// its consistency-filtered dominant emotion.
type AffectRecord struct {
	SessionID    string    `json:"session_id"`
	Seq          int       `json:"seq"`
	Sentiment    string    `json:"sentiment"`
	Confidence   float64   `json:"confidence,omitempty"`
	Error        string    `json:"error,omitempty"`
	Emotion      string    `json:"emotion"`
	EmotionScore float64   `json:"emotion_score"`
	Timestamp    time.Time `json:"timestamp"`
}

// SessionControl starts or stops a live listening session. Both actions are
// idempotent.
type SessionControl struct {
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
}

// FileRequest asks for a single-pass analysis of an uploaded recording.
type FileRequest struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
}

// Notice surfaces a recoverable warning or error to the session's display.
type Notice struct {
	SessionID string    `json:"session_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ActionStart = "start"
	ActionStop  = "stop"
)

const (
	SubjectSessionControl = "session.control"
	SubjectFileRequest    = "session.file"
	SubjectTranscript     = "display.transcript"
	SubjectSentiment      = "display.sentiment"
	SubjectEmotion        = "display.emotion"
	SubjectNotice         = "display.notice"
)
