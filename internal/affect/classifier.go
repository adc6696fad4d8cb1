package affect

import "context"

// Sentiment labels produced by classifier backends. LabelError marks a
// failed classification and is only ever set by the Analyzer.
const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
	LabelNeutral  = "NEUTRAL"
	LabelError    = "Error"
)

// Score is one labelled confidence value from a classifier.
type Score struct {
	Label string  `json:"label"`
	Value float64 `json:"score"`
}

// Distribution holds per-emotion scores in classifier output order. The
// order matters: dominant-emotion ties resolve to the earliest entry, so a
// map would make selection nondeterministic.
type Distribution []Score

// SentimentResult is a tagged result: on success Label and Confidence hold
// the prediction; on failure Label is LabelError and Err carries the
// human-readable message. Confidence never doubles as an error slot.
type SentimentResult struct {
	Label      string
	Confidence float64
	Err        string
}

// Failed reports whether the result is the error variant.
func (r SentimentResult) Failed() bool { return r.Err != "" }

// Dominant is the single emotion selected for display.
type Dominant struct {
	Label string
	Score float64
}

// Classifier abstracts sentiment/emotion model backends. Both calls are
// independent and free of shared per-chunk state; backends that wrap a
// non-thread-safe model must serialize access internally.
type Classifier interface {
	ClassifySentiment(ctx context.Context, text string) (Score, error)
	ClassifyEmotions(ctx context.Context, text string) (Distribution, error)
}
