package affect

import (
	"context"
	"fmt"
	"log/slog"
)

// Analyzer runs both classifier calls for one utterance chunk and converts
// every backend failure into the sentinel results the display layer
// expects. No error crosses this boundary.
type Analyzer struct {
	classifier Classifier
	logger     *slog.Logger
}

func NewAnalyzer(classifier Classifier, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		logger:     logger.With(slog.String("component", "affect")),
	}
}

// Sentiment classifies the chunk's sentiment, mapping backend errors to the
// error variant of SentimentResult.
func (a *Analyzer) Sentiment(ctx context.Context, text string) SentimentResult {
	score, err := a.classifier.ClassifySentiment(ctx, text)
	if err != nil {
		a.logger.Warn("sentiment classification failed", slogError(err))
		return SentimentResult{
			Label: LabelError,
			Err:   fmt.Sprintf("could not analyze sentiment: %v", err),
		}
	}
	return SentimentResult{Label: score.Label, Confidence: score.Value}
}

// Analyze produces the sentiment and the sentiment-consistent dominant
// emotion for one chunk. If the emotion distribution cannot be computed at
// all, the dominant emotion is the ("Error", 0) sentinel.
func (a *Analyzer) Analyze(ctx context.Context, text string) (SentimentResult, Dominant) {
	sentiment := a.Sentiment(ctx, text)

	dist, err := a.classifier.ClassifyEmotions(ctx, text)
	if err != nil {
		a.logger.Warn("emotion classification failed", slogError(err))
		return sentiment, Dominant{Label: LabelError, Score: 0}
	}
	return sentiment, SelectDominant(dist, sentiment.Label)
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
