package affect

import (
	"context"
	"strings"
)

// mockClassifier is a deterministic keyword heuristic for development and
// tests; no model is loaded.
type mockClassifier struct{}

func NewMockClassifier() Classifier {
	return &mockClassifier{}
}

var (
	positiveWords = []string{"happy", "great", "good", "love", "wonderful", "excellent"}
	negativeWords = []string{"sad", "angry", "hate", "terrible", "awful", "afraid"}
)

func containsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func (m *mockClassifier) ClassifySentiment(_ context.Context, text string) (Score, error) {
	switch {
	case containsAny(text, positiveWords):
		return Score{Label: LabelPositive, Value: 0.95}, nil
	case containsAny(text, negativeWords):
		return Score{Label: LabelNegative, Value: 0.90}, nil
	default:
		return Score{Label: LabelNeutral, Value: 0.60}, nil
	}
}

func (m *mockClassifier) ClassifyEmotions(_ context.Context, text string) (Distribution, error) {
	switch {
	case containsAny(text, positiveWords):
		return Distribution{
			{Label: "joy", Value: 0.8},
			{Label: "surprise", Value: 0.3},
			{Label: "neutral", Value: 0.2},
			{Label: "anger", Value: 0.1},
		}, nil
	case containsAny(text, negativeWords):
		return Distribution{
			{Label: "sadness", Value: 0.7},
			{Label: "anger", Value: 0.6},
			{Label: "fear", Value: 0.2},
			{Label: "joy", Value: 0.1},
		}, nil
	default:
		return Distribution{
			{Label: "neutral", Value: 0.9},
			{Label: "joy", Value: 0.2},
			{Label: "sadness", Value: 0.1},
		}, nil
	}
}
