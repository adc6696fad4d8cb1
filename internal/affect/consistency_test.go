package affect

import "testing"

func TestSelectDominantPositiveRestrictsToPositiveClass(t *testing.T) {
	dist := Distribution{
		{Label: "anger", Value: 0.9},
		{Label: "joy", Value: 0.8},
		{Label: "surprise", Value: 0.3},
	}
	got := SelectDominant(dist, LabelPositive)
	if got.Label != "joy" || got.Score != 0.8 {
		t.Fatalf("expected joy/0.8, got %+v", got)
	}
}

func TestSelectDominantNegativeRestrictsToNegativeClass(t *testing.T) {
	dist := Distribution{
		{Label: "joy", Value: 0.9},
		{Label: "fear", Value: 0.4},
		{Label: "sadness", Value: 0.6},
	}
	got := SelectDominant(dist, LabelNegative)
	if got.Label != "sadness" || got.Score != 0.6 {
		t.Fatalf("expected sadness/0.6, got %+v", got)
	}
}

func TestSelectDominantNeutralConsidersFullDistribution(t *testing.T) {
	dist := Distribution{
		{Label: "neutral", Value: 0.5},
		{Label: "joy", Value: 0.7},
		{Label: "anger", Value: 0.2},
	}
	got := SelectDominant(dist, LabelNeutral)
	if got.Label != "joy" || got.Score != 0.7 {
		t.Fatalf("expected joy/0.7, got %+v", got)
	}
}

func TestSelectDominantErrorSentimentConsidersFullDistribution(t *testing.T) {
	dist := Distribution{
		{Label: "fear", Value: 0.9},
		{Label: "joy", Value: 0.1},
	}
	got := SelectDominant(dist, LabelError)
	if got.Label != "fear" {
		t.Fatalf("expected fear, got %+v", got)
	}
}

func TestSelectDominantEmptySubsetFallsBackToNeutral(t *testing.T) {
	dist := Distribution{
		{Label: "anger", Value: 0.9},
		{Label: "sadness", Value: 0.7},
	}
	got := SelectDominant(dist, LabelPositive)
	if got.Label != "neutral" || got.Score != 0 {
		t.Fatalf("expected neutral/0, got %+v", got)
	}
}

func TestSelectDominantEmptyDistribution(t *testing.T) {
	got := SelectDominant(nil, LabelNeutral)
	if got.Label != "neutral" || got.Score != 0 {
		t.Fatalf("expected neutral/0, got %+v", got)
	}
}

// Ties resolve to the earliest entry in distribution order; the order of
// the classifier's output is authoritative for reproducibility.
func TestSelectDominantTieBreaksOnDistributionOrder(t *testing.T) {
	got := SelectDominant(Distribution{
		{Label: "joy", Value: 0.5},
		{Label: "surprise", Value: 0.5},
	}, LabelPositive)
	if got.Label != "joy" {
		t.Fatalf("expected first entry joy to win the tie, got %+v", got)
	}

	got = SelectDominant(Distribution{
		{Label: "surprise", Value: 0.5},
		{Label: "joy", Value: 0.5},
	}, LabelPositive)
	if got.Label != "surprise" {
		t.Fatalf("expected first entry surprise to win the tie, got %+v", got)
	}
}
