package affect

// Polarity classes for the closed emotion vocabulary. Emotion names outside
// both sets (e.g. "neutral") are unclassified and only considered when the
// sentiment does not restrict the selection.
var (
	positiveEmotions = map[string]bool{
		"joy":      true,
		"surprise": true,
	}
	negativeEmotions = map[string]bool{
		"anger":   true,
		"disgust": true,
		"fear":    true,
		"sadness": true,
	}
)

// SelectDominant picks the highest-scoring emotion whose polarity agrees
// with the sentiment label. POSITIVE restricts the candidates to
// joy/surprise, NEGATIVE to anger/disgust/fear/sadness; any other label
// (NEUTRAL, Error, ...) considers the full distribution. Ties resolve to
// the earliest entry in distribution order. When the restricted subset is
// empty the result is ("neutral", 0): a polarity mismatch never fails the
// pipeline.
func SelectDominant(dist Distribution, sentimentLabel string) Dominant {
	var allow map[string]bool
	switch sentimentLabel {
	case LabelPositive:
		allow = positiveEmotions
	case LabelNegative:
		allow = negativeEmotions
	}

	best := Dominant{Label: "neutral", Score: 0}
	found := false
	for _, s := range dist {
		if allow != nil && !allow[s.Label] {
			continue
		}
		if !found || s.Value > best.Score {
			best = Dominant{Label: s.Label, Score: s.Value}
			found = true
		}
	}
	return best
}
