package knowledge

import (
	"strings"

	"github.com/sawpanic/techsignal/internal/signals"
)

// highCertaintyMarkers and lowCertaintyMarkers implement spec.md
// §4.10 step 4's "derive stance and certainty from keyword
// heuristics." Anything matching neither marker list defaults to
// CertaintyMedium.
var highCertaintyMarkers = []string{"always", "never", "definitely", "certainly", "guaranteed", "undeniably"}
var lowCertaintyMarkers = []string{"might", "may", "possibly", "perhaps", "maybe", "could be"}

// deriveStance reuses the Signal Aggregator's bag-of-words sentiment
// scorer rather than a second lexicon: positive/negative leanings in
// ordinary prose map naturally onto Optimistic/Critical.
func deriveStance(text string) Stance {
	score := signals.Sentiment(text)
	switch {
	case score > 0.2:
		return StanceOptimistic
	case score < -0.2:
		return StanceCritical
	default:
		return StanceNeutral
	}
}

func deriveCertainty(text string) Certainty {
	lower := strings.ToLower(text)
	for _, m := range highCertaintyMarkers {
		if strings.Contains(lower, m) {
			return CertaintyHigh
		}
	}
	for _, m := range lowCertaintyMarkers {
		if strings.Contains(lower, m) {
			return CertaintyLow
		}
	}
	return CertaintyMedium
}
