package signals

import "strings"

// positiveLexicon and negativeLexicon form the static bag-of-words
// lexicon spec.md §4.7 calls for, grounded on the same "small static
// keyword table" texture as record.ArxivCategoryTags and
// record.IndustryKeywords — a fixed, hand-curated vocabulary rather
// than a scored model, matching the complexity level every other
// classification table in this codebase uses.
var positiveLexicon = map[string]struct{}{
	"breakthrough": {}, "growth": {}, "surge": {}, "record": {},
	"success": {}, "advance": {}, "innovative": {}, "leading": {},
	"strong": {}, "boost": {}, "win": {}, "accelerate": {},
	"efficient": {}, "robust": {}, "outperform": {}, "milestone": {},
	"funding": {}, "partnership": {}, "launch": {}, "improve": {},
	"gain": {}, "upgrade": {}, "adoption": {}, "scale": {},
}

var negativeLexicon = map[string]struct{}{
	"failure": {}, "decline": {}, "lawsuit": {}, "breach": {},
	"vulnerability": {}, "layoff": {}, "shutdown": {}, "delay": {},
	"concern": {}, "risk": {}, "loss": {}, "controversy": {},
	"outage": {}, "ban": {}, "investigation": {}, "fraud": {},
	"recall": {}, "crash": {}, "weak": {}, "cut": {},
	"scandal": {}, "exploit": {}, "fine": {}, "backlash": {},
}

// Sentiment scores text as a bag-of-words differential over the static
// lexicon, clamped to [-1, 1], per spec.md §4.7. Returns 0 for empty
// text or a text with no lexicon hits at all.
func Sentiment(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	if len(words) == 0 {
		return 0
	}

	var pos, neg int
	for _, w := range words {
		if _, ok := positiveLexicon[w]; ok {
			pos++
		}
		if _, ok := negativeLexicon[w]; ok {
			neg++
		}
	}
	if pos == 0 && neg == 0 {
		return 0
	}

	score := float64(pos-neg) / float64(pos+neg)
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}
