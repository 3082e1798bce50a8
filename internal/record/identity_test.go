package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeID_StrongestWins(t *testing.T) {
	r := New(TypePaper)
	r.Title = "Attention Is All You Need"
	r.Published = time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC)
	r.ExternalIDs[NSDOI] = "10.1/x"
	r.ExternalIDs[NSArxiv] = "1706.03762"

	assert.Equal(t, "arxiv:1706.03762", ComputeID(r))
}

func TestComputeID_DOIFallsBackToFingerprint(t *testing.T) {
	r := New(TypePaper)
	r.Title = "A Completely Novel Approach To Something"
	r.Authors = []string{"Jane Doe"}
	r.Published = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	id := ComputeID(r)
	assert.True(t, len(id) > len("fp:"))
	assert.Equal(t, "fp:", id[:3])
}

func TestComputeID_TitleCaseAndPunctuationCollide(t *testing.T) {
	a := TitleFingerprint("Hello, World!", "Doe", 2024)
	b := TitleFingerprint("hello world", "doe", 2024)
	assert.Equal(t, a, b)
}

func TestNormalizeDOI(t *testing.T) {
	assert.Equal(t, "10.1/x", NormalizeDOI("https://doi.org/10.1/X"))
	assert.Equal(t, "10.1/x", NormalizeDOI("10.1/X"))
}

func TestSkipFingerprint(t *testing.T) {
	assert.True(t, SkipFingerprint("abcd"))
	assert.False(t, SkipFingerprint("abcde"))
}
