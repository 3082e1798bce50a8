package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/techsignal/internal/record"
)

type fakeCatalog struct {
	records []*record.Record
}

func (f *fakeCatalog) Snapshot() []*record.Record { return f.records }

func paperSignal(tech string, published time.Time) *record.Record {
	r := record.New(record.TypePaper)
	r.Title = "paper"
	r.Published = published
	r.DateFidelity = record.FidelityDay
	r.AddTechnology(tech)
	return r
}

// TestComputeMomentum_Smoke mirrors spec.md §8 scenario S6: a single
// tech with 50 recent paper signals and 10 older paper signals and no
// other source signals yields momentum 100 and confidence 1.
func TestComputeMomentum_Smoke(t *testing.T) {
	now := time.Now()
	var recs []*record.Record
	for i := 0; i < 50; i++ {
		recs = append(recs, paperSignal("quantum", now.Add(-time.Duration(i)*time.Hour)))
	}
	for i := 0; i < 10; i++ {
		recs = append(recs, paperSignal("quantum", now.Add(-40*24*time.Hour-time.Duration(i)*time.Hour)))
	}
	cat := &fakeCatalog{records: recs}

	m := ComputeMomentum(cat, "quantum", 30*24*time.Hour)
	assert.InDelta(t, 100.0, m.Score, 0.01)
	assert.InDelta(t, 1.0, m.Confidence, 0.01)
	assert.Equal(t, 60, m.SignalCount)
}

func TestComputeMomentum_NoSignals_ZeroMomentumZeroConfidence(t *testing.T) {
	cat := &fakeCatalog{}
	m := ComputeMomentum(cat, "nonexistent", 30*24*time.Hour)
	assert.Equal(t, 0.0, m.Score)
	assert.Equal(t, 0.0, m.Confidence)
}

func TestComputeMomentum_AlwaysWithinInvariantRange(t *testing.T) {
	now := time.Now()
	recs := []*record.Record{
		paperSignal("edge", now),
		paperSignal("edge", now.Add(-1*time.Hour)),
	}
	cat := &fakeCatalog{records: recs}
	m := ComputeMomentum(cat, "edge", 30*24*time.Hour)
	assert.GreaterOrEqual(t, m.Score, 0.0)
	assert.LessOrEqual(t, m.Score, 100.0)
	assert.GreaterOrEqual(t, m.Confidence, 0.0)
	assert.LessOrEqual(t, m.Confidence, 1.0)
}

func TestComputeGrowth_FewerThanTwoNonZeroMonths_ZeroScoreLowConfidence(t *testing.T) {
	r := record.New(record.TypeNews)
	r.Title = "x"
	r.Published = time.Now()
	r.AddIndustry("Robotics")
	cat := &fakeCatalog{records: []*record.Record{r}}

	g := ComputeGrowth(cat, "Robotics", 90*24*time.Hour)
	assert.Equal(t, 0.0, g.Score)
	assert.LessOrEqual(t, g.Confidence, 0.3)
}

func TestComputeGrowth_ScoreAlwaysInRange(t *testing.T) {
	now := time.Now()
	var recs []*record.Record
	for i := 0; i < 5; i++ {
		r := record.New(record.TypeNews)
		r.Title = "x"
		r.Published = now.AddDate(0, -i, 0)
		r.AddIndustry("Robotics")
		recs = append(recs, r)
	}
	cat := &fakeCatalog{records: recs}
	g := ComputeGrowth(cat, "Robotics", 180*24*time.Hour)
	assert.GreaterOrEqual(t, g.Score, 0.0)
	assert.LessOrEqual(t, g.Score, 100.0)
}

func TestRankMomentum_OrderedDescendingByScore(t *testing.T) {
	now := time.Now()
	var recs []*record.Record
	for i := 0; i < 20; i++ {
		recs = append(recs, paperSignal("hot", now.Add(-time.Duration(i)*time.Hour)))
	}
	recs = append(recs, paperSignal("cold", now.Add(-40*24*time.Hour)))
	cat := &fakeCatalog{records: recs}

	ranked := RankMomentum(cat, 30*24*time.Hour)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

type fakeLeaders struct {
	counts map[string]int
}

func (f fakeLeaders) LeaderMentionCount(tech string) int { return f.counts[tech] }

func TestComputeEmerging_QualifiesOnLowVolumeHighRecency(t *testing.T) {
	now := time.Now()
	var recs []*record.Record
	for i := 0; i < 10; i++ {
		recs = append(recs, paperSignal("emergent", now.Add(-time.Duration(i)*time.Hour)))
	}
	cat := &fakeCatalog{records: recs}

	e := ComputeEmerging(cat, "emergent", 7*24*time.Hour, fakeLeaders{})
	assert.True(t, e.Qualifies)
	assert.GreaterOrEqual(t, e.Score, 0.0)
	assert.LessOrEqual(t, e.Score, 100.0)
}

func TestComputePrediction_ScoreWithinRange(t *testing.T) {
	now := time.Now()
	var recs []*record.Record
	for i := 0; i < 30; i++ {
		recs = append(recs, paperSignal("future-tech", now.Add(-time.Duration(i)*time.Hour)))
	}
	cat := &fakeCatalog{records: recs}

	p := ComputePrediction(cat, "future-tech", 30*24*time.Hour, fakeLeaders{counts: map[string]int{"future-tech": 3}})
	assert.GreaterOrEqual(t, p.Score, 0.0)
	assert.LessOrEqual(t, p.Score, 100.0)
}

type fakeLeaderSource struct {
	quotes []LeaderQuote
}

func (f fakeLeaderSource) AllLeaderQuotes() []LeaderQuote { return f.quotes }

func TestRankLeaderQuotes_SortsByConfidenceThenRecency_CapsAtTwenty(t *testing.T) {
	var quotes []LeaderQuote
	for i := 0; i < 25; i++ {
		quotes = append(quotes, LeaderQuote{
			Technology:  "x",
			Confidence:  float64(i % 3),
			PublishedAt: int64(i),
		})
	}
	source := fakeLeaderSource{quotes: quotes}

	ranked := RankLeaderQuotes(source)
	assert.Len(t, ranked, 20)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Confidence, ranked[i].Confidence)
	}
}

func TestRankLeaderQuotes_NilSourceReturnsNil(t *testing.T) {
	assert.Nil(t, RankLeaderQuotes(nil))
}
