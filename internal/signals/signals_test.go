package signals

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

func newsRecord(title, summary string, published time.Time, tech string) *record.Record {
	r := record.New(record.TypeNews)
	r.Title = title
	r.Summary = summary
	r.Published = published
	r.DateFidelity = record.FidelityDay
	r.AddTechnology(tech)
	return r
}

func TestAllSignals_FiltersByWindow(t *testing.T) {
	cat := &fakeCatalog{records: []*record.Record{
		newsRecord("in window", "", time.Now().Add(-24*time.Hour), "llm"),
		newsRecord("out of window", "", time.Now().Add(-30*24*time.Hour), "llm"),
	}}

	got := AllSignals(cat, 7*24*time.Hour)
	assert.Len(t, got, 1)
	assert.Equal(t, "in window", got[0].Record.Title)
}

func TestSignalsForTechnology_FiltersByMembership(t *testing.T) {
	cat := &fakeCatalog{records: []*record.Record{
		newsRecord("llm story", "", time.Now(), "llm"),
		newsRecord("robotics story", "", time.Now(), "robotics"),
	}}

	got := SignalsForTechnology(cat, "LLM", 7*24*time.Hour)
	assert.Len(t, got, 1)
	assert.Equal(t, "llm story", got[0].Record.Title)
}

func TestToSignal_NewsSentimentComputed_OtherTypesZero(t *testing.T) {
	news := newsRecord("breakthrough growth surge", "record success", time.Now(), "llm")
	paper := record.New(record.TypePaper)
	paper.Title = "failure decline lawsuit"
	paper.Published = time.Now()

	cat := &fakeCatalog{records: []*record.Record{news, paper}}
	got := AllSignals(cat, 7*24*time.Hour)

	for _, s := range got {
		if s.Record.Type == record.TypeNews {
			assert.Greater(t, s.Sentiment, 0.0)
		} else {
			assert.Equal(t, 0.0, s.Sentiment)
		}
	}
}

func TestTechnologiesAndIndustries_UnionAcrossSignals(t *testing.T) {
	r1 := newsRecord("a", "", time.Now(), "llm")
	r2 := newsRecord("b", "", time.Now(), "robotics")
	r2.AddIndustry("Automotive")
	r1.AddIndustry("Software")

	cat := &fakeCatalog{records: []*record.Record{r1, r2}}
	signals := AllSignals(cat, 7*24*time.Hour)

	techs := Technologies(signals)
	assert.Contains(t, techs, "llm")
	assert.Contains(t, techs, "robotics")

	inds := Industries(signals)
	assert.Contains(t, inds, "Software")
	assert.Contains(t, inds, "Automotive")
}

func TestSentiment_ClampedAndNeutralOnNoHits(t *testing.T) {
	assert.Equal(t, 0.0, Sentiment(""))
	assert.Equal(t, 0.0, Sentiment("the quick brown fox"))
	assert.Greater(t, Sentiment("breakthrough growth surge record success"), 0.0)
	assert.Less(t, Sentiment("failure decline lawsuit breach layoff"), 0.0)
}
