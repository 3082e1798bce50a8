package sources

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleArxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>A Survey of Retrieval Augmented Generation</title>
    <summary>  This paper surveys RAG methods.  </summary>
    <published>2024-01-05T00:00:00Z</published>
    <updated>2024-01-06T00:00:00Z</updated>
    <author><name>Jane Doe</name></author>
    <category term="cs.CL"></category>
    <link href="http://arxiv.org/pdf/2401.00001v1" type="application/pdf"></link>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.00002v1</id>
    <title>深度学习方法综述</title>
    <summary>non english</summary>
    <published>2023-01-05T00:00:00Z</published>
    <author><name>Someone</name></author>
    <category term="cs.CV"></category>
  </entry>
</feed>`

func TestArxivAdapter_Convert_FiltersAndNormalizes(t *testing.T) {
	var feed arxivFeed
	require.NoError(t, xml.Unmarshal([]byte(sampleArxivFeed), &feed))
	require.Len(t, feed.Entries, 2)

	adapter := &ArxivAdapter{}
	threshold := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rec, ok := adapter.convert(feed.Entries[0], threshold)
	require.True(t, ok)
	assert.Equal(t, "A Survey of Retrieval Augmented Generation", rec.Title)
	assert.Equal(t, "This paper surveys RAG methods.", rec.Summary)
	assert.Equal(t, "2401.00001v1", rec.ExternalIDs["arxiv"])
	assert.Equal(t, "arxiv:2401.00001v1", rec.ID)
	assert.Contains(t, rec.TagList(), "Natural Language Processing")
	assert.Equal(t, "http://arxiv.org/pdf/2401.00001v1", rec.PDFLink)

	_, ok = adapter.convert(feed.Entries[1], threshold)
	assert.False(t, ok, "non-English title should be rejected")
}

func TestArxivAdapter_Convert_RejectsBeforeThreshold(t *testing.T) {
	var feed arxivFeed
	require.NoError(t, xml.Unmarshal([]byte(sampleArxivFeed), &feed))

	adapter := &ArxivAdapter{}
	threshold := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, ok := adapter.convert(feed.Entries[0], threshold)
	assert.False(t, ok, "entry published before threshold should be rejected")
}

func TestArxivID(t *testing.T) {
	assert.Equal(t, "2401.00001v1", arxivID("http://arxiv.org/abs/2401.00001v1"))
	assert.Equal(t, "unchanged", arxivID("unchanged"))
}
