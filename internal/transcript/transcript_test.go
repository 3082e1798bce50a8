package transcript

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMethod struct {
	name    string
	result  *Transcript
	err     error
	audio   bool
	calls   int
}

func (f *fakeMethod) Name() string { return f.name }
func (f *fakeMethod) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
func (f *fakeMethod) audioBased() {}

type audioFakeMethod struct{ fakeMethod }

var _ AudioBased = (*audioFakeMethod)(nil)

type fakeCache struct {
	unavailable map[string]bool
	marked      []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{unavailable: make(map[string]bool)}
}

func (c *fakeCache) IsUnavailable(ctx context.Context, videoID string) (bool, error) {
	return c.unavailable[videoID], nil
}

func (c *fakeCache) MarkUnavailable(ctx context.Context, videoID string) error {
	c.marked = append(c.marked, videoID)
	c.unavailable[videoID] = true
	return nil
}

func TestPipeline_FirstMethodSucceeds_ShortCircuitsRest(t *testing.T) {
	ok := &fakeMethod{name: "microservice", result: &Transcript{VideoID: "v1"}}
	fallback := &fakeMethod{name: "captions", result: &Transcript{VideoID: "v1"}}
	p := NewPipeline(newFakeCache(), ok, fallback)

	tr, err := p.Fetch(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", tr.VideoID)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestPipeline_FallsThroughOnFailure(t *testing.T) {
	failing := &fakeMethod{name: "microservice", err: errors.New("boom")}
	ok := &fakeMethod{name: "captions", result: &Transcript{VideoID: "v1"}}
	p := NewPipeline(newFakeCache(), failing, ok)

	tr, err := p.Fetch(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", tr.VideoID)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestPipeline_BlockedDownloadSkipsAudioBasedTiers(t *testing.T) {
	blocked := &fakeMethod{name: "captions", err: errBlocked}
	audioTier := &audioFakeMethod{fakeMethod{name: "speech-to-text", result: &Transcript{VideoID: "v1"}}}
	p := NewPipeline(newFakeCache(), blocked, audioTier)

	_, err := p.Fetch(context.Background(), "v1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, 1, blocked.calls)
	assert.Equal(t, 0, audioTier.calls, "audio-based tier must be skipped after a blocked download")
}

func TestPipeline_AllMethodsFail_MarksUnavailableInCache(t *testing.T) {
	cache := newFakeCache()
	m1 := &fakeMethod{name: "microservice", err: errors.New("down")}
	m2 := &fakeMethod{name: "captions", err: errors.New("no captions")}
	p := NewPipeline(cache, m1, m2)

	_, err := p.Fetch(context.Background(), "v1")
	require.Error(t, err)
	assert.Contains(t, cache.marked, "v1")
}

func TestPipeline_CachedUnavailable_ShortCircuitsWithoutCallingMethods(t *testing.T) {
	cache := newFakeCache()
	cache.unavailable["v1"] = true
	m1 := &fakeMethod{name: "microservice", result: &Transcript{VideoID: "v1"}}
	p := NewPipeline(cache, m1)

	_, err := p.Fetch(context.Background(), "v1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, 0, m1.calls)
}

func TestFormat_RendersSpeakerTaggedLines(t *testing.T) {
	tr := &Transcript{
		VideoID: "v1",
		Segments: []Segment{
			{Start: 65 * time.Second, Speaker: "Alice", Text: "hello"},
			{Start: 3725 * time.Second, Speaker: "Bob", Text: "world"},
		},
	}
	out := Format(tr)
	assert.Equal(t, "00:01:05 [Alice]: hello\n01:02:05 [Bob]: world\n", out)
}

func TestInMemoryCache_ExpiresAfterTTL(t *testing.T) {
	c := NewInMemoryCache()
	require.NoError(t, c.MarkUnavailable(context.Background(), "v1"))
	c.entries["v1"] = time.Now().Add(-25 * time.Hour)

	unavailable, err := c.IsUnavailable(context.Background(), "v1")
	require.NoError(t, err)
	assert.False(t, unavailable)
}

// TestPlanChunks_45MBFile_SplitsIntoAtMostThreeChunksEachUnder25MB
// encodes spec.md §8 scenario S4: a 45MB / 90min download must split
// into chunks at or under the 25MB ceiling, with offsets that advance
// monotonically (and therefore timestamps that do too, once each
// chunk's segments are offset-adjusted by speechtotext.go's Fetch).
func TestPlanChunks_45MBFile_SplitsIntoChunksUnderCeiling(t *testing.T) {
	duration := 90 * time.Minute
	sizeBytes := int64(45 * 1024 * 1024)

	chunks := planChunks(duration, sizeBytes)
	require.LessOrEqual(t, len(chunks), 3)
	require.GreaterOrEqual(t, len(chunks), 2)

	bytesPerSecond := float64(sizeBytes) / duration.Seconds()
	var total time.Duration
	prevOffset := -time.Second
	for _, c := range chunks {
		estimatedBytes := bytesPerSecond * c.length.Seconds()
		assert.LessOrEqual(t, estimatedBytes, float64(maxChunkBytes))
		assert.Greater(t, c.offset, prevOffset, "chunk offsets must strictly increase")
		prevOffset = c.offset
		total += c.length
	}
	assert.Equal(t, duration, total)
}

func TestPlanChunks_SmallFile_SingleChunk(t *testing.T) {
	chunks := planChunks(10*time.Minute, 5*1024*1024)
	require.Len(t, chunks, 1)
	assert.Equal(t, time.Duration(0), chunks[0].offset)
	assert.Equal(t, 10*time.Minute, chunks[0].length)
}
