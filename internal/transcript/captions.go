package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// preferredCaptionLanguages is spec.md §4.9 tier 2's preferred language
// list, tried in order before falling back to any available track.
var preferredCaptionLanguages = []string{"en", "en-US", "en-GB"}

// CaptionMethod is tier 2: pulls existing captions via YouTube's
// public timedtext endpoint. No caption-extraction library appears
// anywhere in the retrieval pack, so this talks to the endpoint
// directly with net/http + encoding/xml — the same typed-XML-decode
// idiom the arXiv/PubMed/DBLP adapters already use for API responses,
// rather than introducing an ungrounded dependency for one endpoint.
type CaptionMethod struct {
	client *http.Client
}

func NewCaptionMethod() *CaptionMethod {
	return &CaptionMethod{client: &http.Client{Timeout: 30 * time.Second}}
}

func (c *CaptionMethod) Name() string { return "captions" }

type timedText struct {
	XMLName xml.Name        `xml:"transcript"`
	Texts   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start float64 `xml:"start,attr"`
	Text  string  `xml:",chardata"`
}

func (c *CaptionMethod) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	for _, lang := range preferredCaptionLanguages {
		t, err := c.fetchLang(ctx, videoID, lang)
		if err == nil {
			return t, nil
		}
	}
	// Any available track, by requesting without a lang parameter.
	return c.fetchLang(ctx, videoID, "")
}

func (c *CaptionMethod) fetchLang(ctx context.Context, videoID, lang string) (*Transcript, error) {
	q := url.Values{"v": {videoID}}
	if lang != "" {
		q.Set("lang", lang)
	}
	reqURL := "https://video.google.com/timedtext?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transcript: captions: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript: captions: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("transcript: captions: %w", errBlocked)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript: captions: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcript: captions: read body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("transcript: captions: no track for lang %q", lang)
	}

	var parsed timedText
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("transcript: captions: decode: %w", err)
	}
	if len(parsed.Texts) == 0 {
		return nil, fmt.Errorf("transcript: captions: empty track for lang %q", lang)
	}

	segments := make([]Segment, 0, len(parsed.Texts))
	for _, line := range parsed.Texts {
		segments = append(segments, Segment{
			Start:   time.Duration(line.Start * float64(time.Second)),
			Speaker: "Speaker",
			Text:    line.Text,
		})
	}
	return &Transcript{VideoID: videoID, Segments: segments}, nil
}
