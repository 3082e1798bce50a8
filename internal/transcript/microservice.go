package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MicroserviceMethod is tier 1: a dedicated transcript micro-service,
// called with an HTTP GET and a URL parameter, expecting JSON
// containing a transcript field, per spec.md §4.9.
type MicroserviceMethod struct {
	baseURL string
	client  *http.Client
}

func NewMicroserviceMethod(baseURL string) *MicroserviceMethod {
	return &MicroserviceMethod{baseURL: baseURL, client: &http.Client{Timeout: 30 * time.Second}}
}

func (m *MicroserviceMethod) Name() string { return "microservice" }

type microserviceResponse struct {
	Transcript []microserviceSegment `json:"transcript"`
}

type microserviceSegment struct {
	StartSeconds float64 `json:"start"`
	Speaker      string  `json:"speaker"`
	Text         string  `json:"text"`
}

func (m *MicroserviceMethod) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	if m.baseURL == "" {
		return nil, fmt.Errorf("transcript: microservice: not configured")
	}

	reqURL := m.baseURL + "?videoId=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transcript: microservice: build request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript: microservice: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("transcript: microservice: %w", errBlocked)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript: microservice: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcript: microservice: read body: %w", err)
	}

	var parsed microserviceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("transcript: microservice: decode: %w", err)
	}
	if len(parsed.Transcript) == 0 {
		return nil, fmt.Errorf("transcript: microservice: empty transcript")
	}

	segments := make([]Segment, 0, len(parsed.Transcript))
	for _, s := range parsed.Transcript {
		segments = append(segments, Segment{
			Start:   time.Duration(s.StartSeconds * float64(time.Second)),
			Speaker: s.Speaker,
			Text:    s.Text,
		})
	}
	return &Transcript{VideoID: videoID, Segments: segments}, nil
}
