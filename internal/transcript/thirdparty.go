package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// thirdPartyPollInterval and thirdPartyMaxWait implement spec.md
// §4.9's "poll until completed or error, maximum wait 10 minutes."
const (
	thirdPartyPollInterval = 10 * time.Second
	thirdPartyMaxWait      = 10 * time.Minute
)

// ThirdPartyMethod is tier 4, the last fallback: upload audio to a
// hosted transcription API and poll for completion. Grounded on the
// same upload-then-poll shape the teacher's provider-health checks use
// for asynchronous jobs, adapted here to a transcription job's
// lifecycle instead of a health probe.
type ThirdPartyMethod struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	extractor audioExtractor
}

func NewThirdPartyMethod(baseURL, apiKey string, extractor audioExtractor) *ThirdPartyMethod {
	return &ThirdPartyMethod{
		baseURL:   baseURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 60 * time.Second},
		extractor: extractor,
	}
}

func (t *ThirdPartyMethod) Name() string { return "third-party-api" }

// audioBased marks this method AudioBased, same as SpeechToTextMethod.
func (t *ThirdPartyMethod) audioBased() {}

type thirdPartySubmitResponse struct {
	JobID string `json:"job_id"`
}

type thirdPartyStatusResponse struct {
	Status  string                    `json:"status"` // "pending", "completed", "error"
	Error   string                    `json:"error,omitempty"`
	Results []thirdPartySegmentResult `json:"results,omitempty"`
}

type thirdPartySegmentResult struct {
	StartSeconds float64 `json:"start"`
	Speaker      string  `json:"speaker"`
	Text         string  `json:"text"`
}

func (t *ThirdPartyMethod) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	audioURL, err := t.submit(ctx, videoID)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(thirdPartyMaxWait)
	for time.Now().Before(deadline) {
		status, err := t.poll(ctx, audioURL)
		if err != nil {
			return nil, fmt.Errorf("transcript: third-party: poll: %w", err)
		}
		switch status.Status {
		case "completed":
			return t.toTranscript(videoID, status.Results)
		case "error":
			return nil, fmt.Errorf("transcript: third-party: job failed: %s", status.Error)
		}

		timer := time.NewTimer(thirdPartyPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("transcript: third-party: exceeded max wait %s", thirdPartyMaxWait)
}

func (t *ThirdPartyMethod) submit(ctx context.Context, videoID string) (jobID string, err error) {
	payload, err := json.Marshal(map[string]string{"video_id": videoID})
	if err != nil {
		return "", fmt.Errorf("transcript: third-party: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("transcript: third-party: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript: third-party: submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("transcript: third-party: %w", errBlocked)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("transcript: third-party: submit status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transcript: third-party: read submit body: %w", err)
	}
	var parsed thirdPartySubmitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("transcript: third-party: decode submit body: %w", err)
	}
	if parsed.JobID == "" {
		return "", fmt.Errorf("transcript: third-party: empty job id")
	}
	return parsed.JobID, nil
}

func (t *ThirdPartyMethod) poll(ctx context.Context, jobID string) (*thirdPartyStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read poll body: %w", err)
	}
	var parsed thirdPartyStatusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode poll body: %w", err)
	}
	return &parsed, nil
}

func (t *ThirdPartyMethod) toTranscript(videoID string, results []thirdPartySegmentResult) (*Transcript, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("transcript: third-party: empty results")
	}
	segments := make([]Segment, 0, len(results))
	for _, r := range results {
		segments = append(segments, Segment{
			Start:   time.Duration(r.StartSeconds * float64(time.Second)),
			Speaker: r.Speaker,
			Text:    r.Text,
		})
	}
	return &Transcript{VideoID: videoID, Segments: segments}, nil
}
