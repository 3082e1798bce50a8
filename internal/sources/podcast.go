package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

const youtubeSearchURL = "https://www.googleapis.com/youtube/v3/search"

// PodcastChannel is one YouTube channel the PodcastAdapter polls for
// new uploads. Each resulting Canonical Record's externalIds[youtube]
// is the videoId the Transcript Pipeline (C9) later consumes.
type PodcastChannel struct {
	Name      string
	ChannelID string
}

// PodcastAdapter lists recent uploads from a set of configured YouTube
// channels via the Data API v3 search.list endpoint. It only produces
// the Canonical Record shell (title, published, externalIds[youtube]);
// transcript and breakdown content are attached downstream by C9/C10,
// not by this adapter.
type PodcastAdapter struct {
	client   *Client
	apiKey   string
	channels []PodcastChannel
}

func NewPodcastAdapter(client *Client, apiKey string, channels []PodcastChannel) *PodcastAdapter {
	return &PodcastAdapter{client: client, apiKey: apiKey, channels: channels}
}

func (a *PodcastAdapter) Name() string { return "podcast" }

func (a *PodcastAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perChannel := limit
	if len(a.channels) > 0 {
		perChannel = limit / len(a.channels)
	}
	if perChannel <= 0 {
		perChannel = 10
	}

	out := make([]*record.Record, 0, limit)
	var lastErr error
	for _, channel := range a.channels {
		items, err := a.fetchChannel(ctx, channel, perChannel, dateThreshold)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, items...)
		if limit > 0 && len(out) >= limit {
			out = out[:limit]
			break
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("sources: podcast: all channels failed: %w", lastErr)
	}
	return out, nil
}

func (a *PodcastAdapter) fetchChannel(ctx context.Context, channel PodcastChannel, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	q := url.Values{}
	q.Set("key", a.apiKey)
	q.Set("channelId", channel.ChannelID)
	q.Set("part", "snippet")
	q.Set("order", "date")
	q.Set("type", "video")
	q.Set("maxResults", fmt.Sprintf("%d", limit))
	q.Set("publishedAfter", dateThreshold.UTC().Format(time.RFC3339))

	body, err := a.client.Get(ctx, a.Name(), youtubeSearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("sources: podcast: %s: %w", channel.Name, err)
	}

	var resp youtubeSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sources: podcast: parse %s: %w", channel.Name, err)
	}

	out := make([]*record.Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		rec, ok := a.convert(channel, item, dateThreshold)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *PodcastAdapter) convert(channel PodcastChannel, item youtubeSearchItem, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(item.Snippet.Title)
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}
	published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	if err != nil {
		return nil, false
	}
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypePodcast)
	rec.Title = title
	rec.Summary = collapseWhitespace(item.Snippet.Description)
	rec.Published = published
	rec.Venue = channel.Name
	rec.Authors = []string{channel.Name}
	rec.Link = "https://www.youtube.com/watch?v=" + item.ID.VideoID
	rec.ExternalIDs[record.NSYouTube] = item.ID.VideoID
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

type youtubeSearchResponse struct {
	Items []youtubeSearchItem `json:"items"`
}

type youtubeSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
	} `json:"snippet"`
}
