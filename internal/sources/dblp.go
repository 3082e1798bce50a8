package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

const dblpBaseURL = "https://dblp.org/search/publ/api"

// DBLPAdapter fetches recent publications from the DBLP search API.
// DBLP publication dates carry only a year, so every record this
// adapter emits has FidelityYear (spec.md §9 open question on date
// fidelity).
type DBLPAdapter struct {
	client *Client
}

func NewDBLPAdapter(client *Client) *DBLPAdapter { return &DBLPAdapter{client: client} }

func (a *DBLPAdapter) Name() string { return "dblp" }

func (a *DBLPAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perPage := limit
	if perPage <= 0 || perPage > 100 {
		perPage = 50
	}

	q := url.Values{}
	q.Set("q", topicForHour(time.Now().Hour()+1))
	q.Set("format", "json")
	q.Set("h", fmt.Sprintf("%d", perPage))

	body, err := a.client.Get(ctx, a.Name(), dblpBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("sources: dblp fetch: %w", err)
	}

	var resp dblpResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sources: dblp parse: %w", err)
	}

	out := make([]*record.Record, 0, len(resp.Result.Hits.Hit))
	for _, hit := range resp.Result.Hits.Hit {
		rec, ok := a.convert(hit.Info, dateThreshold)
		if !ok {
			continue
		}
		out = append(out, rec)
		if len(out) >= limit && limit > 0 {
			break
		}
	}
	return out, nil
}

func (a *DBLPAdapter) convert(info dblpPublicationInfo, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(info.Title)
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}
	year, err := strconv.Atoi(info.Year)
	if err != nil {
		return nil, false
	}
	published := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypePaper)
	rec.Title = title
	rec.Published = published
	rec.DateFidelity = record.FidelityYear
	rec.Venue = info.Venue
	rec.Link = info.URL
	switch authors := info.Authors.Author.(type) {
	case []any:
		for _, raw := range authors {
			if m, ok := raw.(map[string]any); ok {
				if name, ok := m["text"].(string); ok {
					rec.Authors = append(rec.Authors, name)
				}
			}
		}
	case map[string]any:
		if name, ok := authors["text"].(string); ok {
			rec.Authors = append(rec.Authors, name)
		}
	}
	if info.DOI != "" {
		rec.ExternalIDs[record.NSDOI] = info.DOI
	}
	rec.ExternalIDs[record.NSDBLP] = info.Key
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info dblpPublicationInfo `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpPublicationInfo struct {
	Title string `json:"title"`
	Venue string `json:"venue"`
	Year  string `json:"year"`
	URL   string `json:"url"`
	Key   string `json:"key"`
	DOI   string `json:"doi"`
	Authors struct {
		// DBLP's JSON renders a single author as an object and
		// multiple authors as an array; decode into `any` and branch
		// on the concrete shape in convert.
		Author any `json:"author"`
	} `json:"authors"`
}
