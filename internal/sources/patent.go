package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

const patentsViewBaseURL = "https://search.patentsview.org/api/v1/patent/"

// PatentAdapter fetches recently-granted patents from the PatentsView
// API, rotating the same topic vocabulary used by the keyword-query
// paper adapters.
type PatentAdapter struct {
	client *Client
	apiKey string
}

func NewPatentAdapter(client *Client, apiKey string) *PatentAdapter {
	return &PatentAdapter{client: client, apiKey: apiKey}
}

func (a *PatentAdapter) Name() string { return "patent" }

func (a *PatentAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perPage := limit
	if perPage <= 0 || perPage > 100 {
		perPage = 30
	}

	query := fmt.Sprintf(`{"_and":[{"_gte":{"patent_date":"%s"}},{"_text_any":{"patent_title":"%s"}}]}`,
		dateThreshold.Format("2006-01-02"), topicForHour(time.Now().Hour()+4))
	fields := `["patent_id","patent_title","patent_abstract","patent_date","inventors.inventor_name_last","assignees.assignee_organization"]`

	q := url.Values{}
	q.Set("q", query)
	q.Set("f", fields)
	q.Set("o", fmt.Sprintf(`{"size":%d}`, perPage))

	headers := map[string]string{}
	if a.apiKey != "" {
		headers["X-Api-Key"] = a.apiKey
	}

	body, err := a.client.Get(ctx, a.Name(), patentsViewBaseURL+"?"+q.Encode(), headers)
	if err != nil {
		return nil, fmt.Errorf("sources: patent fetch: %w", err)
	}

	var resp patentsViewResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sources: patent parse: %w", err)
	}

	out := make([]*record.Record, 0, len(resp.Patents))
	for _, p := range resp.Patents {
		rec, ok := a.convert(p, dateThreshold)
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

func (a *PatentAdapter) convert(p patentsViewPatent, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(p.Title)
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}
	published, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return nil, false
	}
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypePatent)
	rec.Title = title
	rec.Summary = collapseWhitespace(p.Abstract)
	rec.Published = published
	rec.Link = "https://patents.google.com/patent/" + p.ID
	for _, inv := range p.Inventors {
		if inv.LastName != "" {
			rec.Authors = append(rec.Authors, inv.LastName)
		}
	}
	if len(p.Assignees) > 0 {
		rec.Venue = p.Assignees[0].Organization
	}
	rec.ExternalIDs["patent"] = p.ID
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

type patentsViewResponse struct {
	Patents []patentsViewPatent `json:"patents"`
}

type patentsViewPatent struct {
	ID        string `json:"patent_id"`
	Title     string `json:"patent_title"`
	Abstract  string `json:"patent_abstract"`
	Date      string `json:"patent_date"`
	Inventors []struct {
		LastName string `json:"inventor_name_last"`
	} `json:"inventors"`
	Assignees []struct {
		Organization string `json:"assignee_organization"`
	} `json:"assignees"`
}
