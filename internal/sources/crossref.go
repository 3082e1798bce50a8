package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

const crossrefBaseURL = "https://api.crossref.org/works"

// CrossrefAdapter fetches recent works from the Crossref REST API.
// Crossref allows the highest per-source rate (10 rps, see
// internal/ratelimit.DefaultRates), so it tolerates the largest
// per-cycle page size of the paper adapters.
type CrossrefAdapter struct {
	client *Client
}

func NewCrossrefAdapter(client *Client) *CrossrefAdapter { return &CrossrefAdapter{client: client} }

func (a *CrossrefAdapter) Name() string { return "crossref" }

func (a *CrossrefAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perPage := limit
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	q := url.Values{}
	q.Set("query", topicForHour(time.Now().Hour()+6))
	q.Set("sort", "published")
	q.Set("order", "desc")
	q.Set("rows", fmt.Sprintf("%d", perPage))
	q.Set("filter", "from-pub-date:"+dateThreshold.Format("2006-01-02"))

	body, err := a.client.Get(ctx, a.Name(), crossrefBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("sources: crossref fetch: %w", err)
	}

	var resp crossrefResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sources: crossref parse: %w", err)
	}

	out := make([]*record.Record, 0, len(resp.Message.Items))
	for _, item := range resp.Message.Items {
		rec, ok := a.convert(item, dateThreshold)
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

func (a *CrossrefAdapter) convert(item crossrefItem, dateThreshold time.Time) (*record.Record, bool) {
	if len(item.Title) == 0 {
		return nil, false
	}
	title := collapseWhitespace(item.Title[0])
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}

	published, fidelity, ok := crossrefDate(item.Published)
	if !ok {
		published, fidelity, ok = crossrefDate(item.PublishedPrint)
	}
	if !ok {
		return nil, false
	}
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypePaper)
	rec.Title = title
	if len(item.Abstract) > 0 {
		rec.Summary = collapseWhitespace(item.Abstract)
	}
	rec.Published = published
	rec.DateFidelity = fidelity
	rec.Citations = item.IsReferencedByCount
	rec.Link = item.URL
	if len(item.ContainerTitle) > 0 {
		rec.Venue = item.ContainerTitle[0]
	}
	for _, author := range item.Author {
		name := collapseWhitespace(author.Given + " " + author.Family)
		if name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	if item.DOI != "" {
		rec.ExternalIDs[record.NSDOI] = item.DOI
	}
	for _, subject := range item.Subject {
		rec.AddTag(subject)
	}
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

func crossrefDate(d crossrefDateParts) (time.Time, record.DateFidelity, bool) {
	parts := d.DateParts
	if len(parts) == 0 || len(parts[0]) == 0 {
		return time.Time{}, "", false
	}
	p := parts[0]
	year := p[0]
	month, day := 1, 1
	fidelity := record.FidelityYear
	if len(p) >= 2 {
		month = p[1]
		fidelity = record.FidelityMonth
	}
	if len(p) >= 3 {
		day = p[2]
		fidelity = record.FidelityDay
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), fidelity, true
}

type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefDateParts struct {
	DateParts [][]int `json:"date-parts"`
}

type crossrefItem struct {
	DOI                 string            `json:"DOI"`
	Title               []string          `json:"title"`
	Abstract            string            `json:"abstract"`
	URL                 string            `json:"URL"`
	ContainerTitle       []string          `json:"container-title"`
	Subject              []string          `json:"subject"`
	IsReferencedByCount  int               `json:"is-referenced-by-count"`
	Published            crossrefDateParts `json:"published"`
	PublishedPrint       crossrefDateParts `json:"published-print"`
	Author               []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
}
