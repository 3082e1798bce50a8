package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

const semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1/paper/search"

// SemanticScholarAdapter fetches recent papers from the Semantic
// Scholar Graph API, following the same query-rotation and
// convert-then-filter shape as ArxivAdapter but against a JSON rather
// than Atom response.
type SemanticScholarAdapter struct {
	client *Client
}

func NewSemanticScholarAdapter(client *Client) *SemanticScholarAdapter {
	return &SemanticScholarAdapter{client: client}
}

func (a *SemanticScholarAdapter) Name() string { return "semanticScholar" }

func (a *SemanticScholarAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perPage := limit
	if perPage <= 0 || perPage > 100 {
		perPage = 50
	}

	q := url.Values{}
	q.Set("query", topicForHour(time.Now().Hour()))
	q.Set("fields", "title,abstract,authors,externalIds,citationCount,venue,publicationDate,fieldsOfStudy,openAccessPdf")
	q.Set("limit", fmt.Sprintf("%d", perPage))
	q.Set("sort", "publicationDate:desc")

	body, err := a.client.Get(ctx, a.Name(), semanticScholarBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("sources: semanticScholar fetch: %w", err)
	}

	var resp semanticScholarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sources: semanticScholar parse: %w", err)
	}

	out := make([]*record.Record, 0, len(resp.Data))
	for _, p := range resp.Data {
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

func (a *SemanticScholarAdapter) convert(p semanticScholarPaper, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(p.Title)
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}
	published, err := time.Parse("2006-01-02", p.PublicationDate)
	if err != nil {
		return nil, false
	}
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypePaper)
	rec.Title = title
	rec.Summary = collapseWhitespace(p.Abstract)
	rec.Published = published
	rec.DateFidelity = record.FidelityDay
	rec.Venue = p.Venue
	rec.Citations = p.CitationCount
	if p.OpenAccessPDF.URL != "" {
		rec.PDFLink = p.OpenAccessPDF.URL
	}
	for _, author := range p.Authors {
		if author.Name != "" {
			rec.Authors = append(rec.Authors, author.Name)
		}
	}
	if p.ExternalIDs.DOI != "" {
		rec.ExternalIDs[record.NSDOI] = p.ExternalIDs.DOI
	}
	if p.ExternalIDs.ArXiv != "" {
		rec.ExternalIDs[record.NSArxiv] = p.ExternalIDs.ArXiv
	}
	if p.PaperID != "" {
		rec.ExternalIDs[record.NSSemanticScholar] = p.PaperID
	}
	for _, field := range p.FieldsOfStudy {
		rec.AddTag(field)
	}
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

type semanticScholarResponse struct {
	Data []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	PaperID         string   `json:"paperId"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	Venue           string   `json:"venue"`
	PublicationDate string   `json:"publicationDate"`
	CitationCount   int      `json:"citationCount"`
	FieldsOfStudy   []string `json:"fieldsOfStudy"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	OpenAccessPDF struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}
