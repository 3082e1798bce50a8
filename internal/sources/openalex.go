package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

const openAlexBaseURL = "https://api.openalex.org/works"

// OpenAlexAdapter fetches recent works from the OpenAlex API.
type OpenAlexAdapter struct {
	client *Client
}

func NewOpenAlexAdapter(client *Client) *OpenAlexAdapter { return &OpenAlexAdapter{client: client} }

func (a *OpenAlexAdapter) Name() string { return "openAlex" }

func (a *OpenAlexAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perPage := limit
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	q := url.Values{}
	q.Set("search", topicForHour(time.Now().Hour()+3))
	q.Set("sort", "publication_date:desc")
	q.Set("per-page", fmt.Sprintf("%d", perPage))
	q.Set("filter", "from_publication_date:"+dateThreshold.Format("2006-01-02"))

	body, err := a.client.Get(ctx, a.Name(), openAlexBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("sources: openAlex fetch: %w", err)
	}

	var resp openAlexResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sources: openAlex parse: %w", err)
	}

	out := make([]*record.Record, 0, len(resp.Results))
	for _, w := range resp.Results {
		rec, ok := a.convert(w, dateThreshold)
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

func (a *OpenAlexAdapter) convert(w openAlexWork, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(w.Title)
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}
	published, err := time.Parse("2006-01-02", w.PublicationDate)
	if err != nil {
		return nil, false
	}
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypePaper)
	rec.Title = title
	rec.Summary = reconstructAbstract(w.AbstractInvertedIndex)
	rec.Published = published
	rec.Citations = w.CitedByCount
	rec.Link = w.ID
	if w.PrimaryLocation.PDFURL != "" {
		rec.PDFLink = w.PrimaryLocation.PDFURL
	}
	rec.Venue = w.PrimaryLocation.Source.DisplayName
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			rec.Authors = append(rec.Authors, a.Author.DisplayName)
		}
	}
	if w.DOI != "" {
		rec.ExternalIDs[record.NSDOI] = w.DOI
	}
	if w.ID != "" {
		rec.ExternalIDs[record.NSOpenAlex] = openAlexID(w.ID)
	}
	for _, concept := range w.Concepts {
		rec.AddTag(concept.DisplayName)
	}
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

// reconstructAbstract rebuilds OpenAlex's inverted-index abstract
// representation (word → positions) into plain text.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	maxPos := 0
	for _, positions := range index {
		for _, p := range positions {
			if p > maxPos {
				maxPos = p
			}
		}
	}
	words := make([]string, maxPos+1)
	for word, positions := range index {
		for _, p := range positions {
			if p >= 0 && p < len(words) {
				words[p] = word
			}
		}
	}
	return collapseWhitespace(joinWords(words))
}

func joinWords(words []string) string {
	out := ""
	for _, w := range words {
		if w == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += w
	}
	return out
}

func openAlexID(iri string) string {
	const prefix = "https://openalex.org/"
	if len(iri) > len(prefix) && iri[:len(prefix)] == prefix {
		return iri[len(prefix):]
	}
	return iri
}

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string              `json:"id"`
	Title                 string              `json:"title"`
	DOI                   string              `json:"doi"`
	PublicationDate       string              `json:"publication_date"`
	CitedByCount          int                 `json:"cited_by_count"`
	AbstractInvertedIndex map[string][]int    `json:"abstract_inverted_index"`
	PrimaryLocation       struct {
		PDFURL string `json:"pdf_url"`
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
	Authorships []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	Concepts []struct {
		DisplayName string `json:"display_name"`
	} `json:"concepts"`
}
