package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

const (
	pubmedESearchURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedESummaryURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// PubMedAdapter fetches recent articles via the NCBI E-utilities
// two-step search: esearch for a list of PMIDs, then esummary for
// their metadata. Both legs share the adapter's per-source rate
// limiter slot.
type PubMedAdapter struct {
	client *Client
}

func NewPubMedAdapter(client *Client) *PubMedAdapter { return &PubMedAdapter{client: client} }

func (a *PubMedAdapter) Name() string { return "pubmed" }

func (a *PubMedAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perPage := limit
	if perPage <= 0 || perPage > 100 {
		perPage = 50
	}

	search := url.Values{}
	search.Set("db", "pubmed")
	search.Set("retmode", "json")
	search.Set("retmax", fmt.Sprintf("%d", perPage))
	search.Set("sort", "most recent")
	search.Set("term", topicForHour(time.Now().Hour()+9))

	searchBody, err := a.client.Get(ctx, a.Name(), pubmedESearchURL+"?"+search.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("sources: pubmed esearch: %w", err)
	}

	var searchResp pubmedSearchResponse
	if err := json.Unmarshal(searchBody, &searchResp); err != nil {
		return nil, fmt.Errorf("sources: pubmed esearch parse: %w", err)
	}
	if len(searchResp.ESearchResult.IDList) == 0 {
		return nil, nil
	}

	ids := searchResp.ESearchResult.IDList
	summary := url.Values{}
	summary.Set("db", "pubmed")
	summary.Set("retmode", "json")
	summary.Set("id", joinCSV(ids))

	summaryBody, err := a.client.Get(ctx, a.Name(), pubmedESummaryURL+"?"+summary.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("sources: pubmed esummary: %w", err)
	}

	var summaryResp pubmedSummaryResponse
	if err := json.Unmarshal(summaryBody, &summaryResp); err != nil {
		return nil, fmt.Errorf("sources: pubmed esummary parse: %w", err)
	}

	out := make([]*record.Record, 0, len(ids))
	for _, id := range ids {
		raw, ok := summaryResp.Result[id]
		if !ok {
			continue
		}
		var doc pubmedDocSummary
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		rec, ok := a.convert(doc, dateThreshold)
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

func (a *PubMedAdapter) convert(d pubmedDocSummary, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(d.Title)
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}

	published, err := time.Parse("2006/01/02", truncatePubDate(d.PubDate))
	if err != nil {
		return nil, false
	}
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypePaper)
	rec.Title = title
	rec.Published = published
	rec.Venue = d.FullJournalName
	for _, author := range d.Authors {
		if author.Name != "" {
			rec.Authors = append(rec.Authors, author.Name)
		}
	}
	rec.ExternalIDs[record.NSPubMed] = d.UID
	for _, doiID := range d.ArticleIDs {
		if doiID.IDType == "doi" {
			rec.ExternalIDs[record.NSDOI] = doiID.Value
		}
	}
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

// truncatePubDate normalizes PubMed's loose "2024 Jan 05"/"2024/01/05"
// PubDate format down to yyyy/mm/dd; falls back to Jan 1 when month/day
// are absent.
func truncatePubDate(raw string) string {
	if len(raw) >= 10 && raw[4] == '/' {
		return raw[:10]
	}
	if len(raw) >= 4 {
		return raw[:4] + "/01/01"
	}
	return raw
}

func joinCSV(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

type pubmedSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDocSummary struct {
	UID             string `json:"uid"`
	Title           string `json:"title"`
	PubDate         string `json:"pubdate"`
	FullJournalName string `json:"fulljournalname"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}
