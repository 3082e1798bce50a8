package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

const githubSearchURL = "https://api.github.com/search/repositories"

// githubTopics rotates the GitHub topic filter across cycles the same
// way ArxivAdapter rotates categories.
var githubTopics = []string{
	"machine-learning", "llm", "computer-vision", "robotics",
	"quantum-computing", "nlp", "reinforcement-learning", "blockchain",
}

// GitHubAdapter fetches recently-created or recently-updated
// repositories matching a rotating topic, via the GitHub REST search
// API. Authentication is optional; an empty token still works against
// GitHub's unauthenticated rate limit.
type GitHubAdapter struct {
	client *Client
	token  string
}

func NewGitHubAdapter(client *Client, token string) *GitHubAdapter {
	return &GitHubAdapter{client: client, token: token}
}

func (a *GitHubAdapter) Name() string { return "github" }

func (a *GitHubAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perPage := limit
	if perPage <= 0 || perPage > 100 {
		perPage = 30
	}
	topic := githubTopics[time.Now().Hour()%len(githubTopics)]

	q := url.Values{}
	q.Set("q", fmt.Sprintf("topic:%s created:>%s", topic, dateThreshold.Format("2006-01-02")))
	q.Set("sort", "updated")
	q.Set("order", "desc")
	q.Set("per_page", fmt.Sprintf("%d", perPage))

	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if a.token != "" {
		headers["Authorization"] = "Bearer " + a.token
	}

	body, err := a.client.Get(ctx, a.Name(), githubSearchURL+"?"+q.Encode(), headers)
	if err != nil {
		return nil, fmt.Errorf("sources: github fetch: %w", err)
	}

	var resp githubSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sources: github parse: %w", err)
	}

	out := make([]*record.Record, 0, len(resp.Items))
	for _, repo := range resp.Items {
		rec, ok := a.convert(repo, dateThreshold)
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

func (a *GitHubAdapter) convert(repo githubRepo, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(repo.FullName)
	if title == "" {
		return nil, false
	}
	if repo.Description != "" && !record.IsEnglish(repo.Description) {
		return nil, false
	}

	published, err := time.Parse(time.RFC3339, repo.CreatedAt)
	if err != nil {
		return nil, false
	}
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypeGithub)
	rec.Title = title
	rec.Summary = repo.Description
	rec.Published = published
	if updated, err := time.Parse(time.RFC3339, repo.UpdatedAt); err == nil {
		rec.Updated = updated
	}
	rec.Link = repo.HTMLURL
	rec.Citations = repo.StargazersCount
	if repo.Owner.Login != "" {
		rec.Authors = []string{repo.Owner.Login}
	}
	rec.ExternalIDs["github"] = fmt.Sprintf("%d", repo.ID)
	for _, topic := range repo.Topics {
		rec.AddTag(topic)
	}
	if repo.Language != "" {
		rec.AddTag(repo.Language)
	}
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

type githubSearchResponse struct {
	Items []githubRepo `json:"items"`
}

type githubRepo struct {
	ID              int64    `json:"id"`
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	HTMLURL         string   `json:"html_url"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	StargazersCount int      `json:"stargazers_count"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	Owner           struct {
		Login string `json:"login"`
	} `json:"owner"`
}
