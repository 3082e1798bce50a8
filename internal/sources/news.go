package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/techsignal/internal/record"
)

// newsContentThreshold is the minimum RSS-supplied content length
// before NewsAdapter bothers fetching the full article, grounded on
// catchup-feed-backend's Service.enhanceContent threshold check.
const newsContentThreshold = 500

// NewsFeed is one RSS/Atom source the NewsAdapter polls.
type NewsFeed struct {
	Name string
	URL  string
}

// NewsAdapter pulls items from a configured set of RSS/Atom feeds via
// gofeed, then enhances any item whose feed-supplied content falls
// short of newsContentThreshold by fetching and extracting the full
// article with go-readability/goquery — grounded on
// catchup-feed-backend's Service.enhanceContent: never error out of
// enhancement, always fall back to the feed-supplied content.
type NewsAdapter struct {
	client *Client
	feeds  []NewsFeed
	parser *gofeed.Parser
}

func NewNewsAdapter(client *Client, feeds []NewsFeed) *NewsAdapter {
	return &NewsAdapter{client: client, feeds: feeds, parser: gofeed.NewParser()}
}

func (a *NewsAdapter) Name() string { return "news" }

func (a *NewsAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perFeed := limit
	if len(a.feeds) > 0 {
		perFeed = limit / len(a.feeds)
	}
	if perFeed <= 0 {
		perFeed = 20
	}

	out := make([]*record.Record, 0, limit)
	var lastErr error
	for _, feed := range a.feeds {
		items, err := a.fetchFeed(ctx, feed, perFeed, dateThreshold)
		if err != nil {
			log.Warn().Str("source", a.Name()).Str("feed", feed.Name).Err(err).Msg("feed fetch failed, skipping")
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
		return nil, fmt.Errorf("sources: news: all feeds failed: %w", lastErr)
	}
	return out, nil
}

func (a *NewsAdapter) fetchFeed(ctx context.Context, feed NewsFeed, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	body, err := a.client.Get(ctx, a.Name(), feed.URL, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := a.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("sources: news: parse %s: %w", feed.Name, err)
	}

	out := make([]*record.Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		rec, ok := a.convert(ctx, feed, item, dateThreshold)
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

func (a *NewsAdapter) convert(ctx context.Context, feed NewsFeed, item *gofeed.Item, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(item.Title)
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}
	if item.PublishedParsed == nil {
		return nil, false
	}
	published := *item.PublishedParsed
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypeNews)
	rec.Title = title
	rec.Published = published
	rec.Link = item.Link
	rec.Venue = feed.Name
	if item.Author != nil && item.Author.Name != "" {
		rec.Authors = []string{item.Author.Name}
	}
	for _, cat := range item.Categories {
		rec.AddTag(cat)
	}

	rec.Summary = a.enhanceContent(ctx, item)
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

// enhanceContent fetches the full article only when the feed-supplied
// description/content falls short of newsContentThreshold; any failure
// falls back to the feed-supplied text. It never returns an error.
func (a *NewsAdapter) enhanceContent(ctx context.Context, item *gofeed.Item) string {
	rssContent := feedItemText(item)
	if len(rssContent) >= newsContentThreshold {
		return rssContent
	}
	if item.Link == "" {
		return rssContent
	}

	full, err := a.fetchArticleText(ctx, item.Link)
	if err != nil || len(full) <= len(rssContent) {
		return rssContent
	}
	return full
}

func (a *NewsAdapter) fetchArticleText(ctx context.Context, link string) (string, error) {
	body, err := a.client.Get(ctx, a.Name(), link, nil)
	if err != nil {
		return "", err
	}

	parsedURL, err := parseURL(link)
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err == nil && collapseWhitespace(article.TextContent) != "" {
		return collapseWhitespace(article.TextContent), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("sources: news: extract %s: %w", link, err)
	}
	return collapseWhitespace(doc.Find("p").Text()), nil
}

func feedItemText(item *gofeed.Item) string {
	if item.Content != "" {
		return collapseWhitespace(stripTags(item.Content))
	}
	return collapseWhitespace(stripTags(item.Description))
}

func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}
