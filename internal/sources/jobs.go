package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

// JobBoard is one Greenhouse-shaped job board the JobAdapter polls
// (`GET {BoardURL}/embed/job_board?for={Company}` JSON API).
type JobBoard struct {
	Company  string
	BoardURL string
}

// JobAdapter fetches open engineering/research postings from a set of
// configured Greenhouse job boards, used as a proxy signal for which
// technologies employers are actively hiring for.
type JobAdapter struct {
	client *Client
	boards []JobBoard
}

func NewJobAdapter(client *Client, boards []JobBoard) *JobAdapter {
	return &JobAdapter{client: client, boards: boards}
}

func (a *JobAdapter) Name() string { return "job" }

func (a *JobAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	perBoard := limit
	if len(a.boards) > 0 {
		perBoard = limit / len(a.boards)
	}
	if perBoard <= 0 {
		perBoard = 20
	}

	out := make([]*record.Record, 0, limit)
	var lastErr error
	for _, board := range a.boards {
		items, err := a.fetchBoard(ctx, board, perBoard, dateThreshold)
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
		return nil, fmt.Errorf("sources: job: all boards failed: %w", lastErr)
	}
	return out, nil
}

func (a *JobAdapter) fetchBoard(ctx context.Context, board JobBoard, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	body, err := a.client.Get(ctx, a.Name(), board.BoardURL+"/embed/job_board?for="+board.Company, nil)
	if err != nil {
		return nil, err
	}
	var resp greenhouseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sources: job: parse %s: %w", board.Company, err)
	}

	out := make([]*record.Record, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		rec, ok := a.convert(board, job, dateThreshold)
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

func (a *JobAdapter) convert(board JobBoard, job greenhouseJob, dateThreshold time.Time) (*record.Record, bool) {
	title := collapseWhitespace(job.Title)
	if title == "" || !record.IsEnglish(title) {
		return nil, false
	}
	published, err := time.Parse(time.RFC3339, job.UpdatedAt)
	if err != nil {
		return nil, false
	}
	if published.Before(dateThreshold) {
		return nil, false
	}

	rec := record.New(record.TypeJob)
	rec.Title = title
	rec.Published = published
	rec.Link = job.AbsoluteURL
	rec.Venue = board.Company
	if job.Location.Name != "" {
		rec.AddTag(job.Location.Name)
	}
	for _, dept := range job.Departments {
		rec.AddCategory(dept.Name)
	}
	rec.ExternalIDs["job"] = fmt.Sprintf("%s:%d", board.Company, job.ID)
	record.ClassifyIndustries(rec)
	record.ExtractTechnologies(rec)
	rec.Finalize()
	if !rec.Valid() {
		return nil, false
	}
	return rec, true
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	UpdatedAt   string `json:"updated_at"`
	AbsoluteURL string `json:"absolute_url"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
}
