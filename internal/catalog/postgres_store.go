package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/techsignal/internal/record"
)

// PostgresPersister upserts records in batches keyed by id, grounded
// on the teacher's internal/persistence/postgres.premoveRepo.UpsertBatch:
// one prepared statement, one transaction per batch, ON CONFLICT DO
// UPDATE — generalized from a fixed 19-column trading artifact to the
// Canonical Record's variable-shaped tag/externalId sets, which are
// stored as JSONB columns rather than individual columns.
type PostgresPersister struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPostgresPersister(db *sqlx.DB, timeout time.Duration) *PostgresPersister {
	return &PostgresPersister{db: db, timeout: timeout}
}

const catalogRecordsSchema = `
CREATE TABLE IF NOT EXISTS catalog_records (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	summary TEXT,
	published TIMESTAMPTZ NOT NULL,
	updated TIMESTAMPTZ NOT NULL,
	date_fidelity TEXT NOT NULL,
	authors JSONB,
	link TEXT,
	pdf_link TEXT,
	venue TEXT,
	tags JSONB,
	categories JSONB,
	citations INTEGER NOT NULL DEFAULT 0,
	external_ids JSONB,
	technologies JSONB,
	industries JSONB,
	metadata JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_catalog_records_published ON catalog_records (published DESC);
`

// Migrate creates the catalog_records table if it doesn't exist.
func (p *PostgresPersister) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if _, err := p.db.ExecContext(ctx, catalogRecordsSchema); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

// UpsertBatch writes a batch of records in a single transaction, keyed
// by id, per spec.md §4.4 "records are upserted in batches keyed by id".
func (p *PostgresPersister) UpsertBatch(ctx context.Context, records []*record.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout*time.Duration(len(records)/50+1))
	defer cancel()

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO catalog_records
		(id, type, title, summary, published, updated, date_fidelity, authors, link,
		 pdf_link, venue, tags, categories, citations, external_ids, technologies,
		 industries, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			updated = EXCLUDED.updated,
			authors = EXCLUDED.authors,
			link = EXCLUDED.link,
			pdf_link = EXCLUDED.pdf_link,
			venue = EXCLUDED.venue,
			tags = EXCLUDED.tags,
			categories = EXCLUDED.categories,
			citations = EXCLUDED.citations,
			external_ids = EXCLUDED.external_ids,
			technologies = EXCLUDED.technologies,
			industries = EXCLUDED.industries,
			metadata = EXCLUDED.metadata,
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("catalog: prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		row, err := toRow(r)
		if err != nil {
			return fmt.Errorf("catalog: marshal record %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			row.id, row.recordType, row.title, row.summary, row.published, row.updated,
			row.dateFidelity, row.authors, row.link, row.pdfLink, row.venue, row.tags,
			row.categories, row.citations, row.externalIDs, row.technologies,
			row.industries, row.metadata,
		); err != nil {
			return fmt.Errorf("catalog: upsert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}
	return nil
}

// LoadAll rehydrates every row as a Canonical Record, for start-up
// rehydration when a relational store is configured.
func (p *PostgresPersister) LoadAll(ctx context.Context) ([]*record.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.db.QueryxContext(ctx, `SELECT id, type, title, summary, published, updated,
		date_fidelity, authors, link, pdf_link, venue, tags, categories, citations,
		external_ids, technologies, industries, metadata FROM catalog_records`)
	if err != nil {
		return nil, fmt.Errorf("catalog: load all: %w", err)
	}
	defer rows.Close()

	var out []*record.Record
	for rows.Next() {
		var row pgRow
		if err := rows.Scan(&row.id, &row.recordType, &row.title, &row.summary, &row.published,
			&row.updated, &row.dateFidelity, &row.authors, &row.link, &row.pdfLink, &row.venue,
			&row.tags, &row.categories, &row.citations, &row.externalIDs, &row.technologies,
			&row.industries, &row.metadata); err != nil {
			return nil, fmt.Errorf("catalog: scan row: %w", err)
		}
		rec, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("catalog: decode row %s: %w", row.id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type pgRow struct {
	id           string
	recordType   string
	title        string
	summary      string
	published    time.Time
	updated      time.Time
	dateFidelity string
	authors      []byte
	link         string
	pdfLink      string
	venue        string
	tags         []byte
	categories   []byte
	citations    int
	externalIDs  []byte
	technologies []byte
	industries   []byte
	metadata     []byte
}

func toRow(r *record.Record) (pgRow, error) {
	authors, err := json.Marshal(r.Authors)
	if err != nil {
		return pgRow{}, err
	}
	tags, err := json.Marshal(r.TagList())
	if err != nil {
		return pgRow{}, err
	}
	categories, err := json.Marshal(r.CategoryList())
	if err != nil {
		return pgRow{}, err
	}
	externalIDs, err := json.Marshal(r.ExternalIDs)
	if err != nil {
		return pgRow{}, err
	}
	technologies, err := json.Marshal(r.TechnologyList())
	if err != nil {
		return pgRow{}, err
	}
	industries, err := json.Marshal(r.IndustryList())
	if err != nil {
		return pgRow{}, err
	}
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return pgRow{}, err
	}
	return pgRow{
		id: r.ID, recordType: string(r.Type), title: r.Title, summary: r.Summary,
		published: r.Published, updated: r.Updated, dateFidelity: string(r.DateFidelity),
		authors: authors, link: r.Link, pdfLink: r.PDFLink, venue: r.Venue,
		tags: tags, categories: categories, citations: r.Citations,
		externalIDs: externalIDs, technologies: technologies, industries: industries,
		metadata: metadata,
	}, nil
}

func fromRow(row pgRow) (*record.Record, error) {
	r := record.New(record.Type(row.recordType))
	r.ID = row.id
	r.Title = row.title
	r.Summary = row.summary
	r.Published = row.published
	r.Updated = row.updated
	r.DateFidelity = record.DateFidelity(row.dateFidelity)
	r.Link = row.link
	r.PDFLink = row.pdfLink
	r.Venue = row.venue
	r.Citations = row.citations

	if err := json.Unmarshal(row.authors, &r.Authors); err != nil {
		return nil, err
	}
	var tags, categories, technologies, industries []string
	if err := json.Unmarshal(row.tags, &tags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.categories, &categories); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.technologies, &technologies); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.industries, &industries); err != nil {
		return nil, err
	}
	for _, t := range tags {
		r.AddTag(t)
	}
	for _, c := range categories {
		r.AddCategory(c)
	}
	for _, t := range technologies {
		r.AddTechnology(t)
	}
	for _, i := range industries {
		r.AddIndustry(i)
	}
	if err := json.Unmarshal(row.externalIDs, &r.ExternalIDs); err != nil {
		return nil, err
	}
	if len(row.metadata) > 0 {
		if err := json.Unmarshal(row.metadata, &r.Metadata); err != nil {
			return nil, err
		}
	}
	return r, nil
}
