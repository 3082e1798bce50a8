package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/techsignal/internal/record"
)

func newMockPersister(t *testing.T) (*PostgresPersister, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewPostgresPersister(sqlxDB, 5*time.Second), mock
}

func TestPostgresPersister_Migrate_ExecutesSchema(t *testing.T) {
	p, mock := newMockPersister(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS catalog_records").WillReturnResult(sqlmock.NewResult(0, 0))

	err := p.Migrate(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPersister_UpsertBatch_EmptyIsNoop(t *testing.T) {
	p, mock := newMockPersister(t)
	err := p.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPersister_UpsertBatch_CommitsOneTransactionPerBatch(t *testing.T) {
	p, mock := newMockPersister(t)

	r := record.New(record.TypePaper)
	r.ID = "arxiv:2401.00001"
	r.Title = "Scaling Laws for Transformer Attention"
	r.Published = time.Now().Add(-24 * time.Hour)
	r.Updated = time.Now()
	r.AddTag("llm")

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO catalog_records")
	mock.ExpectExec("INSERT INTO catalog_records").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := p.UpsertBatch(context.Background(), []*record.Record{r})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPersister_UpsertBatch_RollsBackOnExecError(t *testing.T) {
	p, mock := newMockPersister(t)

	r := record.New(record.TypeNews)
	r.ID = "news:1"
	r.Title = "Broken row"

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO catalog_records")
	mock.ExpectExec("INSERT INTO catalog_records").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := p.UpsertBatch(context.Background(), []*record.Record{r})
	require.Error(t, err)
}

func TestPostgresPersister_LoadAll_DecodesRows(t *testing.T) {
	p, mock := newMockPersister(t)

	cols := []string{"id", "type", "title", "summary", "published", "updated", "date_fidelity",
		"authors", "link", "pdf_link", "venue", "tags", "categories", "citations",
		"external_ids", "technologies", "industries", "metadata"}
	now := time.Now()
	rows := sqlmock.NewRows(cols).AddRow(
		"arxiv:2401.00001", "paper", "Scaling Laws", "summary text", now, now, "day",
		[]byte(`["A. Author"]`), "https://example.com", "", "NeurIPS",
		[]byte(`["llm"]`), []byte(`["cs.LG"]`), 3,
		[]byte(`{}`), []byte(`["transformers"]`), []byte(`["ai"]`), []byte(`{}`),
	)
	mock.ExpectQuery("SELECT id, type, title").WillReturnRows(rows)

	out, err := p.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "arxiv:2401.00001", out[0].ID)
	require.Equal(t, record.TypePaper, out[0].Type)
	require.Contains(t, out[0].TagList(), "llm")
	require.Contains(t, out[0].TechnologyList(), "transformers")
	require.NoError(t, mock.ExpectationsWereMet())
}
