package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/techsignal/internal/breakdown"
	"github.com/sawpanic/techsignal/internal/llm"
)

// ingestBatchSize is spec.md §4.10 step 4's "insert atoms in batches
// of 5."
const ingestBatchSize = 5

// similarityThreshold is spec.md §4.10 step 4's "nearest neighbors
// above a cosine threshold (e.g., 0.75)."
const similarityThreshold = 0.75

const correlationSchema = `
CREATE TABLE IF NOT EXISTS insight_atoms (
	id TEXT PRIMARY KEY,
	video_id TEXT NOT NULL,
	segment_index INTEGER NOT NULL,
	topic TEXT,
	entity TEXT,
	claim TEXT NOT NULL,
	stance TEXT NOT NULL,
	certainty TEXT NOT NULL,
	quote TEXT,
	start_time_seconds DOUBLE PRECISION,
	end_time_seconds DOUBLE PRECISION,
	embedding vector(1536),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS atom_links (
	from_id TEXT NOT NULL REFERENCES insight_atoms(id) ON DELETE CASCADE,
	to_id TEXT NOT NULL REFERENCES insight_atoms(id) ON DELETE CASCADE,
	edge_type TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (from_id, to_id)
);
`

// Store is the pgvector-backed Insight Atom store. It structurally
// satisfies breakdown.KnowledgeIngestor (IngestSegments) without
// breakdown importing this package, the same decoupling idiom used
// between internal/scheduler and internal/analytics.
type Store struct {
	pool      *pgxpool.Pool
	embedder  EmbeddingClient
	provider  llm.Provider
	timeout   time.Duration
}

var _ breakdown.KnowledgeIngestor = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, embedder EmbeddingClient, provider llm.Provider) *Store {
	return &Store{pool: pool, embedder: embedder, provider: provider, timeout: 30 * time.Second}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("knowledge: enable pgvector extension: %w", err)
	}
	if _, err := s.pool.Exec(ctx, correlationSchema); err != nil {
		return fmt.Errorf("knowledge: migrate: %w", err)
	}
	return nil
}

// IngestSegments embeds each qualifying insight, derives stance and
// certainty, deletes any atoms already on record for videoID (replace,
// not append — spec.md §9's Open Question resolution), inserts the
// new atoms in batches of 5, and kicks off an asynchronous correlation
// pass per atom, per spec.md §4.10 step 4.
func (s *Store) IngestSegments(ctx context.Context, videoID string, segments []breakdown.Segment) error {
	if s.embedder == nil {
		return nil
	}

	atoms, err := s.buildAtoms(ctx, videoID, segments)
	if err != nil {
		return err
	}
	if len(atoms) == 0 {
		return nil
	}

	if err := s.replaceAtoms(ctx, videoID, atoms); err != nil {
		return err
	}

	detached := context.WithoutCancel(ctx)
	go s.correlateAll(detached, atoms)

	return nil
}

func (s *Store) buildAtoms(ctx context.Context, videoID string, segments []breakdown.Segment) ([]Atom, error) {
	var atoms []Atom
	for segIdx, seg := range segments {
		for _, insight := range seg.Insights {
			embedding, err := s.embedder.GenerateEmbedding(ctx, insight.Text)
			if err != nil {
				log.Warn().Str("videoId", videoID).Err(err).Msg("knowledge: embedding failed, skipping insight")
				continue
			}
			atoms = append(atoms, Atom{
				ID:           uuid.NewString(),
				VideoID:      videoID,
				SegmentIndex: segIdx,
				Topic:        seg.Title,
				Entity:       insight.Speaker,
				Claim:        insight.Text,
				Stance:       deriveStance(insight.Text),
				Certainty:    deriveCertainty(insight.Text),
				Quote:        insight.Context,
				StartTime:    seg.StartTime,
				EndTime:      seg.EndTime,
				Embedding:    embedding,
			})
		}
	}
	return atoms, nil
}

func (s *Store) replaceAtoms(ctx context.Context, videoID string, atoms []Atom) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("knowledge: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM insight_atoms WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("knowledge: delete existing atoms: %w", err)
	}

	for batchStart := 0; batchStart < len(atoms); batchStart += ingestBatchSize {
		end := batchStart + ingestBatchSize
		if end > len(atoms) {
			end = len(atoms)
		}
		for _, a := range atoms[batchStart:end] {
			_, err := tx.Exec(ctx, `
				INSERT INTO insight_atoms
				(id, video_id, segment_index, topic, entity, claim, stance, certainty, quote,
				 start_time_seconds, end_time_seconds, embedding)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
				a.ID, a.VideoID, a.SegmentIndex, a.Topic, a.Entity, a.Claim, string(a.Stance),
				string(a.Certainty), a.Quote, a.StartTime.Seconds(), a.EndTime.Seconds(),
				pgvector.NewVector(a.Embedding))
			if err != nil {
				return fmt.Errorf("knowledge: insert atom %s: %w", a.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("knowledge: commit: %w", err)
	}
	return nil
}
