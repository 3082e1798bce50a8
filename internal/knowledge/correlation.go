package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sawpanic/techsignal/internal/llm"
)

const edgeClassificationPrompt = `Classify the relationship between two claims extracted from separate videos. ` +
	`Respond with JSON only: {"edgeType":"CORROBORATION|CONTRADICTION|EXTENSION|PREDICTION_CHECK|RELATED|UNRELATED","confidence":<0..1>}`

// correlateAll runs the correlation pass for every freshly-inserted
// atom: find nearest neighbors above the cosine-similarity threshold,
// classify the relationship via the LLM client, and persist every
// non-UNRELATED edge. Errors are logged and the pass continues with
// the remaining atoms — a correlation failure must never block
// ingestion, which has already committed by the time this runs.
func (s *Store) correlateAll(ctx context.Context, atoms []Atom) {
	for _, atom := range atoms {
		neighbors, err := s.nearestNeighbors(ctx, atom)
		if err != nil {
			log.Warn().Str("atomId", atom.ID).Err(err).Msg("knowledge: neighbor query failed")
			continue
		}
		for _, neighbor := range neighbors {
			edge, ok := s.classifyEdge(ctx, atom, neighbor)
			if !ok {
				continue
			}
			if err := s.persistEdge(ctx, edge); err != nil {
				log.Warn().Str("from", edge.FromID).Str("to", edge.ToID).Err(err).Msg("knowledge: persist edge failed")
			}
		}
	}
}

// nearestNeighbors queries every atom (from a different video, so an
// atom never correlates against its own segment) whose embedding lies
// within a cosine distance of 1-similarityThreshold, using pgvector's
// <=> cosine-distance operator.
func (s *Store) nearestNeighbors(ctx context.Context, atom Atom) ([]Atom, error) {
	maxDistance := 1 - similarityThreshold

	rows, err := s.pool.Query(ctx, `
		SELECT id, video_id, segment_index, topic, entity, claim, stance, certainty, quote,
		       start_time_seconds, end_time_seconds
		FROM insight_atoms
		WHERE video_id <> $1 AND embedding <=> $2 <= $3
		ORDER BY embedding <=> $2
		LIMIT 10`,
		atom.VideoID, pgvector.NewVector(atom.Embedding), maxDistance)
	if err != nil {
		return nil, fmt.Errorf("knowledge: query neighbors: %w", err)
	}
	defer rows.Close()

	var out []Atom
	for rows.Next() {
		var n Atom
		var startSeconds, endSeconds float64
		var stance, certainty string
		if err := rows.Scan(&n.ID, &n.VideoID, &n.SegmentIndex, &n.Topic, &n.Entity, &n.Claim,
			&stance, &certainty, &n.Quote, &startSeconds, &endSeconds); err != nil {
			return nil, fmt.Errorf("knowledge: scan neighbor: %w", err)
		}
		n.Stance, n.Certainty = Stance(stance), Certainty(certainty)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) classifyEdge(ctx context.Context, a, b Atom) (Edge, bool) {
	if s.provider == nil {
		return Edge{}, false
	}

	prompt := fmt.Sprintf("Claim A: %s\nClaim B: %s", a.Claim, b.Claim)
	raw, err := s.provider.Complete(ctx, edgeClassificationPrompt, prompt, 256)
	if err != nil {
		return Edge{}, false
	}

	clean := llm.ExtractJSON(raw)
	if err := llm.RequireFields(clean, "edgeType"); err != nil {
		return Edge{}, false
	}

	edgeType := EdgeType(strings.ToUpper(gjson.Get(clean, "edgeType").String()))
	if edgeType == edgeUnrelated || edgeType == "" {
		return Edge{}, false
	}

	return Edge{
		FromID:     a.ID,
		ToID:       b.ID,
		Type:       edgeType,
		Confidence: gjson.Get(clean, "confidence").Float(),
	}, true
}

func (s *Store) persistEdge(ctx context.Context, edge Edge) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO atom_links (from_id, to_id, edge_type, confidence)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_id, to_id) DO UPDATE SET
			edge_type = EXCLUDED.edge_type, confidence = EXCLUDED.confidence`,
		edge.FromID, edge.ToID, string(edge.Type), edge.Confidence)
	return err
}
