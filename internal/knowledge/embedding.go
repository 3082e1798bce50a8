package knowledge

import "context"

// EmbeddingClient produces a fixed-length embedding vector for a
// string, grounded on the GenerateEmbedding(ctx, text) ([]float32,
// error) shape used by the retrieval pack's embedding-pipeline tests
// (kubernaut's MockEmbeddingAPIClient) — a single-method interface
// decoupling the knowledge store from a specific embedding vendor.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}
