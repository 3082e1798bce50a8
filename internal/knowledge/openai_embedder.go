package knowledge

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultEmbeddingModel = openai.AdaEmbeddingV2

// OpenAIEmbedder wraps go-openai's embeddings endpoint, following the
// same client-construction shape as internal/llm.OpenAIProvider.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: openai.NewClient(apiKey), model: defaultEmbeddingModel}
}

func (e *OpenAIEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("knowledge: embed: empty response")
	}
	return resp.Data[0].Embedding, nil
}
