package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStance_PositiveLanguage_Optimistic(t *testing.T) {
	assert.Equal(t, StanceOptimistic, deriveStance("This is a huge breakthrough and will drive massive growth."))
}

func TestDeriveStance_NegativeLanguage_Critical(t *testing.T) {
	assert.Equal(t, StanceCritical, deriveStance("This was a complete failure and led to decline and lawsuits."))
}

func TestDeriveStance_NeutralLanguage_Neutral(t *testing.T) {
	assert.Equal(t, StanceNeutral, deriveStance("The meeting started at noon."))
}

func TestDeriveCertainty_HighMarker(t *testing.T) {
	assert.Equal(t, CertaintyHigh, deriveCertainty("This will definitely happen."))
}

func TestDeriveCertainty_LowMarker(t *testing.T) {
	assert.Equal(t, CertaintyLow, deriveCertainty("This might possibly happen."))
}

func TestDeriveCertainty_DefaultsToMedium(t *testing.T) {
	assert.Equal(t, CertaintyMedium, deriveCertainty("This happened."))
}

type fakeEdgeProvider struct {
	response string
	err      error
}

func (f *fakeEdgeProvider) Name() string { return "fake" }
func (f *fakeEdgeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return f.response, f.err
}

func TestClassifyEdge_UnrelatedResponse_ReturnsFalse(t *testing.T) {
	s := &Store{provider: &fakeEdgeProvider{response: `{"edgeType":"UNRELATED","confidence":0.9}`}}
	_, ok := s.classifyEdge(context.Background(), Atom{ID: "a"}, Atom{ID: "b"})
	assert.False(t, ok)
}

func TestClassifyEdge_ValidRelation_ReturnsEdge(t *testing.T) {
	s := &Store{provider: &fakeEdgeProvider{response: `{"edgeType":"corroboration","confidence":0.8}`}}
	edge, ok := s.classifyEdge(context.Background(), Atom{ID: "a"}, Atom{ID: "b"})
	assert.True(t, ok)
	assert.Equal(t, EdgeCorroboration, edge.Type)
	assert.Equal(t, "a", edge.FromID)
	assert.Equal(t, "b", edge.ToID)
	assert.Equal(t, 0.8, edge.Confidence)
}

func TestClassifyEdge_NilProvider_ReturnsFalse(t *testing.T) {
	s := &Store{provider: nil}
	_, ok := s.classifyEdge(context.Background(), Atom{ID: "a"}, Atom{ID: "b"})
	assert.False(t, ok)
}

func TestClassifyEdge_LLMError_ReturnsFalse(t *testing.T) {
	s := &Store{provider: &fakeEdgeProvider{err: assertErr{}}}
	_, ok := s.classifyEdge(context.Background(), Atom{ID: "a"}, Atom{ID: "b"})
	assert.False(t, ok)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
