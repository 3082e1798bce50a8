package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNew_EmptyAPIKey_ReturnsNoneProvider(t *testing.T) {
	p := New(Config{Provider: "anthropic", APIKey: ""})
	assert.Equal(t, "none", p.Name())
}

func TestNew_UnknownProviderName_ReturnsNoneProvider(t *testing.T) {
	p := New(Config{Provider: "bogus", APIKey: "key"})
	assert.Equal(t, "none", p.Name())
}

func TestNoneProvider_AlwaysReturnsErrNotConfigured(t *testing.T) {
	p := NoneProvider{}
	_, err := p.Complete(context.Background(), "sys", "user", 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestExtractJSON_StripsMarkdownFence(t *testing.T) {
	raw := "```json\n{\"a\":1}\n```"
	assert.Equal(t, `{"a":1}`, ExtractJSON(raw))
}

func TestExtractJSON_NoFence_ReturnsUnchanged(t *testing.T) {
	raw := `{"a":1}`
	assert.Equal(t, raw, ExtractJSON(raw))
}

func TestRequireFields_MissingField_ReturnsError(t *testing.T) {
	err := RequireFields(`{"a":1}`, "a", "b")
	require.Error(t, err)
}

func TestRequireFields_InvalidJSON_ReturnsError(t *testing.T) {
	err := RequireFields(`not json`, "a")
	require.Error(t, err)
}

func TestRequireFields_AllPresent_NoError(t *testing.T) {
	err := RequireFields(`{"a":1,"b":2}`, "a", "b")
	assert.NoError(t, err)
}

func TestWithDefault_SetsMissingField(t *testing.T) {
	out, err := WithDefault(`{"a":1}`, "b", "default")
	require.NoError(t, err)
	assert.Equal(t, "default", gjson.Get(out, "b").String())
}

func TestWithDefault_LeavesPresentFieldUnchanged(t *testing.T) {
	out, err := WithDefault(`{"a":1,"b":"existing"}`, "b", "default")
	require.NoError(t, err)
	assert.Equal(t, "existing", gjson.Get(out, "b").String())
}
