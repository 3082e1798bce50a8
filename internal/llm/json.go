package llm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ExtractJSON strips a markdown code fence (```json ... ``` or plain
// ``` ... ```) that LLM providers commonly wrap JSON responses in,
// returning the raw JSON body. Text without a fence is returned
// unchanged. LLM output is untrusted input — §9's design note calls
// for validating it before it reaches any downstream parser.
func ExtractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// RequireFields validates that raw is well-formed JSON and that every
// path in fields resolves to a present (non-null) value, using gjson
// rather than a full unmarshal — untrusted LLM JSON is validated
// shape-first before any caller binds it to a typed struct.
func RequireFields(raw string, fields ...string) error {
	if !gjson.Valid(raw) {
		return fmt.Errorf("llm: invalid json")
	}
	for _, f := range fields {
		if !gjson.Get(raw, f).Exists() {
			return fmt.Errorf("llm: missing required field %q", f)
		}
	}
	return nil
}

// WithDefault sets path to value in raw when path is absent, using
// sjson to patch the untrusted document in place — useful when an LLM
// omits an optional field (e.g. a segment's "topics" array) that a
// downstream consumer expects to always be present.
func WithDefault(raw, path string, value interface{}) (string, error) {
	if gjson.Get(raw, path).Exists() {
		return raw, nil
	}
	out, err := sjson.Set(raw, path, value)
	if err != nil {
		return raw, fmt.Errorf("llm: set default for %q: %w", path, err)
	}
	return out, nil
}
