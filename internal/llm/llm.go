// Package llm abstracts text-generation calls behind a single
// provider-agnostic interface, so the Breakdown Extractor (C10) can
// treat Anthropic, OpenAI, and "no provider configured" uniformly —
// every LLM-dependent feature must degrade to a template, never fail,
// per spec.md §4.10 / §7.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by the "none" provider for every call.
// Callers treat it identically to any other provider error: fall back
// to a template or heuristic, and never propagate it as a failure.
var ErrNotConfigured = errors.New("llm: provider not configured")

// Provider generates text completions from a prompt. Implementations
// wrap a specific vendor SDK; callers only depend on this interface,
// mirroring the Summarizer interface pattern used to decouple AI
// calls from the crawl pipeline in the catchup-feed-backend example.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// NoneProvider is used when Config.Provider == "none" (or empty) —
// every call fails immediately with ErrNotConfigured so the caller's
// fallback path runs without an extra nil-check at every call site.
type NoneProvider struct{}

func (NoneProvider) Name() string { return "none" }

func (NoneProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return "", ErrNotConfigured
}

// Config selects and configures a Provider, per spec.md §6's
// `llmProvider` ∈ {openai, anthropic, none} configuration option.
type Config struct {
	Provider string // "openai", "anthropic", or "none"
	APIKey   string
	Model    string
}

// New constructs the Provider named by cfg.Provider. An empty or
// unrecognized provider name (and a missing API key for a named
// provider) both resolve to NoneProvider rather than an error —
// credential absence must never crash the system, per spec.md §6.
func New(cfg Config) Provider {
	if cfg.APIKey == "" {
		return NoneProvider{}
	}
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model)
	default:
		return NoneProvider{}
	}
}
