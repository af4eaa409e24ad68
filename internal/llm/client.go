// Package llm is the boundary to hosted language model providers.
// Each adapter turns a provider-neutral Request into one SDK call and maps the
// SDK's errors onto the Transient/Fatal split the engine retries on.
package llm

import "context"

// Request is a single generation request. It is built fresh per task and
// passed by value, so adapters cannot mutate the caller's copy.
type Request struct {
	Prompt      string
	Temperature float64
	// JSONMode constrains the provider to emit a single JSON document.
	JSONMode bool
	// Grounding enables the provider's live web search tool.
	Grounding bool
}

// Client is the interface every provider adapter implements.
// Keep it small: the engine only needs raw text back.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	ProviderName() string
	ModelName() string
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
