package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
	// Model returns the default model used when a request does not name one.
	Model() string
	// Ping reports whether the backing service is reachable.
	Ping(ctx context.Context) error
}
