package llm

import (
	"fmt"
	"os"
	"time"
)

// Options selects and configures a provider.
type Options struct {
	Provider      string
	Model         string
	OllamaHost    string
	OpenAIBaseURL string
	Timeout       time.Duration
	// RequestsPerMinute wraps the provider in a rate limiter when positive.
	RequestsPerMinute int
}

// NewProvider creates a new LLM provider based on opts.Provider.
// Supported provider types: "ollama", "openai".
func NewProvider(opts Options) (Provider, error) {
	var p Provider
	switch opts.Provider {
	case "ollama":
		host := opts.OllamaHost
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = DefaultOllamaHost
		}
		p = NewOllamaProvider(host, opts.Model, opts.Timeout)

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" && opts.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		p = NewOpenAIProvider(apiKey, opts.OpenAIBaseURL, opts.Model, opts.Timeout)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}

	if opts.RequestsPerMinute > 0 {
		p = NewRateLimitedProvider(p, opts.RequestsPerMinute)
	}
	return p, nil
}
