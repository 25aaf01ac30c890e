package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// defaultModels is the model offered first for each provider.
var defaultModels = map[ProviderType]string{
	ProviderOllama: "llama3.2-vision",
	ProviderOpenAI: "gpt-4o-mini",
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docrag! Let's configure your document index.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"ollama", "openai"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: defaultModels[cfg.Provider],
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Endpoint.
	switch cfg.Provider {
	case ProviderOllama:
		hostPrompt := promptui.Prompt{
			Label:   "Ollama host",
			Default: "http://localhost:11434",
		}
		if cfg.OllamaHost, err = hostPrompt.Run(); err != nil {
			return nil, fmt.Errorf("ollama host: %w", err)
		}
	case ProviderOpenAI:
		baseURLPrompt := promptui.Prompt{
			Label:   "OpenAI-compatible base URL (leave blank for api.openai.com)",
			Default: "",
		}
		if cfg.OpenAIBaseURL, err = baseURLPrompt.Run(); err != nil {
			return nil, fmt.Errorf("base url: %w", err)
		}
	}

	// 4. Index directory.
	indexPrompt := promptui.Prompt{
		Label:   "Index directory",
		Default: cfg.IndexDir,
	}
	if cfg.IndexDir, err = indexPrompt.Run(); err != nil {
		return nil, fmt.Errorf("index dir: %w", err)
	}

	// 5. Documents per answer.
	numPrompt := promptui.Prompt{
		Label:    "Documents retrieved per question",
		Default:  strconv.Itoa(cfg.Search.NumResults),
		Validate: validatePositiveInt,
	}
	numStr, err := numPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("num results: %w", err)
	}
	cfg.Search.NumResults, _ = strconv.Atoi(strings.TrimSpace(numStr))

	// 6. Include patterns for ingest.
	includePrompt := promptui.Prompt{
		Label:   "Ingest patterns (comma-separated globs)",
		Default: strings.Join(DefaultIncludes, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	if include := splitAndTrim(includeStr); len(include) > 0 {
		cfg.Ingest.Include = include
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && cfg.OpenAIBaseURL == "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running docrag.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a whole number of at least 1")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
