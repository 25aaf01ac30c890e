package config

import "path/filepath"

// DefaultConfigFile is the config file looked up in the working directory.
const DefaultConfigFile = ".docrag.yml"

// DefaultIncludes are the document types ingested by default.
var DefaultIncludes = []string{
	"**/*.md",
	"**/*.markdown",
	"**/*.txt",
	"**/*.rst",
}

// DefaultExcludes are glob patterns never ingested.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	".docrag/**",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		IndexDir:   "index",
		DataDir:    ".docrag",
		Provider:   ProviderOllama,
		Model:      "llama3.2-vision",
		OllamaHost: "",
		LLM: LLMConfig{
			Temperature:    0.1,
			NumCtx:         128000,
			RepeatPenalty:  1.1,
			TimeoutSeconds: 300,
		},
		Search: SearchConfig{NumResults: 3},
		Readiness: ReadinessConfig{
			Attempts:     30,
			DelaySeconds: 2,
		},
		Server: ServerConfig{
			Port:           3333,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{Level: "info"},
		Ingest: IngestConfig{
			Include:     append([]string(nil), DefaultIncludes...),
			Exclude:     append([]string(nil), DefaultExcludes...),
			MaxFileSize: 1 << 20,
		},
	}
}

// DatabasePath returns the SQLite file holding settings and the audit trail.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "docrag.db")
}
