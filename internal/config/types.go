package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderOpenAI ProviderType = "openai"
)

// Config is the top-level docrag configuration, corresponding to .docrag.yml.
type Config struct {
	IndexDir      string          `yaml:"index_dir" koanf:"index_dir"`
	DataDir       string          `yaml:"data_dir" koanf:"data_dir"`
	Provider      ProviderType    `yaml:"provider" koanf:"provider"`
	Model         string          `yaml:"model" koanf:"model"`
	OllamaHost    string          `yaml:"ollama_host" koanf:"ollama_host"`
	OpenAIBaseURL string          `yaml:"openai_base_url,omitempty" koanf:"openai_base_url"`
	LLM           LLMConfig       `yaml:"llm" koanf:"llm"`
	Search        SearchConfig    `yaml:"search" koanf:"search"`
	Readiness     ReadinessConfig `yaml:"readiness" koanf:"readiness"`
	Server        ServerConfig    `yaml:"server" koanf:"server"`
	Log           LogConfig       `yaml:"log" koanf:"log"`
	Ingest        IngestConfig    `yaml:"ingest" koanf:"ingest"`
}

// LLMConfig holds the initial model tuning and client limits.
type LLMConfig struct {
	Temperature       float64 `yaml:"temperature" koanf:"temperature"`
	NumCtx            int     `yaml:"num_ctx" koanf:"num_ctx"`
	RepeatPenalty     float64 `yaml:"repeat_penalty" koanf:"repeat_penalty"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	RequestsPerMinute int     `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	NumResults int `yaml:"num_results" koanf:"num_results"`
}

// ReadinessConfig controls the startup wait for the model service.
type ReadinessConfig struct {
	Attempts     int  `yaml:"attempts" koanf:"attempts"`
	DelaySeconds int  `yaml:"delay_seconds" koanf:"delay_seconds"`
	Skip         bool `yaml:"skip" koanf:"skip"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	AllowAll       bool     `yaml:"allow_all" koanf:"allow_all"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level" koanf:"level"`
	JSON  bool   `yaml:"json" koanf:"json"`
	File  string `yaml:"file,omitempty" koanf:"file"`
}

// IngestConfig controls which files `docrag ingest` picks up.
type IngestConfig struct {
	Include     []string `yaml:"include" koanf:"include"`
	Exclude     []string `yaml:"exclude" koanf:"exclude"`
	MaxFileSize int64    `yaml:"max_file_size" koanf:"max_file_size"`
}
