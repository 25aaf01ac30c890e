package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/audit"
	"github.com/ziadkadry99/docrag/internal/config"
	"github.com/ziadkadry99/docrag/internal/db"
	"github.com/ziadkadry99/docrag/internal/index"
	"github.com/ziadkadry99/docrag/internal/library"
	"github.com/ziadkadry99/docrag/internal/lifecycle"
	"github.com/ziadkadry99/docrag/internal/llm"
	"github.com/ziadkadry99/docrag/internal/logging"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/settings"
)

// app bundles the services shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *db.DB
	store     *index.BleveStore
	audit     *audit.Store
	settings  *settings.Runtime
	library   *library.Library
	lifecycle *lifecycle.Manager
	provider  llm.Provider // nil unless requested
	engine    *rag.Engine  // nil unless a provider was requested
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docrag init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Options{Level: level, JSON: cfg.Log.JSON, File: cfg.Log.File})
}

// openApp opens the index and the settings database. When withLLM is set it
// also builds the model client and the retrieval engine.
func openApp(ctx context.Context, withLLM bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	a.db, err = db.Open(cfg.DatabasePath())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.audit = audit.NewStore(a.db)

	a.store, err = index.OpenBleve(cfg.IndexDir, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening index: %w", err)
	}

	a.settings = settings.NewRuntime(cfg.Search.NumResults, settings.LLMOptions{
		Temperature:   cfg.LLM.Temperature,
		NumCtx:        cfg.LLM.NumCtx,
		RepeatPenalty: cfg.LLM.RepeatPenalty,
	}, settings.NewStore(a.db), logger)
	if err := a.settings.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	a.library = library.New(a.store, a.audit, logger)
	a.lifecycle = lifecycle.New(a.store, a.library, a.audit, logger)

	if withLLM {
		a.provider, err = createLLMProviderFromConfig(cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating LLM provider: %w", err)
		}
		a.engine = rag.New(a.store, a.provider, a.settings, logger)
	}
	return a, nil
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(llm.Options{
		Provider:          string(cfg.Provider),
		Model:             cfg.Model,
		OllamaHost:        cfg.OllamaHost,
		OpenAIBaseURL:     cfg.OpenAIBaseURL,
		Timeout:           time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})
}

// waitForModel blocks until the model endpoint answers, unless readiness
// checks are disabled.
func (a *app) waitForModel(ctx context.Context) error {
	if a.cfg.Readiness.Skip || a.provider == nil {
		return nil
	}
	delay := time.Duration(a.cfg.Readiness.DelaySeconds) * time.Second
	return llm.WaitReady(ctx, a.provider, a.cfg.Readiness.Attempts, delay, a.logger)
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing index", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
