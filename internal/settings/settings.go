// Package settings holds the runtime-mutable configuration of the retrieval
// engine: how many documents feed each answer and how the model is tuned.
// Values start from the config file, are overridden by whatever was last
// persisted, and every accepted update is written back.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrInvalidNumResults is returned when num_results is below 1.
var ErrInvalidNumResults = errors.New("num_results must be at least 1")

const (
	keyNumResults = "search.num_results"
	keyLLM        = "llm.options"
)

// LLMOptions are the tuning values passed to the model on every completion.
type LLMOptions struct {
	Temperature   float64 `json:"temperature"`
	NumCtx        int     `json:"num_ctx"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// Persister stores settings values by key. *Store implements it.
type Persister interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Runtime is the shared, lock-protected settings holder.
type Runtime struct {
	mu         sync.RWMutex
	numResults int
	llm        LLMOptions

	persist Persister
	logger  *zap.Logger
}

// NewRuntime creates a holder seeded with the given defaults. persist may be
// nil, in which case updates only live in memory.
func NewRuntime(numResults int, llm LLMOptions, persist Persister, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{
		numResults: numResults,
		llm:        llm,
		persist:    persist,
		logger:     logger,
	}
}

// Load overrides the defaults with previously persisted values. Invalid
// persisted values are ignored with a warning.
func (r *Runtime) Load(ctx context.Context) error {
	if r.persist == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if raw, ok, err := r.persist.Get(ctx, keyNumResults); err != nil {
		return fmt.Errorf("loading %s: %w", keyNumResults, err)
	} else if ok {
		var n int
		if err := json.Unmarshal([]byte(raw), &n); err != nil || n < 1 {
			r.logger.Warn("ignoring persisted num_results", zap.String("value", raw))
		} else {
			r.numResults = n
		}
	}

	if raw, ok, err := r.persist.Get(ctx, keyLLM); err != nil {
		return fmt.Errorf("loading %s: %w", keyLLM, err)
	} else if ok {
		var opts LLMOptions
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			r.logger.Warn("ignoring persisted llm options", zap.String("value", raw))
		} else {
			r.llm = opts
		}
	}
	return nil
}

// NumResults returns the default number of documents retrieved per query.
func (r *Runtime) NumResults() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.numResults
}

// SetNumResults replaces num_results. Values below 1 are rejected with
// ErrInvalidNumResults and leave the current value untouched.
func (r *Runtime) SetNumResults(ctx context.Context, n int) error {
	if n < 1 {
		return ErrInvalidNumResults
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, keyNumResults, n); err != nil {
		return err
	}
	r.numResults = n
	return nil
}

// LLM returns the current model tuning.
func (r *Runtime) LLM() LLMOptions {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.llm
}

// SetLLM replaces the model tuning as a whole. Values are passed to the
// provider as given.
func (r *Runtime) SetLLM(ctx context.Context, opts LLMOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, keyLLM, opts); err != nil {
		return err
	}
	r.llm = opts
	return nil
}

// save must be called with mu held.
func (r *Runtime) save(ctx context.Context, key string, v any) error {
	if r.persist == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := r.persist.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}
