// Package rag answers questions from the document index: it retrieves the
// best matching documents, builds a grounded prompt, asks the model and cleans
// up the reply.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/index"
	"github.com/ziadkadry99/docrag/internal/llm"
	"github.com/ziadkadry99/docrag/internal/query"
	"github.com/ziadkadry99/docrag/internal/settings"
)

// Searcher runs a query string against the term index.
type Searcher interface {
	Search(ctx context.Context, queryString string, limit int) ([]index.Hit, error)
}

// Source cites a retrieved document.
type Source struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// Answer is the result of a question.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Engine runs the retrieve, prompt, complete, sanitize pipeline.
type Engine struct {
	searcher Searcher
	provider llm.Provider
	settings *settings.Runtime
	logger   *zap.Logger
}

// New creates an Engine.
func New(searcher Searcher, provider llm.Provider, rt *settings.Runtime, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		searcher: searcher,
		provider: provider,
		settings: rt,
		logger:   logger.Named("rag"),
	}
}

// Model returns the name of the model answering questions.
func (e *Engine) Model() string {
	return e.provider.Model()
}

// Search transforms question into a query and returns up to limit hits, best
// first. A limit of zero or less uses the configured num_results.
func (e *Engine) Search(ctx context.Context, question string, limit int) ([]index.Hit, error) {
	if limit <= 0 {
		limit = e.settings.NumResults()
	}
	q := query.Clean(question)
	e.logger.Debug("search", zap.String("question", question), zap.String("query", q), zap.Int("limit", limit))

	hits, err := e.searcher.Search(ctx, q, limit)
	if err != nil {
		e.logger.Error("search failed", zap.String("query", q), zap.Error(err))
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	return hits, nil
}

// Query answers question from at most limit retrieved documents. When nothing
// matches, FallbackAnswer is returned without calling the model.
func (e *Engine) Query(ctx context.Context, question string, limit int) (*Answer, error) {
	hits, err := e.Search(ctx, question, limit)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &Answer{Answer: FallbackAnswer, Sources: []Source{}}, nil
	}

	sources := make([]Source, len(hits))
	for i, h := range hits {
		sources[i] = Source{Path: h.FullPath, Score: h.Score}
	}

	opts := e.settings.LLM()
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: BuildPrompt(BuildContext(hits), question)},
		},
		Temperature:   opts.Temperature,
		NumCtx:        opts.NumCtx,
		RepeatPenalty: opts.RepeatPenalty,
	})
	if err != nil {
		e.logger.Error("completion failed", zap.String("provider", e.provider.Name()), zap.Error(err))
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	e.logger.Info("answered question",
		zap.Int("sources", len(sources)),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens))

	return &Answer{Answer: Sanitize(resp.Content), Sources: sources}, nil
}
