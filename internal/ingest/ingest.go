// Package ingest loads documents from a directory tree into the library.
// Every file becomes one record whose id is the file name and whose folder
// path is the file's directory relative to the ingest root.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/index"
	"github.com/ziadkadry99/docrag/internal/library"
	"github.com/ziadkadry99/docrag/internal/progress"
	"github.com/ziadkadry99/docrag/internal/walker"
)

// Library is the write path documents are sent through. *library.Library
// implements it.
type Library interface {
	Put(ctx context.Context, rec index.Record) (library.PutResult, error)
	Delete(ctx context.Context, id, folderPath string) (bool, error)
}

// Result summarises an ingest run.
type Result struct {
	Indexed   int
	Unchanged int
	Failed    int
}

// Ingester walks a root directory and keeps the library in step with it.
type Ingester struct {
	lib       Library
	filter    *walker.Filter
	config    walker.WalkerConfig
	extractor *Extractor
	logger    *zap.Logger

	mu     sync.Mutex
	hashes map[string]string // rel path -> content hash of the last indexed version
}

// New creates an Ingester for config.RootDir.
func New(lib Library, config walker.WalkerConfig, logger *zap.Logger) (*Ingester, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("ingest: resolve root: %w", err)
	}
	config.RootDir = root

	return &Ingester{
		lib:       lib,
		filter:    walker.NewFilter(root, config),
		config:    config,
		extractor: NewExtractor(),
		logger:    logger.Named("ingest"),
		hashes:    make(map[string]string),
	}, nil
}

// Root returns the absolute ingest root.
func (in *Ingester) Root() string { return in.config.RootDir }

// Run indexes every accepted file under the root. Files that fail to read
// or store are counted and logged; the run continues.
func (in *Ingester) Run(ctx context.Context, reporter progress.Reporter) (Result, error) {
	files, err := walker.Walk(in.config)
	if err != nil {
		return Result{}, err
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}

	in.logger.Info("ingest started", zap.String("root", in.config.RootDir), zap.Int("files", len(files)))
	reporter.Start(len(files))

	var res Result
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			reporter.Finish()
			return res, err
		}

		changed, err := in.indexFile(ctx, f)
		switch {
		case err != nil:
			res.Failed++
			in.logger.Warn("ingest file failed", zap.String("path", f.RelPath), zap.Error(err))
		case changed:
			res.Indexed++
		default:
			res.Unchanged++
		}
		reporter.Update(i+1, f.RelPath)
	}
	reporter.Finish()

	in.logger.Info("ingest finished",
		zap.Int("indexed", res.Indexed), zap.Int("unchanged", res.Unchanged), zap.Int("failed", res.Failed))
	return res, nil
}

// indexFile stores f unless its content hash matches the last version
// indexed by this Ingester. It reports whether a write happened.
func (in *Ingester) indexFile(ctx context.Context, f walker.FileInfo) (bool, error) {
	in.mu.Lock()
	prev, seen := in.hashes[f.RelPath]
	in.mu.Unlock()
	if seen && prev == f.ContentHash {
		return false, nil
	}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", f.RelPath, err)
	}

	rec := index.Record{
		ID:         f.Name,
		Content:    in.extractor.Extract(f.Format, raw),
		FolderPath: f.Dir,
	}
	if _, err := in.lib.Put(ctx, rec); err != nil {
		return false, fmt.Errorf("storing %s: %w", f.RelPath, err)
	}

	in.mu.Lock()
	in.hashes[f.RelPath] = f.ContentHash
	in.mu.Unlock()

	in.logger.Debug("indexed", zap.String("path", f.RelPath), zap.Int64("size", f.Size))
	return true, nil
}

// removePath deletes the record for a single file and forgets its hash.
func (in *Ingester) removePath(ctx context.Context, rel string) error {
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." {
		dir = ""
	}

	deleted, err := in.lib.Delete(ctx, filepath.Base(rel), dir)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", rel, err)
	}

	in.mu.Lock()
	delete(in.hashes, rel)
	in.mu.Unlock()

	if deleted {
		in.logger.Info("removed", zap.String("path", rel))
	}
	return nil
}
