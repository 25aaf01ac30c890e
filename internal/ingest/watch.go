package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/walker"
)

// Watch keeps the library in sync with the root until ctx is cancelled.
// Created and modified files are re-indexed; removed or renamed files are
// deleted. Call Run first so unchanged files are not rewritten.
func (in *Ingester) Watch(ctx context.Context) error {
	w, err := in.startWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	in.logger.Info("watching for changes", zap.String("root", in.config.RootDir))
	return in.watchLoop(ctx, w)
}

func (in *Ingester) startWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("ingest: creating watcher: %w", err)
	}
	if err := in.addTree(w, in.config.RootDir); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers dir and every non-excluded subdirectory with w.
func (in *Ingester) addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, ok := in.filter.Rel(p); !ok || in.filter.SkipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("ingest: watching %s: %w", p, err)
		}
		return nil
	})
}

func (in *Ingester) watchLoop(ctx context.Context, w *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			in.handleEvent(ctx, w, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// handleEvent applies a single file system event. w may be nil, in which
// case new directories are indexed but not watched.
func (in *Ingester) handleEvent(ctx context.Context, w *fsnotify.Watcher, ev fsnotify.Event) {
	rel, ok := in.filter.Rel(ev.Name)
	if !ok || rel == "." {
		return
	}

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		st, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if st.IsDir() {
			if ev.Has(fsnotify.Create) && !in.filter.SkipDir(rel) {
				in.indexTree(ctx, w, ev.Name)
			}
			return
		}
		fi, ok := walker.Stat(in.filter, ev.Name)
		if !ok {
			return
		}
		if _, err := in.indexFile(ctx, fi); err != nil {
			in.logger.Warn("re-index failed", zap.String("path", rel), zap.Error(err))
		}

	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		for _, p := range in.knownUnder(rel) {
			if err := in.removePath(ctx, p); err != nil {
				in.logger.Warn("remove failed", zap.String("path", p), zap.Error(err))
			}
		}
	}
}

// indexTree indexes every accepted file below a newly created directory.
func (in *Ingester) indexTree(ctx context.Context, w *fsnotify.Watcher, dir string) {
	if w != nil {
		if err := in.addTree(w, dir); err != nil {
			in.logger.Warn("watch failed", zap.String("dir", dir), zap.Error(err))
		}
	}
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if rel, ok := in.filter.Rel(p); ok && in.filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if fi, ok := walker.Stat(in.filter, p); ok {
			if _, err := in.indexFile(ctx, fi); err != nil {
				in.logger.Warn("index failed", zap.String("path", fi.RelPath), zap.Error(err))
			}
		}
		return nil
	})
}

// knownUnder returns indexed paths equal to rel or nested below it. A file
// that was never seen but passes the filter is included so that removals of
// files indexed by an earlier process are still applied.
func (in *Ingester) knownUnder(rel string) []string {
	in.mu.Lock()
	defer in.mu.Unlock()

	var out []string
	prefix := rel + "/"
	for p := range in.hashes {
		if p == rel || strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	if len(out) == 0 && in.filter.AcceptPath(rel) {
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}
