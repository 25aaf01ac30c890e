// Package lifecycle reports on and rebuilds the on-disk index.
package lifecycle

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/audit"
	"github.com/ziadkadry99/docrag/internal/index"
	"github.com/ziadkadry99/docrag/internal/library"
	"github.com/ziadkadry99/docrag/internal/progress"
)

// Stats summarises the index.
type Stats struct {
	NumDocs   uint64 `json:"num_docs"`
	IndexSize string `json:"index_size"`
}

// Manager owns stats and reindex for one index.
type Manager struct {
	store   index.Store
	lib     *library.Library
	auditor library.Auditor
	logger  *zap.Logger
}

// New creates a Manager. Reindex replays documents through lib so the folder
// precondition recreates folder markers. auditor may be nil.
func New(store index.Store, lib *library.Library, auditor library.Auditor, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, lib: lib, auditor: auditor, logger: logger.Named("lifecycle")}
}

// Stats returns the live record count, folder markers included, and the size
// of the index directory. A never-created index reports 0 and "0 KB".
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	if !m.store.Exists() {
		return Stats{NumDocs: 0, IndexSize: "0 KB"}, nil
	}

	n, err := m.store.Count(ctx)
	if err != nil {
		m.logger.Error("counting documents failed", zap.Error(err))
		return Stats{}, fmt.Errorf("counting documents: %w", err)
	}
	size, err := dirSize(m.store.Dir())
	if err != nil {
		m.logger.Error("measuring index failed", zap.String("dir", m.store.Dir()), zap.Error(err))
		return Stats{}, fmt.Errorf("measuring index: %w", err)
	}
	return Stats{NumDocs: n, IndexSize: FormatSize(size)}, nil
}

// Reindex snapshots every record, wipes the index and replays every
// non-marker record. A failure part way through leaves the index partially
// rebuilt.
func (m *Manager) Reindex(ctx context.Context, reporter progress.Reporter) (int, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}

	recs, err := m.store.List(ctx)
	if err != nil {
		m.logger.Error("reindex snapshot failed", zap.Error(err))
		return 0, fmt.Errorf("snapshotting documents: %w", err)
	}

	docs := recs[:0]
	for _, r := range recs {
		if !r.IsFolderMarker() {
			docs = append(docs, r)
		}
	}

	if err := m.store.Reset(ctx); err != nil {
		m.logger.Error("reindex reset failed", zap.Error(err))
		return 0, fmt.Errorf("resetting index: %w", err)
	}

	reporter.Start(len(docs))
	for i, r := range docs {
		if _, err := m.lib.Put(ctx, r); err != nil {
			reporter.Finish()
			m.logger.Error("reindex replay failed",
				zap.String("id", r.ID), zap.String("folder_path", r.FolderPath), zap.Error(err))
			return i, fmt.Errorf("replaying %q: %w", index.FullPath(r.FolderPath, r.ID), err)
		}
		reporter.Update(i+1, index.FullPath(r.FolderPath, r.ID))
	}
	reporter.Finish()

	m.logger.Info("index rebuilt", zap.Int("documents", len(docs)))
	if m.auditor != nil {
		if err := m.auditor.Log(ctx, audit.Entry{
			Actor:   audit.ActorFrom(ctx),
			Action:  audit.ActionReindexed,
			Summary: fmt.Sprintf("Rebuilt index with %d documents", len(docs)),
		}); err != nil {
			m.logger.Warn("audit log failed", zap.Error(err))
		}
	}
	return len(docs), nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// FormatSize renders n bytes in the largest of B, KB, MB, GB that keeps the
// value under 1024, with two decimals. Values beyond the GB range stay in GB.
func FormatSize(n int64) string {
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(n)
	unit := units[0]
	for i, u := range units {
		unit = u
		if size < 1024 || i == len(units)-1 {
			break
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f %s", size, unit)
}
