// Package folders represents hierarchical folders as marker records in the
// term index.
package folders

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/index"
)

// Directory manages folder markers on top of an index.Store.
type Directory struct {
	store  index.Store
	logger *zap.Logger
}

// New creates a Directory over the given store.
func New(store index.Store, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{store: store, logger: logger.Named("folders")}
}

// Create upserts the marker record for folderPath. It is idempotent.
func (d *Directory) Create(ctx context.Context, folderPath string) error {
	d.logger.Info("creating folder marker", zap.String("folder_path", folderPath))
	if err := d.store.Upsert(ctx, index.Record{ID: index.FolderMarkerID, FolderPath: folderPath}); err != nil {
		return fmt.Errorf("creating folder %q: %w", folderPath, err)
	}
	return nil
}

// Exists reports whether a marker exists for folderPath.
func (d *Directory) Exists(ctx context.Context, folderPath string) (bool, error) {
	return d.store.FolderExists(ctx, folderPath)
}

// Ensure creates the marker for folderPath when it is non-empty and missing,
// and reports whether it did. Only the literal path gets a marker: ancestors
// of a nested path such as "a/b/c" are not created.
func (d *Directory) Ensure(ctx context.Context, folderPath string) (bool, error) {
	if folderPath == "" {
		return false, nil
	}
	exists, err := d.Exists(ctx, folderPath)
	if err != nil {
		return false, fmt.Errorf("checking folder %q: %w", folderPath, err)
	}
	if exists {
		return false, nil
	}
	if err := d.Create(ctx, folderPath); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the marker for folderPath together with every record whose
// folder path equals it. Nested folders are left in place.
func (d *Directory) Delete(ctx context.Context, folderPath string) (bool, error) {
	deleted, err := d.store.Delete(ctx, index.FolderMarkerID, folderPath)
	if err != nil {
		return false, fmt.Errorf("deleting folder %q: %w", folderPath, err)
	}
	return deleted, nil
}
