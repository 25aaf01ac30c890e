// Package library is the write path for documents and folders. It applies the
// folder precondition before every document upsert, routes folder-marker
// writes to the folder directory, and records each change in the audit trail.
package library

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/audit"
	"github.com/ziadkadry99/docrag/internal/folders"
	"github.com/ziadkadry99/docrag/internal/index"
)

// Auditor records audit entries. *audit.Store implements it.
type Auditor interface {
	Log(ctx context.Context, entry audit.Entry) error
}

// PutResult describes the side effects of a Put.
type PutResult struct {
	// FolderCreated is true when the write created a folder marker, either
	// directly or through the folder precondition.
	FolderCreated bool `json:"folder_created"`
}

// Library coordinates document writes over an index store.
type Library struct {
	store   index.Store
	folders *folders.Directory
	auditor Auditor
	logger  *zap.Logger
}

// New creates a Library. auditor may be nil.
func New(store index.Store, auditor Auditor, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{
		store:   store,
		folders: folders.New(store, logger),
		auditor: auditor,
		logger:  logger.Named("library"),
	}
}

// Folders exposes the folder directory used by the library.
func (l *Library) Folders() *folders.Directory { return l.folders }

// Put stores a record. A record with the folder marker id creates that folder;
// any other record first ensures its folder exists and then replaces whatever
// was stored under the same (id, folder_path).
func (l *Library) Put(ctx context.Context, rec index.Record) (PutResult, error) {
	if rec.ID == "" {
		return PutResult{}, index.ErrEmptyID
	}

	if rec.IsFolderMarker() {
		if err := l.folders.Create(ctx, rec.FolderPath); err != nil {
			l.logger.Error("folder create failed", zap.String("folder_path", rec.FolderPath), zap.Error(err))
			return PutResult{}, err
		}
		l.record(ctx, audit.Entry{
			Action:     audit.ActionFolderCreated,
			DocID:      rec.ID,
			FolderPath: rec.FolderPath,
			Summary:    fmt.Sprintf("Created folder %q", rec.FolderPath),
		})
		return PutResult{FolderCreated: true}, nil
	}

	created, err := l.folders.Ensure(ctx, rec.FolderPath)
	if err != nil {
		l.logger.Error("folder precondition failed",
			zap.String("id", rec.ID), zap.String("folder_path", rec.FolderPath), zap.Error(err))
		return PutResult{}, err
	}
	if created {
		l.record(ctx, audit.Entry{
			Action:     audit.ActionFolderCreated,
			DocID:      index.FolderMarkerID,
			FolderPath: rec.FolderPath,
			Summary:    fmt.Sprintf("Created parent folder %q", rec.FolderPath),
		})
	}

	if err := l.store.Upsert(ctx, rec); err != nil {
		l.logger.Error("index document failed",
			zap.String("id", rec.ID), zap.String("folder_path", rec.FolderPath), zap.Error(err))
		return PutResult{FolderCreated: created}, fmt.Errorf("indexing document %q: %w", rec.ID, err)
	}
	l.logger.Debug("indexed document", zap.String("id", rec.ID), zap.String("folder_path", rec.FolderPath))
	l.record(ctx, audit.Entry{
		Action:     audit.ActionDocumentIndexed,
		DocID:      rec.ID,
		FolderPath: rec.FolderPath,
		Summary:    fmt.Sprintf("Indexed %s", index.FullPath(rec.FolderPath, rec.ID)),
		Detail:     fmt.Sprintf("%d bytes", len(rec.Content)),
	})
	return PutResult{FolderCreated: created}, nil
}

// Delete removes the record with the given composite key. Deleting a folder
// marker also removes every record directly inside that folder. The bool is
// false when nothing matched.
func (l *Library) Delete(ctx context.Context, id, folderPath string) (bool, error) {
	var (
		deleted bool
		err     error
		action  = audit.ActionDocumentDeleted
		summary = fmt.Sprintf("Deleted %s", index.FullPath(folderPath, id))
	)
	if id == index.FolderMarkerID {
		action = audit.ActionFolderDeleted
		summary = fmt.Sprintf("Deleted folder %q", folderPath)
		deleted, err = l.folders.Delete(ctx, folderPath)
	} else {
		deleted, err = l.store.Delete(ctx, id, folderPath)
	}
	if err != nil {
		l.logger.Error("delete failed", zap.String("id", id), zap.String("folder_path", folderPath), zap.Error(err))
		return false, fmt.Errorf("deleting %q: %w", index.FullPath(folderPath, id), err)
	}
	if deleted {
		l.record(ctx, audit.Entry{Action: action, DocID: id, FolderPath: folderPath, Summary: summary})
	}
	return deleted, nil
}

// List returns every stored record, folder markers included.
func (l *Library) List(ctx context.Context) ([]index.Record, error) {
	recs, err := l.store.List(ctx)
	if err != nil {
		l.logger.Error("list documents failed", zap.Error(err))
		return nil, err
	}
	return recs, nil
}

// record writes an audit entry. Failures are logged and otherwise ignored.
func (l *Library) record(ctx context.Context, entry audit.Entry) {
	if l.auditor == nil {
		return
	}
	if entry.Actor == "" {
		entry.Actor = audit.ActorFrom(ctx)
	}
	if err := l.auditor.Log(ctx, entry); err != nil {
		l.logger.Warn("audit log failed", zap.String("action", string(entry.Action)), zap.Error(err))
	}
}
