package index

import (
	"context"
	"errors"
)

// ErrEmptyID is returned when a record without an id is written.
var ErrEmptyID = errors.New("index: record id is required")

// Store is a persistent inverted index over record content.
//
// Mutations are serialised through a single writer and are durable when the
// call returns. Reads run against point-in-time snapshots and may observe the
// state before an in-flight write.
type Store interface {
	// Upsert atomically replaces the record with the same (ID, FolderPath).
	Upsert(ctx context.Context, rec Record) error

	// Delete removes the record with the given composite key. Deleting a
	// folder marker also removes every record whose FolderPath equals
	// folderPath. The returned bool reports whether anything was removed.
	Delete(ctx context.Context, id, folderPath string) (bool, error)

	// Search runs a query string and returns at most limit hits ordered by
	// descending score, folder markers excluded.
	Search(ctx context.Context, queryString string, limit int) ([]Hit, error)

	// List returns every stored record, folder markers included.
	List(ctx context.Context) ([]Record, error)

	// FolderExists reports whether a marker record exists for folderPath.
	FolderExists(ctx context.Context, folderPath string) (bool, error)

	// Count returns the number of live records.
	Count(ctx context.Context) (uint64, error)

	// Exists reports whether the index has ever been written.
	Exists() bool

	// Dir returns the on-disk index directory.
	Dir() string

	// Reset releases the write handle, wipes the index directory and leaves
	// an empty, reinitialised store behind.
	Reset(ctx context.Context) error

	// Close releases the index.
	Close() error
}
