package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

const (
	fieldID         = "id"
	fieldContent    = "content"
	fieldFolderPath = "folder_path"

	// scoringModel selects bleve's BM25 similarity with its default k1 and b.
	scoringModel = "bm25"

	// metaFile is written by bleve when an index is created; its presence is
	// how an existing index is told apart from an empty directory.
	metaFile = "index_meta.json"

	// scanPageSize bounds each page of full scans and folder snapshots.
	scanPageSize = 1000
)

var storedFields = []string{fieldID, fieldContent, fieldFolderPath}

// BleveStore implements Store on a scorch-backed bleve index.
type BleveStore struct {
	dir    string
	logger *zap.Logger

	// mu serialises writers. handleMu guards idx: readers hold it shared for
	// the duration of a query, Reset and Close hold it exclusively.
	mu       sync.Mutex
	handleMu sync.RWMutex
	idx      bleve.Index
}

var _ Store = (*BleveStore)(nil)

// OpenBleve opens the index in dir, creating the directory if needed. The
// index itself is created lazily on the first write, so a directory that has
// never been written reports Exists() == false.
func OpenBleve(dir string, logger *zap.Logger) (*BleveStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	s := &BleveStore{dir: dir, logger: logger.Named("index")}
	if indexExists(dir) {
		idx, err := bleve.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("opening index %s: %w", dir, err)
		}
		s.idx = idx
	}
	return s, nil
}

// NewIndexMapping returns the mapping every index is created with: analysed,
// stored content plus stored keyword fields for the composite key.
func NewIndexMapping() *mapping.IndexMappingImpl {
	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = true
	content.IncludeTermVectors = false

	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = true
	keyword.IncludeInAll = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(fieldContent, content)
	doc.AddFieldMappingsAt(fieldID, keyword)
	doc.AddFieldMappingsAt(fieldFolderPath, keyword)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	im.DefaultField = fieldContent
	im.ScoringModel = scoringModel
	return im
}

func indexExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, metaFile))
	return err == nil
}

// docKey encodes the composite key as a bleve document id. The length
// prefix keeps ("a/b", "c") and ("a", "b/c") distinct.
func docKey(id, folderPath string) string {
	return strconv.Itoa(len(folderPath)) + ":" + folderPath + id
}

func (s *BleveStore) Dir() string { return s.dir }

func (s *BleveStore) Exists() bool {
	s.handleMu.RLock()
	defer s.handleMu.RUnlock()
	return s.idx != nil
}

// writable returns the index handle, creating the index on first use.
// Callers must hold s.mu.
func (s *BleveStore) writable() (bleve.Index, error) {
	s.handleMu.RLock()
	idx := s.idx
	s.handleMu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	s.handleMu.Lock()
	defer s.handleMu.Unlock()
	if s.idx == nil {
		created, err := bleve.New(s.dir, NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index %s: %w", s.dir, err)
		}
		s.logger.Info("index created", zap.String("dir", s.dir))
		s.idx = created
	}
	return s.idx, nil
}

func (s *BleveStore) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.writable()
	if err != nil {
		return err
	}

	s.handleMu.RLock()
	defer s.handleMu.RUnlock()

	// Index replaces any document with the same key inside one batch, so
	// readers never observe the record as missing.
	batch := idx.NewBatch()
	if err := batch.Index(docKey(rec.ID, rec.FolderPath), map[string]interface{}{
		fieldID:         rec.ID,
		fieldContent:    rec.Content,
		fieldFolderPath: rec.FolderPath,
	}); err != nil {
		return fmt.Errorf("preparing record %q: %w", rec.ID, err)
	}
	if err := idx.Batch(batch); err != nil {
		s.logger.Error("upsert failed", zap.String("id", rec.ID), zap.String("folder_path", rec.FolderPath), zap.Error(err))
		return fmt.Errorf("committing record %q: %w", rec.ID, err)
	}
	return nil
}

func (s *BleveStore) Delete(ctx context.Context, id, folderPath string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handleMu.RLock()
	defer s.handleMu.RUnlock()
	if s.idx == nil {
		return false, nil
	}

	key := docKey(id, folderPath)
	existing, err := s.idx.Document(key)
	if err != nil {
		return false, fmt.Errorf("looking up record %q: %w", id, err)
	}
	deleted := existing != nil

	batch := s.idx.NewBatch()
	batch.Delete(key)

	if id == FolderMarkerID {
		// Snapshot the folder's members first, then delete them in the same
		// commit as the marker.
		keys, err := s.folderMembers(ctx, s.idx, folderPath)
		if err != nil {
			return false, err
		}
		for _, k := range keys {
			if k != key {
				batch.Delete(k)
				deleted = true
			}
		}
		s.logger.Debug("cascading folder delete", zap.String("folder_path", folderPath), zap.Int("members", len(keys)))
	}

	if err := s.idx.Batch(batch); err != nil {
		s.logger.Error("delete failed", zap.String("id", id), zap.String("folder_path", folderPath), zap.Error(err))
		return false, fmt.Errorf("deleting record %q: %w", id, err)
	}
	return deleted, nil
}

// folderMembers returns the document keys of every record whose folder_path
// equals folderPath.
func (s *BleveStore) folderMembers(ctx context.Context, idx bleve.Index, folderPath string) ([]string, error) {
	var keys []string
	if folderPath == "" {
		// Empty keyword terms are not indexed, so the root folder is
		// resolved from stored fields.
		err := s.scan(ctx, idx, bleve.NewMatchAllQuery(), func(rec Record, key string) {
			if rec.FolderPath == "" {
				keys = append(keys, key)
			}
		})
		return keys, err
	}

	tq := bleve.NewTermQuery(folderPath)
	tq.SetField(fieldFolderPath)
	err := s.scan(ctx, idx, tq, func(_ Record, key string) {
		keys = append(keys, key)
	})
	return keys, err
}

// scan pages through every match of q in index order.
func (s *BleveStore) scan(ctx context.Context, idx bleve.Index, q query.Query, fn func(Record, string)) error {
	for from := 0; ; from += scanPageSize {
		req := bleve.NewSearchRequestOptions(q, scanPageSize, from, false)
		req.Fields = storedFields
		req.SortBy([]string{"_id"})
		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("scanning index: %w", err)
		}
		for _, h := range res.Hits {
			fn(recordFromFields(h.Fields), h.ID)
		}
		if len(res.Hits) < scanPageSize {
			return nil
		}
	}
}

func (s *BleveStore) Search(ctx context.Context, queryString string, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.handleMu.RLock()
	defer s.handleMu.RUnlock()
	if s.idx == nil {
		return nil, nil
	}

	q, err := ParseQuery(queryString)
	if err != nil {
		s.logger.Warn("unparseable query", zap.String("query", queryString), zap.Error(err))
		return nil, nil
	}
	if q == nil {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = storedFields
	res, err := s.idx.SearchInContext(ctx, req)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", queryString), zap.Error(err))
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		rec := recordFromFields(h.Fields)
		if rec.IsFolderMarker() {
			continue
		}
		hits = append(hits, Hit{
			ID:         rec.ID,
			Content:    rec.Content,
			FolderPath: rec.FolderPath,
			FullPath:   FullPath(rec.FolderPath, rec.ID),
			Score:      h.Score,
		})
	}
	s.logger.Debug("search", zap.String("query", queryString), zap.Int("hits", len(hits)), zap.Uint64("total", res.Total))
	return hits, nil
}

func (s *BleveStore) List(ctx context.Context) ([]Record, error) {
	s.handleMu.RLock()
	defer s.handleMu.RUnlock()
	if s.idx == nil {
		return nil, nil
	}

	var records []Record
	err := s.scan(ctx, s.idx, bleve.NewMatchAllQuery(), func(rec Record, _ string) {
		records = append(records, rec)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *BleveStore) FolderExists(ctx context.Context, folderPath string) (bool, error) {
	s.handleMu.RLock()
	defer s.handleMu.RUnlock()
	if s.idx == nil {
		return false, nil
	}

	doc, err := s.idx.Document(docKey(FolderMarkerID, folderPath))
	if err != nil {
		return false, fmt.Errorf("looking up folder %q: %w", folderPath, err)
	}
	return doc != nil, nil
}

func (s *BleveStore) Count(ctx context.Context) (uint64, error) {
	s.handleMu.RLock()
	defer s.handleMu.RUnlock()
	if s.idx == nil {
		return 0, nil
	}

	n, err := s.idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

func (s *BleveStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	if s.idx != nil {
		if err := s.idx.Close(); err != nil {
			return fmt.Errorf("closing index: %w", err)
		}
		s.idx = nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("removing index directory: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("recreating index directory: %w", err)
	}

	idx, err := bleve.New(s.dir, NewIndexMapping())
	if err != nil {
		return fmt.Errorf("reinitialising index: %w", err)
	}
	s.idx = idx
	s.logger.Info("index reset", zap.String("dir", s.dir))
	return nil
}

func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	if s.idx == nil {
		return nil
	}
	err := s.idx.Close()
	s.idx = nil
	if err != nil && !errors.Is(err, bleve.ErrorIndexClosed) {
		return fmt.Errorf("closing index: %w", err)
	}
	return nil
}

func recordFromFields(fields map[string]interface{}) Record {
	str := func(name string) string {
		v, _ := fields[name].(string)
		return v
	}
	return Record{
		ID:         str(fieldID),
		Content:    str(fieldContent),
		FolderPath: str(fieldFolderPath),
	}
}
