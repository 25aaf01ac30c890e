package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/docrag/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:         "test-1",
		Actor:      ActorAPI,
		Action:     ActionDocumentIndexed,
		DocID:      "doc1",
		FolderPath: "notes",
		Summary:    "Indexed notes/doc1",
		Detail:     "42 bytes",
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.Actor != ActorAPI {
		t.Errorf("Actor = %q, want %q", got.Actor, ActorAPI)
	}
	if got.Action != ActionDocumentIndexed {
		t.Errorf("Action = %q, want %q", got.Action, ActionDocumentIndexed)
	}
	if got.DocID != "doc1" || got.FolderPath != "notes" {
		t.Errorf("key = (%q, %q), want (doc1, notes)", got.DocID, got.FolderPath)
	}
	if got.Detail != "42 bytes" {
		t.Errorf("Detail = %q, want %q", got.Detail, "42 bytes")
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be populated")
	}
}

func TestLogDefaults(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{Action: ActionReindexed, Summary: "Rebuilt index"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{Action: ActionReindexed})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID, got empty string")
	}
	if entries[0].Actor != ActorSystem {
		t.Errorf("Actor = %q, want %q", entries[0].Actor, ActorSystem)
	}
}

func TestQueryFilterByAction(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	actions := []Action{ActionDocumentIndexed, ActionDocumentDeleted, ActionDocumentIndexed}
	for _, a := range actions {
		if err := store.Log(ctx, Entry{Action: a, DocID: "d"}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{Action: ActionDocumentIndexed})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 document_indexed entries, got %d", len(entries))
	}
}

func TestQueryFilterByRootFolder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, folder := range []string{"", "notes", ""} {
		if err := store.Log(ctx, Entry{Action: ActionDocumentIndexed, DocID: "d", FolderPath: folder}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{HasFolder: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 root-folder entries, got %d", len(entries))
	}

	entries, err = store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries without folder filter, got %d", len(entries))
	}
}

func TestQueryNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Log(ctx, Entry{Action: ActionDocumentIndexed, DocID: id}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 3 || entries[0].DocID != "c" || entries[2].DocID != "a" {
		t.Errorf("unexpected order: %+v", entries)
	}
}

func TestQueryLimitOffset(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, Entry{Action: ActionDocumentIndexed}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with limit, got %d", len(entries))
	}

	entries, err = store.Query(ctx, QueryFilter{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with offset, got %d", len(entries))
	}

	entries, err = store.Query(ctx, QueryFilter{Offset: 4})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry with offset only, got %d", len(entries))
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Entry{Action: ActionFolderCreated}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	// Delete entries before far in the future (should delete all).
	deleted, err := store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 remaining entries, got %d", len(entries))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- HTTP handler tests ---

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)

	if err := store.Log(context.Background(), Entry{
		ID:      "http-1",
		Actor:   ActorCLI,
		Action:  ActionFolderDeleted,
		Summary: "Deleted folder notes",
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" {
		t.Errorf("ID = %q, want %q", got.ID, "http-1")
	}
	if got.Action != ActionFolderDeleted {
		t.Errorf("Action = %q, want %q", got.Action, ActionFolderDeleted)
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPQuery(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, folder := range []string{"notes", "work", "notes"} {
		if err := store.Log(ctx, Entry{Action: ActionDocumentIndexed, FolderPath: folder}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?folder_path=notes&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for notes, got %d", len(entries))
	}
}

func TestHTTPQueryRejectsBadParams(t *testing.T) {
	r, _ := setupRouter(t)

	for _, qs := range []string{"limit=ten", "offset=-1", "since=yesterday", "until=2024-13-01"} {
		req := httptest.NewRequest(http.MethodGet, "/api/audit?"+qs, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", qs, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestParseFilterRootFolder(t *testing.T) {
	f, err := parseFilter(url.Values{"folder_path": {""}, "limit": {"5"}})
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if !f.HasFolder || f.FolderPath != "" || f.Limit != 5 {
		t.Errorf("unexpected filter %+v", f)
	}
}
