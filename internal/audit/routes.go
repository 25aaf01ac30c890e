package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the read-only audit API under /api/audit.
//
//	GET /api/audit       ?actor= &action= &doc_id= &folder_path= &since= &until= &limit= &offset=
//	GET /api/audit/{id}
func RegisterRoutes(r chi.Router, store *Store) {
	h := &handler{store: store}
	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
}

type handler struct {
	store *Store
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entries, err := h.store.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}

// parseFilter maps query parameters onto a QueryFilter. Timestamps are
// RFC 3339. A present but empty folder_path selects the root folder.
func parseFilter(q url.Values) (QueryFilter, error) {
	f := QueryFilter{
		Actor:  q.Get("actor"),
		Action: Action(q.Get("action")),
		DocID:  q.Get("doc_id"),
	}
	if q.Has("folder_path") {
		f.FolderPath, f.HasFolder = q.Get("folder_path"), true
	}

	var err error
	if f.Since, err = parseTime(q, "since"); err != nil {
		return f, err
	}
	if f.Until, err = parseTime(q, "until"); err != nil {
		return f, err
	}
	if f.Limit, err = parseCount(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = parseCount(q, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func parseTime(q url.Values, key string) (*time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

func parseCount(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
