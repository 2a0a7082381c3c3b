// Package storeserver is the store-side HTTP adapter: a thin net/http
// layer over a storemanager.Manager. Writes return {key, version,
// createdAt, updatedAt}, matching the cache surface's envelope
// conventions but with the store's own response fields.
package storeserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/corekv/corekv/httpapi/envelope"
	"github.com/corekv/corekv/httpapi/ratelimit"
	"github.com/corekv/corekv/internal/validate"
	"github.com/corekv/corekv/store"
	"github.com/corekv/corekv/storemanager"
)

// Server is the store-side HTTP adapter.
type Server struct {
	manager       *storemanager.Manager
	pstore        *store.PartitionedStore
	log           *slog.Logger
	startedAt     time.Time
	mux           *http.ServeMux
	maxValueBytes int
}

// New builds a Server and registers all routes. maxValueBytes caps the
// serialized size of an accepted value; <= 0 falls back to the default
// 10 MiB.
func New(manager *storemanager.Manager, pstore *store.PartitionedStore, limiter *ratelimit.Limiter, maxValueBytes int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if maxValueBytes <= 0 {
		maxValueBytes = validate.MaxStoreValueBytes
	}
	s := &Server{manager: manager, pstore: pstore, log: log, startedAt: time.Now(), mux: http.NewServeMux(), maxValueBytes: maxValueBytes}
	s.routes()

	if limiter != nil {
		wrapped := limiter.Middleware(s.mux)
		outer := http.NewServeMux()
		outer.Handle("/", wrapped)
		s.mux = outer
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/data", s.handleSave)
	s.mux.HandleFunc("GET /api/data/{key}", s.handleLoad)
	s.mux.HandleFunc("DELETE /api/data/{key}", s.handleDelete)
	s.mux.HandleFunc("GET /api/storage", s.handleList)
	s.mux.HandleFunc("POST /api/backup", s.handleBackup)
	s.mux.HandleFunc("POST /api/compact", s.handleCompact)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
}

type saveRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "validation_failure", "malformed request body")
		return
	}
	if err := validate.Key(req.Key); err != nil {
		envelope.FailErr(w, err)
		return
	}
	if _, err := validate.Value(req.Value, s.maxValueBytes); err != nil {
		envelope.FailErr(w, err)
		return
	}

	if err := s.manager.Save(req.Key, req.Value).Wait(); err != nil {
		envelope.FailErr(w, err)
		return
	}

	entry, ok, err := s.manager.Load(req.Key)
	if err != nil || !ok {
		envelope.Fail(w, http.StatusInternalServerError, "io_failure", "save succeeded but readback failed")
		return
	}
	envelope.Write(w, http.StatusCreated, writeResponse(entry))
}

func writeResponse(entry store.Entry) map[string]any {
	return map[string]any{
		"key":       entry.Key,
		"version":   entry.Metadata.Version,
		"createdAt": entry.Metadata.CreatedAt,
		"updatedAt": entry.Metadata.UpdatedAt,
	}
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	entry, ok, err := s.manager.Load(key)
	if err != nil {
		envelope.FailErr(w, err)
		return
	}
	if !ok {
		envelope.Fail(w, http.StatusNotFound, "not_found", "key not found")
		return
	}
	envelope.Write(w, http.StatusOK, map[string]any{"key": entry.Key, "value": entry.Value})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	removed, err := s.manager.Delete(key)
	if err != nil {
		envelope.FailErr(w, err)
		return
	}
	if !removed {
		envelope.Fail(w, http.StatusNotFound, "not_found", "key not found")
		return
	}
	envelope.Write(w, http.StatusOK, map[string]any{"key": key})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	keys, err := s.pstore.List()
	if err != nil {
		envelope.FailErr(w, err)
		return
	}
	envelope.Write(w, http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Backup(); err != nil {
		envelope.FailErr(w, err)
		return
	}
	envelope.Write(w, http.StatusOK, nil)
}

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Compact(); err != nil {
		envelope.FailErr(w, err)
		return
	}
	envelope.Write(w, http.StatusOK, nil)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.pstore.GetStats()
	if err != nil {
		envelope.FailErr(w, err)
		return
	}
	envelope.Write(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	envelope.Write(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Seconds(),
	})
}
