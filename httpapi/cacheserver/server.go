// Package cacheserver is the cache-side HTTP adapter: a thin net/http
// layer over a service.CacheService. The core engine package is
// deliberately unaware this surface exists; nothing in cacheengine
// imports net/http.
package cacheserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/corekv/corekv/httpapi/envelope"
	"github.com/corekv/corekv/httpapi/ratelimit"
	"github.com/corekv/corekv/internal/validate"
	"github.com/corekv/corekv/service"
)

// Server wires a service.CacheService up to a net/http.ServeMux using
// method + path-parameter route patterns.
type Server struct {
	svc       *service.CacheService
	log       *slog.Logger
	startedAt time.Time
	mux       *http.ServeMux
}

// New builds a Server and registers all routes.
func New(svc *service.CacheService, limiter *ratelimit.Limiter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{svc: svc, log: log, startedAt: time.Now(), mux: http.NewServeMux()}
	s.routes()

	if limiter != nil {
		wrapped := limiter.Middleware(s.mux)
		outer := http.NewServeMux()
		outer.Handle("/", wrapped)
		s.mux = outer
	}
	return s
}

// ServeHTTP lets Server itself be passed straight to http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/keys", s.handleSet)
	s.mux.HandleFunc("GET /api/keys/{key}", s.handleGet)
	s.mux.HandleFunc("PUT /api/keys/{key}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /api/keys/{key}", s.handleDelete)
	s.mux.HandleFunc("GET /api/keys", s.handleList)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("DELETE /api/cache", s.handleClear)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
}

type setRequest struct {
	Key     string `json:"key"`
	Value   any    `json:"value"`
	TTL     *int64 `json:"ttl"`
	Persist bool   `json:"persist"`
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "validation_failure", "malformed request body")
		return
	}
	if err := validate.Key(req.Key); err != nil {
		envelope.FailErr(w, err)
		return
	}
	if _, err := validate.Value(req.Value, validate.MaxCacheValueBytes); err != nil {
		envelope.FailErr(w, err)
		return
	}
	if req.TTL != nil {
		if err := validate.TTLSeconds(*req.TTL); err != nil {
			envelope.FailErr(w, err)
			return
		}
	}

	s.svc.Set(r.Context(), req.Key, req.Value, req.TTL, req.Persist)
	envelope.Write(w, http.StatusCreated, map[string]any{"key": req.Key})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	fallback := r.URL.Query().Get("fallback") == "true"

	v, ok := s.svc.Get(r.Context(), key, fallback)
	if !ok {
		envelope.Fail(w, http.StatusNotFound, "not_found", "key not found")
		return
	}
	envelope.Write(w, http.StatusOK, map[string]any{"key": key, "value": v})
}

type updateRequest struct {
	Value *any   `json:"value"`
	TTL   *int64 `json:"ttl"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	engine := s.svc.Engine()

	if !engine.Has(key) {
		envelope.Fail(w, http.StatusNotFound, "not_found", "key not found")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "validation_failure", "malformed request body")
		return
	}
	if req.TTL != nil {
		if err := validate.TTLSeconds(*req.TTL); err != nil {
			envelope.FailErr(w, err)
			return
		}
	}

	if req.Value != nil {
		if _, err := validate.Value(*req.Value, validate.MaxCacheValueBytes); err != nil {
			envelope.FailErr(w, err)
			return
		}
		engine.Set(key, *req.Value, req.TTL)
	} else if req.TTL != nil {
		engine.UpdateTtl(key, *req.TTL)
	}

	envelope.Write(w, http.StatusOK, map[string]any{"key": key})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !s.svc.Remove(key) {
		envelope.Fail(w, http.StatusNotFound, "not_found", "key not found")
		return
	}
	envelope.Write(w, http.StatusOK, map[string]any{"key": key})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	keys := s.svc.Engine().Keys()
	envelope.Write(w, http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	envelope.Write(w, http.StatusOK, s.svc.Engine().GetStats())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.svc.Engine().Clear()
	envelope.Write(w, http.StatusOK, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.svc.Engine().GetStats()
	envelope.Write(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"size":    stats.Size,
		"maxSize": stats.MaxSize,
		"uptime":  time.Since(s.startedAt).Seconds(),
	})
}
