// Package service composes a cacheengine.Engine with a storageclient.Client
// into the behavior the HTTP adapters actually need: write-through on set,
// and fallback-populate on an otherwise-missed get.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/corekv/corekv/cacheengine"
	"github.com/corekv/corekv/storageclient"
	"golang.org/x/sync/singleflight"
)

var errNotFound = errors.New("service: key not found in store")

// CacheService wires the cache engine to the storage client for the two
// operations that cross that boundary: a persisted Set, and a Get with
// fallback.
type CacheService struct {
	engine *cacheengine.Engine
	client *storageclient.Client
	log    *slog.Logger

	// sf collapses concurrent fallback loads of the same key into one
	// store round trip.
	sf singleflight.Group
}

// New constructs a CacheService over an already-built engine and client.
func New(engine *cacheengine.Engine, client *storageclient.Client, log *slog.Logger) *CacheService {
	if log == nil {
		log = slog.Default()
	}
	return &CacheService{engine: engine, client: client, log: log}
}

// Engine exposes the underlying engine for adapters that need direct,
// non-store-aware access (stats, clear, admin listing).
func (s *CacheService) Engine() *cacheengine.Engine { return s.engine }

// Set stores value in the cache. If persist is true, it additionally
// dispatches a write-through to the store after the cache state is
// mutated; a write-through failure is logged and does not affect the
// cache-side result. There is no atomicity between the two layers.
func (s *CacheService) Set(ctx context.Context, key string, value any, ttlSeconds *int64, persist bool) {
	s.engine.Set(key, value, ttlSeconds)

	if persist {
		if ok := s.client.Save(ctx, key, value); !ok {
			s.log.Warn("service: write-through failed", "key", key)
		}
	}
}

// Get retrieves key from the cache. On a cache miss, if fallback is true,
// it attempts to load the value from the store and, on success, populates
// the cache with it (using the engine's default TTL) before returning it.
// Concurrent fallback Gets for the same key collapse into a single store
// load via singleflight.
func (s *CacheService) Get(ctx context.Context, key string, fallback bool) (any, bool) {
	if v, ok := s.engine.Get(key); ok {
		return v, true
	}
	if !fallback {
		return nil, false
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		val, found := s.client.Load(ctx, key)
		if !found {
			return nil, errNotFound
		}
		return val, nil
	})
	if err != nil {
		return nil, false
	}

	s.engine.Set(key, v, nil)
	return v, true
}

// Remove deletes key from the cache only; it does not touch the store. Use
// storageclient.Client.Delete directly (or a dedicated store operation) to remove
// durable state.
func (s *CacheService) Remove(key string) bool {
	return s.engine.Delete(key)
}
