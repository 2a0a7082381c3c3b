// Package cacheengine implements the bounded, TTL-aware, LRU-evicted cache
// at the center of corekv. It owns a hashtable.HashTable for O(1) lookup and
// an explicit doubly linked list for O(1) recency tracking; neither
// structure knows about the other's invariants, so Engine is the only place
// that keeps them consistent.
//
// Every exported method here is synchronous and non-suspending: Engine
// never calls out to the network or disk itself. Coordinating a Set with a
// write-through to the store is the caller's job (see package service),
// and always happens after the cache state is mutated.
package cacheengine

import (
	"sync"
	"time"

	"github.com/corekv/corekv/hashtable"
)

// Config holds the engine's tunables. Out-of-range values are replaced
// with defaults by New.
type Config struct {
	// MaxSize is the hard upper bound on live entries. A value <= 0 is
	// replaced with the default of 1000.
	MaxSize int
	// DefaultTTLSeconds is applied when Set's ttl argument is nil. A value
	// of 0 means such entries never expire; a negative value is replaced
	// with the default of 3600.
	DefaultTTLSeconds int64
}

const (
	defaultMaxSize           = 1000
	defaultDefaultTTLSeconds = 3600
)

// Stats is a point-in-time snapshot returned by GetStats. It marshals
// straight onto the /api/stats wire, hence the JSON tags.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hitRate"` // percent, two-decimal precision; 0 if Hits+Misses == 0
	Size      int     `json:"size"`
	MaxSize   int     `json:"maxSize"`
	Evictions int64   `json:"evictions"`
}

// Engine is a bounded key/value cache combining TTL expiry and LRU
// eviction. The zero value is not usable; construct with New.
//
// Engine.Set never fails. Get/Has/Delete/UpdateTTL/Clear/Keys/GetEntry are
// all total operations too: every state transition they describe is
// defined for every reachable state, so there is no error return on the
// core path. Validation (key length, value size, negative TTL) happens at
// the HTTP boundary, not here — see internal/validate.
type Engine struct {
	mu sync.Mutex

	table *hashtable.HashTable[*record]
	list  lruList

	cfg Config

	hits, misses, evictions int64
}

// New constructs an Engine. A zero Config is valid: max size 1000, and
// entries set without a TTL never expire.
func New(cfg Config) *Engine {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if cfg.DefaultTTLSeconds < 0 {
		cfg.DefaultTTLSeconds = defaultDefaultTTLSeconds
	}
	return &Engine{
		table: hashtable.New[*record](),
		cfg:   cfg,
	}
}

// resolveExpiry turns a caller-supplied TTL (nil => use default, 0 => never
// expires, >0 => that many seconds from now) into an expiresAt pointer.
func resolveExpiry(now time.Time, ttlSeconds *int64, defaultTTL int64) (*time.Time, int64) {
	ttl := defaultTTL
	if ttlSeconds != nil {
		ttl = *ttlSeconds
	}
	if ttl == 0 {
		return nil, 0
	}
	t := now.Add(time.Duration(ttl) * time.Second)
	return &t, ttl
}

// Set stores value under key. If ttlSeconds is nil, the engine's
// default_ttl_seconds applies; 0 means the entry never expires.
//
// If key is already present, its value, created_at, expires_at, and
// last_accessed are all refreshed and its LRU node moves to the head. If
// key is absent and the table is at max_size, the least-recently-used
// entry is evicted first (incrementing Evictions exactly once) before the
// new entry is inserted at the head.
func (e *Engine) Set(key string, value any, ttlSeconds *int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	expiresAt, ttl := resolveExpiry(now, ttlSeconds, e.cfg.DefaultTTLSeconds)

	if existing, ok := e.table.Get(key); ok {
		existing.value = value
		existing.createdAt = now
		existing.expiresAt = expiresAt
		existing.lastAccessed = now
		existing.ttlSeconds = ttl
		e.list.moveToFront(existing.node)
		return
	}

	if e.table.Size() >= e.cfg.MaxSize {
		e.evictOne()
	}

	rec := &record{
		key:          key,
		value:        value,
		createdAt:    now,
		expiresAt:    expiresAt,
		lastAccessed: now,
		ttlSeconds:   ttl,
	}
	e.list.pushFront(rec)
	e.table.Set(key, rec)
}

// evictOne removes the LRU list's tail entry, if any, and counts it as an
// eviction. Must be called with mu held.
func (e *Engine) evictOne() {
	tail := e.list.tail
	if tail == nil {
		return
	}
	e.table.Delete(tail.rec.key)
	e.list.remove(tail)
	e.evictions++
}

// Get retrieves key's value. A miss (absent or lazily expired) increments
// Misses and returns (nil, false). A hit refreshes last_accessed, moves the
// node to the LRU head, increments Hits, and returns (value, true).
func (e *Engine) Get(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.table.Get(key)
	if !ok {
		e.misses++
		return nil, false
	}

	if rec.expired(time.Now()) {
		e.deleteRecord(rec)
		e.misses++
		return nil, false
	}

	rec.lastAccessed = time.Now()
	e.list.moveToFront(rec.node)
	e.hits++
	return rec.value, true
}

// Has reports whether key is present and unexpired. Unlike Get, it does not
// touch hit/miss counters or LRU order — it is a pure predicate — but it
// still lazily expires a stale record, since a record past its TTL is not
// truly present.
func (e *Engine) Has(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.table.Get(key)
	if !ok {
		return false
	}
	if rec.expired(time.Now()) {
		e.deleteRecord(rec)
		return false
	}
	return true
}

// Delete removes key unconditionally, reporting whether anything was
// removed. This never counts as an eviction.
func (e *Engine) Delete(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.table.Get(key)
	if !ok {
		return false
	}
	e.deleteRecord(rec)
	return true
}

// deleteRecord removes rec from both the table and the LRU list. Must be
// called with mu held.
func (e *Engine) deleteRecord(rec *record) {
	e.table.Delete(rec.key)
	e.list.remove(rec.node)
}

// UpdateTtl resets key's expiry. A ttlSeconds of 0 clears the expiry
// (never expires). Lazily expires the record first; does not touch LRU
// order. Returns false if the key is absent (or was just lazily expired).
func (e *Engine) UpdateTtl(key string, ttlSeconds int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.table.Get(key)
	if !ok {
		return false
	}
	if rec.expired(time.Now()) {
		e.deleteRecord(rec)
		return false
	}

	if ttlSeconds == 0 {
		rec.expiresAt = nil
		rec.ttlSeconds = 0
		return true
	}
	t := time.Now().Add(time.Duration(ttlSeconds) * time.Second)
	rec.expiresAt = &t
	rec.ttlSeconds = ttlSeconds
	return true
}

// Clear empties the engine and resets hit/miss/eviction counters to 0.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.table.Clear()
	e.list = lruList{}
	e.hits, e.misses, e.evictions = 0, 0, 0
}

// Keys returns every non-expired key. As a side effect, any expired record
// encountered during the scan is deleted.
func (e *Engine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	all := e.table.Entries()
	keys := make([]string, 0, len(all))
	for _, entry := range all {
		if entry.Value.expired(now) {
			e.deleteRecord(entry.Value)
			continue
		}
		keys = append(keys, entry.Key)
	}
	return keys
}

// GetEntry returns an immutable snapshot of key's record (metadata
// included) for admin/debug surfaces, with lazy expiry applied first.
func (e *Engine) GetEntry(key string) (Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.table.Get(key)
	if !ok {
		return Record{}, false
	}
	if rec.expired(time.Now()) {
		e.deleteRecord(rec)
		return Record{}, false
	}
	return rec.snapshot(), true
}

// GetStats reports hit/miss/eviction counters and current size.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Stats{
		Hits:      e.hits,
		Misses:    e.misses,
		Size:      e.table.Size(),
		MaxSize:   e.cfg.MaxSize,
		Evictions: e.evictions,
	}
	if total := e.hits + e.misses; total > 0 {
		rate := 100 * float64(e.hits) / float64(total)
		stats.HitRate = roundTwoDecimals(rate)
	}
	return stats
}

func roundTwoDecimals(v float64) float64 {
	const factor = 100
	return float64(int64(v*factor+0.5)) / factor
}

// sweepExpired scans the table and deletes any record whose expiry has
// passed, without touching hit/miss/eviction counters. Called by the
// background Sweeper (see sweep.go), and directly by in-package tests that
// want to drive the sweep deterministically without waiting on the timer.
func (e *Engine) sweepExpired() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	removed := 0
	for _, entry := range e.table.Entries() {
		if entry.Value.expired(now) {
			e.deleteRecord(entry.Value)
			removed++
		}
	}
	return removed
}
