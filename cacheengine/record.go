package cacheengine

import "time"

// record is the internal, mutable representation of one cache entry. It is
// never handed out directly: Engine.GetEntry returns a copy (Record) so
// callers can't mutate state behind the engine's back.
type record struct {
	key          string
	value        any
	createdAt    time.Time
	expiresAt    *time.Time // nil => never expires
	lastAccessed time.Time
	ttlSeconds   int64
	node         *lruNode // the record's position in the LRU list
}

// Record is an immutable snapshot of a cache entry, returned by GetEntry
// for admin/debug surfaces.
type Record struct {
	Key          string
	Value        any
	CreatedAt    time.Time
	ExpiresAt    *time.Time
	LastAccessed time.Time
	TTLSeconds   int64
}

func (r *record) snapshot() Record {
	var expiresAt *time.Time
	if r.expiresAt != nil {
		t := *r.expiresAt
		expiresAt = &t
	}
	return Record{
		Key:          r.key,
		Value:        r.value,
		CreatedAt:    r.createdAt,
		ExpiresAt:    expiresAt,
		LastAccessed: r.lastAccessed,
		TTLSeconds:   r.ttlSeconds,
	}
}

// expired reports whether the record is expired as of now. A record with no
// expiresAt never expires.
func (r *record) expired(now time.Time) bool {
	return r.expiresAt != nil && !now.Before(*r.expiresAt)
}
