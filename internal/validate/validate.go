// Package validate holds the precondition checks the HTTP boundary runs
// before calling into the cache or store engines. The engines themselves
// trust their callers; nothing in hashtable, cacheengine, store, or
// storemanager re-validates these bounds.
package validate

import (
	"encoding/json"

	"github.com/corekv/corekv/kverrors"
)

const (
	// MinKeyLen and MaxKeyLen bound a key to 1..=256 bytes.
	MinKeyLen = 1
	MaxKeyLen = 256

	// MaxCacheValueBytes is the serialized-JSON size cap for values held
	// in the cache engine.
	MaxCacheValueBytes = 1 << 20 // 1 MiB

	// MaxStoreValueBytes is the serialized-JSON size cap for values held
	// in the partitioned store.
	MaxStoreValueBytes = 10 << 20 // 10 MiB
)

// Key checks that key satisfies the length bound.
func Key(key string) error {
	if len(key) < MinKeyLen || len(key) > MaxKeyLen {
		return kverrors.Newf(kverrors.ValidationFailure, "key must be %d..%d bytes, got %d", MinKeyLen, MaxKeyLen, len(key))
	}
	return nil
}

// Value marshals value to JSON and checks the result against maxBytes. It
// returns the marshaled bytes so callers that need them (the store, for
// its on-disk payload) don't have to marshal twice.
func Value(value any, maxBytes int) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, kverrors.Wrapf(kverrors.ValidationFailure, err, "value is not JSON-serializable")
	}
	if len(data) > maxBytes {
		return nil, kverrors.Newf(kverrors.ValidationFailure, "value exceeds %d bytes (got %d)", maxBytes, len(data))
	}
	return data, nil
}

// TTLSeconds checks that a TTL is not negative. Zero means "no expiry" and
// is always legal.
func TTLSeconds(ttl int64) error {
	if ttl < 0 {
		return kverrors.Newf(kverrors.ValidationFailure, "ttl must be >= 0, got %d", ttl)
	}
	return nil
}
