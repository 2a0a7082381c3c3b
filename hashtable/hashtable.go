// Package hashtable implements the chained hash table that backs the cache
// engine. Each bucket is a singly linked chain of nodes; there is no open
// addressing and no probing. It grows by doubling whenever the load factor
// crosses 0.75, the way most textbook hash maps do, and uses djb2 (see
// internal/khash) so that the bucket a key lands in is reproducible.
package hashtable

import "github.com/corekv/corekv/internal/khash"

const (
	initialCapacity = 16
	loadFactorLimit = 0.75
)

// chainNode is one link in a bucket's chain.
type chainNode[V any] struct {
	key   string
	value V
	next  *chainNode[V]
}

// Stats is a point-in-time snapshot returned by GetStats.
type Stats struct {
	Size           int
	Capacity       int
	LoadFactor     float64
	UsedBuckets    int
	MaxChainLength int
	AvgChainLength float64
}

// HashTable is a chained hash table keyed by string, generic over value
// type V. The zero value is not usable; construct with New.
type HashTable[V any] struct {
	buckets  []*chainNode[V]
	size     int
	capacity int
}

// New creates a HashTable with the default initial capacity (16).
func New[V any]() *HashTable[V] {
	return &HashTable[V]{
		buckets:  make([]*chainNode[V], initialCapacity),
		capacity: initialCapacity,
	}
}

func (t *HashTable[V]) bucketIndex(key string) int {
	return khash.Mod(khash.DJB2(key), t.capacity)
}

// Set inserts or updates key. It reports whether the key was newly
// inserted (true) as opposed to an existing key being overwritten (false).
func (t *HashTable[V]) Set(key string, value V) bool {
	idx := t.bucketIndex(key)
	for n := t.buckets[idx]; n != nil; n = n.next {
		if n.key == key {
			n.value = value
			return false
		}
	}

	// New key: prepend to the chain.
	t.buckets[idx] = &chainNode[V]{key: key, value: value, next: t.buckets[idx]}
	t.size++

	if float64(t.size)/float64(t.capacity) >= loadFactorLimit {
		t.rehash()
	}
	return true
}

// Get returns the value for key and whether it was found.
func (t *HashTable[V]) Get(key string) (V, bool) {
	idx := t.bucketIndex(key)
	for n := t.buckets[idx]; n != nil; n = n.next {
		if n.key == key {
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (t *HashTable[V]) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Delete removes key, reporting whether anything was removed.
func (t *HashTable[V]) Delete(key string) bool {
	idx := t.bucketIndex(key)
	var prev *chainNode[V]
	for n := t.buckets[idx]; n != nil; n = n.next {
		if n.key == key {
			if prev == nil {
				t.buckets[idx] = n.next
			} else {
				prev.next = n.next
			}
			t.size--
			return true
		}
		prev = n
	}
	return false
}

// Clear resets the table to its initial capacity with no entries.
func (t *HashTable[V]) Clear() {
	t.buckets = make([]*chainNode[V], initialCapacity)
	t.capacity = initialCapacity
	t.size = 0
}

// Size returns the number of live entries.
func (t *HashTable[V]) Size() int {
	return t.size
}

// Keys materializes every key, in unspecified order.
func (t *HashTable[V]) Keys() []string {
	keys := make([]string, 0, t.size)
	for _, head := range t.buckets {
		for n := head; n != nil; n = n.next {
			keys = append(keys, n.key)
		}
	}
	return keys
}

// Values materializes every value, in unspecified order.
func (t *HashTable[V]) Values() []V {
	values := make([]V, 0, t.size)
	for _, head := range t.buckets {
		for n := head; n != nil; n = n.next {
			values = append(values, n.value)
		}
	}
	return values
}

// Entry is one key/value pair as returned by Entries.
type Entry[V any] struct {
	Key   string
	Value V
}

// Entries materializes every (key, value) pair, in unspecified order.
func (t *HashTable[V]) Entries() []Entry[V] {
	entries := make([]Entry[V], 0, t.size)
	for _, head := range t.buckets {
		for n := head; n != nil; n = n.next {
			entries = append(entries, Entry[V]{Key: n.key, Value: n.value})
		}
	}
	return entries
}

// GetStats reports table health: load factor and chain-length
// distribution, useful for diagnosing pathological hash behavior.
func (t *HashTable[V]) GetStats() Stats {
	stats := Stats{
		Size:     t.size,
		Capacity: t.capacity,
	}
	if t.capacity > 0 {
		stats.LoadFactor = float64(t.size) / float64(t.capacity)
	}

	totalChainLen := 0
	for _, head := range t.buckets {
		if head == nil {
			continue
		}
		stats.UsedBuckets++
		chainLen := 0
		for n := head; n != nil; n = n.next {
			chainLen++
		}
		totalChainLen += chainLen
		if chainLen > stats.MaxChainLength {
			stats.MaxChainLength = chainLen
		}
	}
	if stats.UsedBuckets > 0 {
		stats.AvgChainLength = float64(totalChainLen) / float64(stats.UsedBuckets)
	}
	return stats
}

// rehash doubles capacity and reinserts every node. Order within the new
// chains is unspecified but deterministic for a given hash function.
func (t *HashTable[V]) rehash() {
	oldBuckets := t.buckets
	t.capacity *= 2
	t.buckets = make([]*chainNode[V], t.capacity)

	for _, head := range oldBuckets {
		for n := head; n != nil; n = n.next {
			idx := t.bucketIndex(n.key)
			t.buckets[idx] = &chainNode[V]{key: n.key, value: n.value, next: t.buckets[idx]}
		}
	}
}
