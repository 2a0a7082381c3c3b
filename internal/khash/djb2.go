// Package khash implements the hash function shared by the hash table and
// the partitioned store. Both need the exact same bit pattern: the table
// uses it to pick a bucket, the store uses it to pick an on-disk partition,
// and the two must never drift apart or existing data directories would
// become unreadable after a rebuild.
package khash

// DJB2 hashes a key the way Bernstein's djb2 does: seed at 5381, then for
// every byte h = h*33 + b. The final absolute-value step is part of the
// contract, not an implementation detail — it is what makes bucket and
// partition selection reproducible across processes and platforms.
func DJB2(key string) uint64 {
	var h int64 = 5381
	for i := 0; i < len(key); i++ {
		h = h*33 + int64(key[i])
	}
	if h < 0 {
		h = -h
	}
	return uint64(h)
}

// Mod reduces a djb2 hash into [0, n). n must be > 0.
func Mod(hash uint64, n int) int {
	return int(hash % uint64(n))
}
