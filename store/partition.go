package store

import (
	"encoding/base64"
	"strings"

	"github.com/corekv/corekv/internal/khash"
)

// partitionCount is fixed at 16. It is part of the on-disk format: changing
// it would scatter existing partition_N directories across different N for
// the same key, so it is not configurable.
const partitionCount = 16

// partitionOf returns the partition index for key, djb2(key) mod 16.
func partitionOf(key string) int {
	return khash.Mod(khash.DJB2(key), partitionCount)
}

var filenameReplacer = strings.NewReplacer("/", "_", "+", "_", "=", "_")

// encodeFilename maps key to its filesystem-safe, injective filename stem
// (without the .json suffix): standard Base64, then '/', '+', '=' replaced
// by '_'. This exact mapping is compatibility-critical — any change would
// orphan existing data directories.
func encodeFilename(key string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(key))
	return filenameReplacer.Replace(encoded)
}
