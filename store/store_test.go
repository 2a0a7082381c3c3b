package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/corekv/corekv/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.PartitionedStore {
	t.Helper()
	dir := t.TempDir()
	s := store.New(dir, nil)
	require.NoError(t, s.Initialize())
	return s
}

func TestInitializeCreatesAllPartitions(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, nil)
	require.NoError(t, s.Initialize())

	for n := 0; n < 16; n++ {
		info, err := os.Stat(filepath.Join(dir, "partition_"+itoa(n)))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}

	// Idempotent: calling it again must not error.
	require.NoError(t, s.Initialize())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.Save("greeting", map[string]any{"text": "hi"})
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.Metadata.Version)

	loaded, ok, err := s.Load("greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "greeting", loaded.Key)
}

func TestSaveBumpsVersionAndPreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Save("k", "v1")
	require.NoError(t, err)

	second, err := s.Save("k", "v2")
	require.NoError(t, err)

	require.Equal(t, int64(2), second.Metadata.Version)
	require.Equal(t, first.Metadata.CreatedAt.UnixNano(), second.Metadata.CreatedAt.UnixNano())
	require.True(t, second.Metadata.UpdatedAt.After(first.Metadata.CreatedAt) ||
		second.Metadata.UpdatedAt.Equal(first.Metadata.CreatedAt))
}

func TestLoadMissingReturnsFalseNoError(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.Load("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteRemovesFile(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("k", "v")
	require.NoError(t, err)

	removed, err := s.Delete("k")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = s.Delete("k")
	require.NoError(t, err)
	require.False(t, removed)

	require.False(t, s.Exists("k"))
}

// TestPartitionPlacementAndFilenameEncoding: the same key always lands
// under the same partition_N directory, and its filename is the Base64 of
// the key with '/', '+', '=' mapped to '_'.
func TestPartitionPlacementAndFilenameEncoding(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, nil)
	require.NoError(t, s.Initialize())

	_, err := s.Save("some/tricky+key=", "v")
	require.NoError(t, err)

	var found string
	for n := 0; n < 16; n++ {
		matches, _ := filepath.Glob(filepath.Join(dir, "partition_"+itoa(n), "*.json"))
		if len(matches) > 0 {
			found = matches[0]
			break
		}
	}
	require.NotEmpty(t, found, "expected exactly one partition to contain the key's file")
	require.NotContains(t, filepath.Base(found), "/")
	require.NotContains(t, filepath.Base(found), "+")
	require.NotContains(t, filepath.Base(found), "=")
	require.Equal(t, "c29tZS90cmlja3kra2V5PQ__.json", filepath.Base(found))

	// Saving the same key again must land in the exact same file, not a
	// second one elsewhere.
	_, err = s.Save("some/tricky+key=", "v2")
	require.NoError(t, err)
	var total int
	for n := 0; n < 16; n++ {
		matches, _ := filepath.Glob(filepath.Join(dir, "partition_"+itoa(n), "*.json"))
		total += len(matches)
	}
	require.Equal(t, 1, total)
}

func TestListAndGetAllEntries(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("a", 1)
	require.NoError(t, err)
	_, err = s.Save("b", 2)
	require.NoError(t, err)

	keys, err := s.List()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, keys)

	entries, err := s.GetAllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestListSkipsCorruptFilesWithoutFailing(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, nil)
	require.NoError(t, s.Initialize())

	_, err := s.Save("good", "v")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "partition_0", "garbage.json"), []byte("{not json"), 0o644))

	keys, err := s.List()
	require.NoError(t, err)
	require.Contains(t, keys, "good")
}

func TestClearRemovesAllEntries(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("a", 1)
	require.NoError(t, err)
	_, err = s.Save("b", 2)
	require.NoError(t, err)

	require.NoError(t, s.Clear())

	keys, err := s.List()
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestGetStatsCountsKeysAndSize(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("a", "hello world")
	require.NoError(t, err)

	stats, err := s.GetStats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalKeys)
	require.Equal(t, 16, stats.Partitions)
	require.Positive(t, stats.TotalSize)
}
