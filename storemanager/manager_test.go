package storemanager_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/corekv/corekv/store"
	"github.com/corekv/corekv/storemanager"
	"github.com/stretchr/testify/require"
)

func noPeriodicBackup() *time.Duration {
	d := time.Duration(0)
	return &d
}

func newTestManager(t *testing.T) (*storemanager.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	st := store.New(dir, nil)
	require.NoError(t, st.Initialize())
	// Disable the periodic backup loop for deterministic tests; Shutdown
	// still performs its one best-effort final backup.
	m := storemanager.New(st, storemanager.Config{DataPath: dir, BackupInterval: noPeriodicBackup()}, nil)
	return m, dir
}

func TestSaveFutureResolvesOnSuccess(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Shutdown()

	err := m.Save("k", "v").Wait()
	require.NoError(t, err)

	entry, ok, err := m.Load("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", entry.Value)
}

func TestLoadReadsThroughOnMiss(t *testing.T) {
	m, dir := newTestManager(t)
	defer m.Shutdown()

	require.NoError(t, m.Save("k", "v1").Wait())

	// Load straight from a second manager instance over the same
	// directory to force a store read-through rather than a cache hit.
	st2 := store.New(dir, nil)
	m2 := storemanager.New(st2, storemanager.Config{DataPath: dir, BackupInterval: noPeriodicBackup()}, nil)
	defer m2.Shutdown()

	entry, ok, err := m2.Load("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", entry.Value)
}

func TestDeleteRemovesFromCacheAndStore(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Shutdown()

	require.NoError(t, m.Save("k", "v").Wait())

	removed, err := m.Delete("k")
	require.NoError(t, err)
	require.True(t, removed)

	_, ok, err := m.Load("k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFlushWaitsForAllPriorWrites(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Shutdown()

	for i := 0; i < 20; i++ {
		m.Save("k", i) // fire-and-forget futures, deliberately not awaited
	}
	m.Flush()

	entry, ok, err := m.Load("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 19, entry.Value)
}

// TestCompactRenumbersVersions: after writing the same key multiple times
// (bumping its version each time) and compacting, exactly one file remains
// for that key and its version has reset to 1.
func TestCompactRenumbersVersions(t *testing.T) {
	m, dir := newTestManager(t)
	defer m.Shutdown()

	require.NoError(t, m.Save("k", "v1").Wait())
	require.NoError(t, m.Save("k", "v2").Wait())
	require.NoError(t, m.Save("k", "v3").Wait())

	require.NoError(t, m.Compact())

	st := store.New(dir, nil)
	entries, err := st.GetAllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(1), entries[0].Metadata.Version)
	require.Equal(t, "v3", entries[0].Value)
}

func TestShutdownWritesFinalBackup(t *testing.T) {
	m, dir := newTestManager(t)

	require.NoError(t, m.Save("a", 1).Wait())
	require.NoError(t, m.Save("b", 2).Wait())

	m.Shutdown()

	matches, err := filepath.Glob(filepath.Join(dir, "backup_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

// TestRestoreReplaysBackupEntries exercises backup -> restore against a
// second, empty store: every key captured in the snapshot reappears.
func TestRestoreReplaysBackupEntries(t *testing.T) {
	source, dir := newTestManager(t)
	require.NoError(t, source.Save("a", float64(1)).Wait())
	require.NoError(t, source.Save("b", float64(2)).Wait())
	source.Shutdown() // writes the snapshot we'll restore from

	matches, err := filepath.Glob(filepath.Join(dir, "backup_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	freshDir := t.TempDir()
	freshStore := store.New(freshDir, nil)
	require.NoError(t, freshStore.Initialize())
	fresh := storemanager.New(freshStore, storemanager.Config{DataPath: freshDir, BackupInterval: noPeriodicBackup()}, nil)
	defer fresh.Shutdown()

	require.NoError(t, fresh.Restore(matches[0]))

	entry, ok, err := fresh.Load("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, float64(1), entry.Value)
}

// TestZeroBackupIntervalDisablesPeriodicBackup: an explicitly supplied
// interval of 0 means "disabled" — no backup file appears until Shutdown's
// final snapshot.
func TestZeroBackupIntervalDisablesPeriodicBackup(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, nil)
	require.NoError(t, st.Initialize())

	m := storemanager.New(st, storemanager.Config{DataPath: dir, BackupInterval: noPeriodicBackup()}, nil)

	require.NoError(t, m.Save("k", "v").Wait())

	matches, err := filepath.Glob(filepath.Join(dir, "backup_*.json"))
	require.NoError(t, err)
	require.Empty(t, matches)

	m.Shutdown()

	matches, err = filepath.Glob(filepath.Join(dir, "backup_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

// TestNilBackupIntervalUsesDefault: leaving the interval unset falls back
// to the 5-minute default rather than disabling backups.
func TestNilBackupIntervalUsesDefault(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, nil)
	require.NoError(t, st.Initialize())

	m := storemanager.New(st, storemanager.Config{DataPath: dir}, nil)
	defer m.Shutdown()

	require.NoError(t, m.Save("k", "v").Wait())
}
