// Package storemanager wraps a store.PartitionedStore with the machinery
// the store itself stays ignorant of: an asynchronous write queue with a
// single drainer, a bounded read cache, a periodic backup, and on-demand
// restore and compact. Writers get back a Future per write rather
// than having writes silently dropped under pressure.
package storemanager

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corekv/corekv/kverrors"
	"github.com/corekv/corekv/store"
)

const (
	defaultQueueCapacity  = 256
	defaultBackupInterval = 5 * time.Minute
)

type writeRequest struct {
	key       string
	value     any
	isBarrier bool
	future    *Future
}

// Manager is the durable store's coordination layer: one background
// drainer serializes all writes in arrival order, a bounded read cache
// absorbs repeat loads, and an optional ticker snapshots the store to a
// timestamped backup file.
type Manager struct {
	store *store.PartitionedStore
	log   *slog.Logger

	dataPath       string
	backupInterval time.Duration

	cacheMu sync.Mutex
	cache   *readCache

	queue chan writeRequest
	wg    sync.WaitGroup

	backupStop chan struct{}
	backupDone chan struct{}
}

// Config configures a Manager. A nil BackupInterval uses the default of 5
// minutes; any supplied value <= 0 disables periodic backup entirely (the
// shutdown backup still runs).
type Config struct {
	DataPath       string
	BackupInterval *time.Duration
}

// New constructs a Manager over st and starts its background drainer (and,
// unless disabled, its backup loop).
func New(st *store.PartitionedStore, cfg Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	interval := defaultBackupInterval
	if cfg.BackupInterval != nil {
		interval = *cfg.BackupInterval
	}

	m := &Manager{
		store:          st,
		log:            log,
		dataPath:       cfg.DataPath,
		backupInterval: interval,
		cache:          newReadCache(readCacheCapacity),
		queue:          make(chan writeRequest, defaultQueueCapacity),
	}

	m.wg.Add(1)
	go m.drain()

	if interval > 0 {
		m.startBackupLoop()
	}
	return m
}

// Save enqueues a write and returns a Future that resolves once the entry
// has actually been written to disk by the (single) drainer goroutine.
func (m *Manager) Save(key string, value any) *Future {
	f := newFuture()
	m.queue <- writeRequest{key: key, value: value, future: f}
	return f
}

func (m *Manager) drain() {
	defer m.wg.Done()
	for req := range m.queue {
		if req.isBarrier {
			req.future.resolve(nil)
			continue
		}

		entry, err := m.store.Save(req.key, req.value)
		if err != nil {
			m.log.Error("storemanager: write failed", "key", req.key, "error", err)
			req.future.resolve(err)
			continue
		}

		m.cacheMu.Lock()
		m.cache.put(req.key, entry)
		m.cacheMu.Unlock()

		req.future.resolve(nil)
	}
}

// Load returns key's entry, preferring the read cache. A cache miss reads
// through to the store and, on a hit there, populates the cache.
func (m *Manager) Load(key string) (store.Entry, bool, error) {
	m.cacheMu.Lock()
	if entry, ok := m.cache.get(key); ok {
		m.cacheMu.Unlock()
		return entry, true, nil
	}
	m.cacheMu.Unlock()

	entry, ok, err := m.store.Load(key)
	if err != nil {
		return store.Entry{}, false, err
	}
	if ok {
		m.cacheMu.Lock()
		m.cache.put(key, entry)
		m.cacheMu.Unlock()
	}
	return entry, ok, nil
}

// Delete removes key from both the read cache and the store.
func (m *Manager) Delete(key string) (bool, error) {
	m.cacheMu.Lock()
	m.cache.delete(key)
	m.cacheMu.Unlock()
	return m.store.Delete(key)
}

// Clear empties the read cache and the store.
func (m *Manager) Clear() error {
	m.cacheMu.Lock()
	m.cache.clear()
	m.cacheMu.Unlock()
	return m.store.Clear()
}

// Flush blocks until every write enqueued before this call has been
// drained. It works by enqueuing a barrier request behind them and waiting
// for the single drainer to reach it — the channel's FIFO ordering is what
// makes this sufficient.
func (m *Manager) Flush() {
	f := newFuture()
	m.queue <- writeRequest{isBarrier: true, future: f}
	f.Wait()
}

// Backup triggers an immediate snapshot, the same one the periodic backup
// loop runs on its own schedule. Exposed for an explicit admin-triggered
// backup (see httpapi/storeserver's /api/backup route).
func (m *Manager) Backup() error {
	return m.runBackup()
}

// runBackup snapshots every live entry to a single timestamped JSON file
// under dataPath. Best-effort: callers log failures and carry on.
func (m *Manager) runBackup() error {
	entries, err := m.store.GetAllEntries()
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return kverrors.Wrap(kverrors.IoFailure, err)
	}

	name := fmt.Sprintf("backup_%s.json", backupTimestamp(time.Now()))
	path := filepath.Join(m.dataPath, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return kverrors.Wrap(kverrors.IoFailure, err)
	}
	return nil
}

var backupTimestampReplacer = strings.NewReplacer(":", "-", ".", "-")

func backupTimestamp(t time.Time) string {
	return backupTimestampReplacer.Replace(t.UTC().Format(time.RFC3339Nano))
}

func (m *Manager) startBackupLoop() {
	m.backupStop = make(chan struct{})
	m.backupDone = make(chan struct{})

	go func() {
		defer close(m.backupDone)
		ticker := time.NewTicker(m.backupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.backupStop:
				return
			case <-ticker.C:
				if err := m.runBackup(); err != nil {
					m.log.Error("storemanager: periodic backup failed", "error", err)
				}
			}
		}
	}()
}

// Restore replays every entry in a backup file through Save. Versions are
// not preserved: each replayed save computes its own version relative to
// whatever (if anything) is currently on disk for that key.
func (m *Manager) Restore(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return kverrors.Wrap(kverrors.IoFailure, err)
	}

	var entries []store.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return kverrors.Wrap(kverrors.CorruptEntry, err)
	}

	for _, e := range entries {
		if err := m.Save(e.Key, e.Value).Wait(); err != nil {
			m.log.Warn("storemanager: restore failed for key", "key", e.Key, "error", err)
		}
	}
	return nil
}

// Compact keeps only the highest-version entry per key, then rewrites the
// store from scratch so every surviving entry's version resets to 1. It
// flushes the write queue first so compaction never races a pending write.
func (m *Manager) Compact() error {
	m.Flush()

	entries, err := m.store.GetAllEntries()
	if err != nil {
		return err
	}

	latest := make(map[string]store.Entry, len(entries))
	for _, e := range entries {
		if cur, ok := latest[e.Key]; !ok || e.Metadata.Version >= cur.Metadata.Version {
			latest[e.Key] = e
		}
	}

	if err := m.store.Clear(); err != nil {
		return err
	}
	m.cacheMu.Lock()
	m.cache.clear()
	m.cacheMu.Unlock()

	for _, e := range latest {
		if _, err := m.store.Save(e.Key, e.Value); err != nil {
			m.log.Error("storemanager: compact rewrite failed", "key", e.Key, "error", err)
		}
	}
	return nil
}

// Shutdown stops the backup timer, flushes the write queue, and attempts
// one final backup. Failure of that final backup is logged, not returned —
// shutdown always proceeds.
func (m *Manager) Shutdown() {
	if m.backupStop != nil {
		close(m.backupStop)
		<-m.backupDone
	}

	m.Flush()
	close(m.queue)
	m.wg.Wait()

	if err := m.runBackup(); err != nil {
		m.log.Error("storemanager: shutdown backup failed", "error", err)
	}
}
