package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/corekv/corekv/kverrors"
)

// Stats reports the store's on-disk footprint.
type Stats struct {
	TotalKeys  int    `json:"totalKeys"`
	TotalSize  int64  `json:"totalSize"`
	Partitions int    `json:"partitions"`
	DataPath   string `json:"dataPath"`
}

// PartitionedStore persists Entries to <dataPath>/partition_N/<encoded>.json,
// one file per key, fanned out across 16 partitions by djb2(key) mod 16.
// Every operation opens and closes its own file handles; nothing is kept
// open between calls, per the "no long-lived handles" ownership rule.
type PartitionedStore struct {
	dataPath string
	log      *slog.Logger

	// mu serializes initialize/save/delete/clear against concurrent
	// readers so a partial rewrite is never observed mid-write by list
	// or getAllEntries. Per-file atomicity is additionally guaranteed by
	// the temp-file-then-rename write path.
	mu sync.RWMutex
}

// New constructs a PartitionedStore rooted at dataPath. Call Initialize
// before using it.
func New(dataPath string, log *slog.Logger) *PartitionedStore {
	if log == nil {
		log = slog.Default()
	}
	return &PartitionedStore{dataPath: dataPath, log: log}
}

func (s *PartitionedStore) partitionDir(n int) string {
	return filepath.Join(s.dataPath, fmt.Sprintf("partition_%d", n))
}

func (s *PartitionedStore) pathFor(key string) string {
	n := partitionOf(key)
	return filepath.Join(s.partitionDir(n), encodeFilename(key)+".json")
}

// Initialize creates the root and all 16 partition directories. Idempotent.
func (s *PartitionedStore) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n := 0; n < partitionCount; n++ {
		if err := os.MkdirAll(s.partitionDir(n), 0o755); err != nil {
			return kverrors.Wrapf(kverrors.IoFailure, err, "create partition directory %d", n)
		}
	}
	return nil
}

// Save writes value under key, carrying forward createdAt and bumping
// version if a prior entry exists. The write is atomic: it writes to a
// sibling temp file and renames over the destination, so readers never see
// a half-written file.
func (s *PartitionedStore) Save(key string, value any) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(key)
	now := time.Now()

	entry := Entry{
		Key:   key,
		Value: value,
		Metadata: Metadata{
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
	}

	if prior, err := readEntryFile(path); err == nil {
		entry.Metadata.CreatedAt = prior.Metadata.CreatedAt
		entry.Metadata.Version = prior.Metadata.Version + 1
	} else if !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("store: discarding unreadable prior entry on save", "key", key, "error", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return Entry{}, kverrors.Wrapf(kverrors.IoFailure, err, "marshal entry")
	}

	if err := writeFileAtomic(path, data); err != nil {
		return Entry{}, kverrors.WithOp(kverrors.Wrap(kverrors.IoFailure, err), "save", key)
	}
	return entry, nil
}

// Load reads key's entry, if present. A missing file is not an error: it
// returns (Entry{}, false, nil).
func (s *PartitionedStore) Load(key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, err := readEntryFile(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, false, nil
		}
		if errors.Is(err, errCorrupt) {
			return Entry{}, false, kverrors.WithOp(kverrors.Wrap(kverrors.CorruptEntry, err), "load", key)
		}
		return Entry{}, false, kverrors.WithOp(kverrors.Wrap(kverrors.IoFailure, err), "load", key)
	}
	return entry, true, nil
}

// Delete removes key's file, reporting whether anything was removed.
func (s *PartitionedStore) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, kverrors.WithOp(kverrors.Wrap(kverrors.IoFailure, err), "delete", key)
	}
	return true, nil
}

// Exists reports whether key has a file on disk, without parsing it.
func (s *PartitionedStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.pathFor(key))
	return err == nil
}

// List enumerates every stored key, derived from each file's parsed
// contents rather than its filename. Files that fail to parse are logged
// and skipped, not treated as a listing failure.
func (s *PartitionedStore) List() ([]string, error) {
	entries, err := s.GetAllEntries()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys, nil
}

// GetAllEntries reads every entry across all partitions. Unparseable files
// are logged and skipped.
func (s *PartitionedStore) GetAllEntries() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Entry
	for n := 0; n < partitionCount; n++ {
		dir := s.partitionDir(n)
		files, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, kverrors.Wrapf(kverrors.IoFailure, err, "read partition directory %d", n)
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
				continue
			}
			path := filepath.Join(dir, f.Name())
			entry, err := readEntryFile(path)
			if err != nil {
				s.log.Warn("store: skipping unreadable entry during scan", "path", path, "error", err)
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Clear unlinks every .json file under every partition directory.
func (s *PartitionedStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n := 0; n < partitionCount; n++ {
		dir := s.partitionDir(n)
		files, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return kverrors.Wrapf(kverrors.IoFailure, err, "read partition directory %d", n)
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
				continue
			}
			if err := os.Remove(filepath.Join(dir, f.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
				return kverrors.Wrapf(kverrors.IoFailure, err, "remove %s", f.Name())
			}
		}
	}
	return nil
}

// GetStats walks the store computing key count and total serialized size.
func (s *PartitionedStore) GetStats() (Stats, error) {
	entries, err := s.GetAllEntries()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Partitions: partitionCount, DataPath: s.dataPath, TotalKeys: len(entries)}
	for _, e := range entries {
		data, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			continue
		}
		stats.TotalSize += int64(len(data))
	}
	return stats, nil
}

var errCorrupt = errors.New("corrupt store entry")

func readEntryFile(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("%w: %s: %v", errCorrupt, path, err)
	}
	return entry, nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place, so a reader never observes a partially written file.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
