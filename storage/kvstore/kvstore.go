// Package kvstore implements history storage on top of the pogreb
// embedded key-value store.
//
// Each history occupies one meta key holding its capacity and one key per
// physical slot holding the logical index and digest written there. An
// append is a single slot write, so a crash never leaves a history half
// updated. The next index is recovered as one past the highest logical
// index found in the slots.
package kvstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/akrylysov/pogreb"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/storage"
)

const (
	moduleName = "pogreb"

	keyMeta byte = 'm'
	keySlot byte = 's'

	metaSize = 8
	slotSize = 8 + history.DigestSize
)

// Store is a HistoryStorage backed by a pogreb database.
type Store struct {
	db     *pogreb.DB
	path   string
	logger *log.Logger

	mu sync.Mutex
	// Next index per history, filled lazily from the slots.
	next map[string]uint64
}

var _ storage.HistoryStorage = (*Store)(nil)

// Open opens the pogreb database at path, creating it if needed.
func Open(path string, logger *log.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger.WithModule(moduleName),
		next:   map[string]uint64{},
	}

	// Pogreb backs up its indices into <oldname>.bac on every unclean
	// open. Clean those up before opening so crash loops do not pile up
	// ever longer file names.
	s.preBackup()

	// If a reindex is needed this can take a while.
	s.logger.Info("(re)opening KVStore", "path", path)
	db, err := pogreb.Open(path, &pogreb.Options{BackgroundSyncInterval: -1})
	if err != nil {
		s.logger.Error("failed to initialize pogreb store", "err", err)
		return nil, err
	}
	s.db = db
	s.logger.Info(fmt.Sprintf("KVStore has %d entries", db.Count()))
	return s, nil
}

// Gets rid of excessively backed-up pogreb index files.
func (s *Store) preBackup() {
	backupNeeded := pathExists(filepath.Join(s.path, "lock"))
	backupDir := filepath.Join(filepath.Dir(s.path), filepath.Base(s.path)+".backup")
	if backupNeeded {
		s.logger.Info("pogreb lock file found; preemptively backing up indexes", "path", s.path, "backup_path", backupDir)
		if !pathExists(backupDir) { // Keep an older backup if there is one.
			err := moveFiles(
				[]string{filepath.Join(s.path, "*")},
				[]string{
					filepath.Join(s.path, "*.psg"), // the data that needs to be reindexed
					filepath.Join(s.path, "lock"),  // will trigger a reindex
				},
				backupDir,
			)
			if err != nil {
				s.logger.Warn("failed to move pogreb index files to backup directory", "err", err, "path", s.path, "backup_path", backupDir)
			}
		}
	}
	if err := deleteFiles(filepath.Join(s.path, "*.bac.bac")); err != nil {
		s.logger.Warn("failed to delete excessively backed-up pogreb index files", "err", err)
	}
}

func encodeName(kind byte, name string, extra int) []byte {
	key := make([]byte, 0, 3+len(name)+extra)
	key = append(key, kind)
	key = binary.BigEndian.AppendUint16(key, uint16(len(name)))
	return append(key, name...)
}

func metaKey(name string) []byte {
	return encodeName(keyMeta, name, 0)
}

func slotKey(name string, slot uint64) []byte {
	return binary.BigEndian.AppendUint64(encodeName(keySlot, name, 8), slot)
}

// Returns the stored capacity, or ok == false if the history does not exist.
func (s *Store) capacity(name string) (capacity uint64, ok bool, err error) {
	raw, err := s.db.Get(metaKey(name))
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, false, nil
	}
	if len(raw) != metaSize {
		return 0, false, fmt.Errorf("history %s: corrupt meta value of %d bytes", name, len(raw))
	}
	capacity = binary.BigEndian.Uint64(raw)
	if capacity == 0 || capacity > history.MaxCapacity {
		return 0, false, fmt.Errorf("history %s: corrupt meta capacity %d", name, capacity)
	}
	return capacity, true, nil
}

type slotValue struct {
	index  uint64
	digest history.Digest
}

// Reads every slot of a history. Missing slots are nil.
func (s *Store) slots(name string, capacity uint64) ([]*slotValue, uint64, error) {
	out := make([]*slotValue, capacity)
	var next uint64
	for slot := uint64(0); slot < capacity; slot++ {
		raw, err := s.db.Get(slotKey(name, slot))
		if err != nil {
			return nil, 0, err
		}
		if raw == nil {
			continue
		}
		if len(raw) != slotSize {
			return nil, 0, fmt.Errorf("history %s slot %d: corrupt value of %d bytes", name, slot, len(raw))
		}
		v := &slotValue{index: binary.BigEndian.Uint64(raw)}
		copy(v.digest[:], raw[8:])
		if v.index%capacity != slot {
			return nil, 0, fmt.Errorf("history %s slot %d: holds index %d", name, slot, v.index)
		}
		out[slot] = v
		if v.index+1 > next {
			next = v.index + 1
		}
	}
	return out, next, nil
}

// Load implements storage.HistoryStorage.
func (s *Store) Load(ctx context.Context, name string) (*history.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity, ok, err := s.capacity(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNoHistory
	}
	slots, next, err := s.slots(name, capacity)
	if err != nil {
		return nil, err
	}

	var first uint64
	if next > capacity {
		first = next - capacity
	}
	snap := &history.Snapshot{Capacity: capacity, NextIndex: next, Digests: make([]history.Digest, 0, next-first)}
	for i := first; i < next; i++ {
		v := slots[i%capacity]
		if v == nil || v.index != i {
			return nil, fmt.Errorf("history %s: missing index %d", name, i)
		}
		snap.Digests = append(snap.Digests, v.digest)
	}
	s.next[name] = next
	return snap, nil
}

// Append implements storage.HistoryStorage.
func (s *Store) Append(ctx context.Context, name string, capacity uint64, index uint64, d history.Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storedCapacity, ok, err := s.capacity(name)
	if err != nil {
		return err
	}
	storedNext := uint64(0)
	switch {
	case !ok:
		storedCapacity = capacity
	default:
		var cached bool
		if storedNext, cached = s.next[name]; !cached {
			if _, storedNext, err = s.slots(name, storedCapacity); err != nil {
				return err
			}
		}
	}
	if err = storage.CheckAppend(name, storedCapacity, storedNext, capacity, index); err != nil {
		return err
	}

	if !ok {
		meta := binary.BigEndian.AppendUint64(nil, capacity)
		if err = s.db.Put(metaKey(name), meta); err != nil {
			return fmt.Errorf("creating history %s: %w", name, err)
		}
	}
	value := binary.BigEndian.AppendUint64(make([]byte, 0, slotSize), index)
	value = append(value, d[:]...)
	if err = s.db.Put(slotKey(name, index%capacity), value); err != nil {
		return fmt.Errorf("writing history %s index %d: %w", name, index, err)
	}
	s.next[name] = index + 1
	return nil
}

// Wipe implements storage.HistoryStorage.
func (s *Store) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys [][]byte
	it := s.db.Items()
	for {
		key, _, err := it.Next()
		if errors.Is(err, pogreb.ErrIterationDone) {
			break
		}
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	for _, key := range keys {
		if err := s.db.Delete(key); err != nil {
			return err
		}
	}
	s.next = map[string]uint64{}
	s.logger.Info("wiped KVStore", "deleted_keys", len(keys))
	return nil
}

// Close implements storage.HistoryStorage.
func (s *Store) Close() {
	s.logger.Info("closing KVStore", "path", s.path)
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close KVStore", "err", err)
	}
}

// Name implements storage.HistoryStorage.
func (s *Store) Name() string {
	return moduleName
}
