package segment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/fsx"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/lock"
)

// Store is the canonical on-disk dataset: a JSON array of segments.
// A missing file is an empty dataset, not an error. All mutations are
// persisted with a write-temp-then-rename so concurrent readers never
// see a half-written file, and every mutation holds a cross-process
// file lock and re-reads the dataset first, so a server and a batch job
// writing through separate Store instances never clobber each other.
type Store struct {
	path string

	mu   sync.RWMutex
	segs []Segment
	byID map[string]int
}

// Open loads the dataset at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, byID: make(map[string]int)}
	if err := s.reloadLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) lockPath() string { return s.path + ".lock" }

// reloadLocked replaces the in-memory dataset with the on-disk state.
// Callers hold s.mu (or, in Open, have sole ownership).
func (s *Store) reloadLocked() error {
	s.segs = nil
	s.byID = make(map[string]int)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read dataset %s: %w", s.path, err)
	}

	if err := json.Unmarshal(data, &s.segs); err != nil {
		return fmt.Errorf("failed to parse dataset %s: %w", s.path, err)
	}
	for i := range s.segs {
		if s.segs[i].Status == "" {
			s.segs[i].Status = StatusUnaligned
		}
		s.byID[s.segs[i].ID] = i
	}
	return nil
}

// Path returns the dataset file location.
func (s *Store) Path() string { return s.path }

// Len returns the number of segments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segs)
}

// Snapshot returns a copy of all segments in document order.
func (s *Store) Snapshot() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Segment, len(s.segs))
	copy(out, s.segs)
	return out
}

// Get returns the segment with the given id.
func (s *Store) Get(id string) (Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return Segment{}, false
	}
	return s.segs[i], true
}

// Append adds newly ingested segments and persists the dataset.
func (s *Store) Append(segs ...Segment) error {
	lk, err := lock.Acquire(s.lockPath())
	if err != nil {
		return err
	}
	defer lk.Release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return err
	}

	for _, seg := range segs {
		if _, exists := s.byID[seg.ID]; exists {
			return fmt.Errorf("duplicate segment id %q", seg.ID)
		}
	}
	for _, seg := range segs {
		s.byID[seg.ID] = len(s.segs)
		s.segs = append(s.segs, seg)
	}
	return s.saveLocked()
}

// RowChanges is a partial update to the editable fields of a row.
// Nil means "leave unchanged"; a pointer to the empty string clears.
type RowChanges struct {
	En         *string
	ArEnhanced *string
}

// IsEmpty reports whether no field is set.
func (c RowChanges) IsEmpty() bool { return c.En == nil && c.ArEnhanced == nil }

// ApplyRowChanges updates every segment of (section, rowID) with the
// given partial changes, recomputing ratios and advancing drafts, then
// persists. It returns the number of segments touched.
func (s *Store) ApplyRowChanges(section, rowID string, ch RowChanges, origin string) (int, error) {
	if ch.IsEmpty() {
		return 0, nil
	}

	lk, err := lock.Acquire(s.lockPath())
	if err != nil {
		return 0, err
	}
	defer lk.Release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return 0, err
	}

	now := time.Now()
	touched := 0
	for i := range s.segs {
		seg := &s.segs[i]
		if seg.Section != section || seg.RowID != rowID {
			continue
		}
		if ch.En != nil {
			seg.SetTgt(*ch.En, origin, now)
			seg.AdvanceStatus(StatusDraft)
		}
		if ch.ArEnhanced != nil {
			seg.SrcEnhanced = *ch.ArEnhanced
		}
		touched++
	}
	if touched == 0 {
		return 0, nil
	}
	if err := s.saveLocked(); err != nil {
		return 0, err
	}
	return touched, nil
}

// saveLocked persists the dataset atomically. Callers hold s.mu and the
// cross-process file lock.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.segs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := fsx.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// Backup writes a timestamped copy of the dataset into dir and returns
// the backup path. The on-disk file is copied rather than the in-memory
// snapshot, so the backup covers edits written by other processes since
// this store was opened. It never mutates the dataset.
func (s *Store) Backup(dir string) (string, error) {
	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		data, err = json.MarshalIndent(s.segs, "", "  ")
	}
	s.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("failed to read dataset for backup: %w", err)
	}

	name := fmt.Sprintf("triview-%s.json", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := fsx.WriteFileAtomic(path, data, 0444); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}

// Dataset is the mutable view handed to Exclusive callbacks.
type Dataset struct {
	segs []Segment
	byID map[string]int
}

// Get returns a pointer into the working copy, or nil if id is unknown.
// The pointer is only valid for the duration of the Exclusive callback.
func (d *Dataset) Get(id string) *Segment {
	i, ok := d.byID[id]
	if !ok {
		return nil
	}
	return &d.segs[i]
}

// All returns the working copy in document order.
func (d *Dataset) All() []Segment { return d.segs }

// Exclusive runs fn over a working copy of the dataset while holding
// both the store's write lock and the cross-process file lock. The
// dataset is re-read from disk under the lock, so fn sees edits made by
// other processes since this store was opened. The copy is persisted
// and published only if fn returns nil; on error an aborted merge
// leaves no partial visible effect.
func (s *Store) Exclusive(fn func(*Dataset) error) error {
	lk, err := lock.Acquire(s.lockPath())
	if err != nil {
		return err
	}
	defer lk.Release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return err
	}

	work := &Dataset{
		segs: make([]Segment, len(s.segs)),
		byID: make(map[string]int, len(s.byID)),
	}
	copy(work.segs, s.segs)
	for id, i := range s.byID {
		work.byID[id] = i
	}

	if err := fn(work); err != nil {
		return err
	}

	s.segs = work.segs
	s.byID = work.byID
	return s.saveLocked()
}
