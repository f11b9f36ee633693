// Package changelog implements the append-only, per-section change
// stream backing delta sync. Each section keeps a JSONL log of change
// records and a small revision-state file holding the monotonically
// increasing revision counter.
package changelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/fsx"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/lock"
)

// Record is one immutable entry in a section's change stream. Rev is
// assigned by the log, strictly increasing per section, never reused.
// Changes is a partial field map; unknown future fields are additive.
type Record struct {
	Section   string            `json:"section"`
	RowID     string            `json:"row_id"`
	Rev       int64             `json:"rev"`
	Changes   map[string]string `json:"changes"`
	Timestamp time.Time         `json:"timestamp"`
	Origin    string            `json:"origin"`
}

// revState is the persisted revision counter for one section.
type revState struct {
	Revision int64 `json:"revision"`
}

// Log manages the per-section change streams under a base directory:
// <dir>/<section>/changes.jsonl and <dir>/<section>/revision.json.
type Log struct {
	dir string

	mu       sync.Mutex
	sections map[string]*sectionLog
}

type sectionLog struct {
	mu  sync.Mutex
	rev int64
}

// New creates a Log rooted at dir. Nothing is touched on disk until the
// first append; reads of absent sections return empty results.
func New(dir string) *Log {
	return &Log{dir: dir, sections: make(map[string]*sectionLog)}
}

func (l *Log) sectionDir(section string) string {
	return filepath.Join(l.dir, section)
}

func (l *Log) logPath(section string) string {
	return filepath.Join(l.sectionDir(section), "changes.jsonl")
}

func (l *Log) revPath(section string) string {
	return filepath.Join(l.sectionDir(section), "revision.json")
}

func (l *Log) lockPath(section string) string {
	return filepath.Join(l.sectionDir(section), "lock")
}

// readPersistedRev returns the counter currently on disk, 0 when absent
// or unreadable (the log scan reconciles the unreadable case).
func (l *Log) readPersistedRev(section string) int64 {
	data, err := os.ReadFile(l.revPath(section))
	if err != nil {
		return 0
	}
	var st revState
	if err := json.Unmarshal(data, &st); err != nil {
		return 0
	}
	return st.Revision
}

// section returns the in-memory state for a section, loading the
// persisted counter on first use. The counter is reconciled against the
// highest revision found in the log so an interrupted append never
// causes a revision to be reused.
func (l *Log) section(section string) (*sectionLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sl, ok := l.sections[section]; ok {
		return sl, nil
	}

	sl := &sectionLog{}

	data, err := os.ReadFile(l.revPath(section))
	switch {
	case os.IsNotExist(err):
		// Uninitialized section starts at revision 0.
	case err != nil:
		return nil, fmt.Errorf("failed to read revision state: %w", err)
	default:
		var st revState
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("failed to parse revision state: %w", err)
		}
		sl.rev = st.Revision
	}

	if maxRev := l.scanMaxRev(section); maxRev > sl.rev {
		sl.rev = maxRev
	}

	l.sections[section] = sl
	return sl, nil
}

// scanMaxRev returns the highest revision present in the section's log
// file, or 0 when the log is absent or unreadable.
func (l *Log) scanMaxRev(section string) int64 {
	f, err := os.Open(l.logPath(section))
	if err != nil {
		return 0
	}
	defer f.Close()

	var maxRev int64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Rev > maxRev {
			maxRev = rec.Rev
		}
	}
	return maxRev
}

// Append assigns the next revision for section, durably persists the
// counter, then appends the record to the section's stream. The counter
// is written before the record so an acknowledged revision is always
// reflected by the persisted state, and a crash in between at worst
// burns a revision number without ever reusing one.
//
// Assignment runs under a cross-process file lock with the persisted
// counter re-read inside it, so two processes appending to the same
// section (a live server and a batch merge) never hand out the same
// revision.
func (l *Log) Append(section, rowID string, changes map[string]string, origin string) (int64, error) {
	sl, err := l.section(section)
	if err != nil {
		return 0, err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	lk, err := lock.Acquire(l.lockPath(section))
	if err != nil {
		return 0, fmt.Errorf("failed to lock change log: %w", err)
	}
	defer lk.Release()

	if persisted := l.readPersistedRev(section); persisted > sl.rev {
		sl.rev = persisted
	}
	next := sl.rev + 1

	state, err := json.Marshal(revState{Revision: next})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal revision state: %w", err)
	}
	if err := fsx.WriteFileAtomic(l.revPath(section), state, 0644); err != nil {
		return 0, fmt.Errorf("failed to persist revision state: %w", err)
	}

	rec := Record{
		Section:   section,
		RowID:     rowID,
		Rev:       next,
		Changes:   changes,
		Timestamp: time.Now(),
		Origin:    origin,
	}
	if err := l.appendLine(section, rec); err != nil {
		return 0, err
	}

	sl.rev = next
	return next, nil
}

func (l *Log) appendLine(section string, rec Record) error {
	if err := os.MkdirAll(l.sectionDir(section), 0755); err != nil {
		return fmt.Errorf("failed to create section directory: %w", err)
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal change record: %w", err)
	}

	f, err := os.OpenFile(l.logPath(section), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open change log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append change record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync change log: %w", err)
	}
	return nil
}

// ReadSince returns all records for section with rev > since, ordered by
// timestamp ascending (ties broken by rev ascending) to match the
// user-visible order of edits from concurrent writers. A missing log is
// an empty history; malformed lines are skipped with a warning.
func (l *Log) ReadSince(section string, since int64) ([]Record, error) {
	f, err := os.Open(l.logPath(section))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open change log: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			slog.Warn("skipping malformed change record",
				"section", section, "line", lineNo, "error", err)
			continue
		}
		if rec.Rev > since {
			out = append(out, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Rev < out[j].Rev
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Current returns the section's current revision counter, 0 when the
// section has no history yet. The persisted counter is consulted so
// revisions assigned by other processes are visible.
func (l *Log) Current(section string) (int64, error) {
	sl, err := l.section(section)
	if err != nil {
		return 0, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if persisted := l.readPersistedRev(section); persisted > sl.rev {
		sl.rev = persisted
	}
	return sl.rev, nil
}
