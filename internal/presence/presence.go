// Package presence tracks which editors are currently active on which
// rows. Entries are ephemeral: refreshed on every heartbeat, swept and
// physically deleted once stale. Nothing here is part of the dataset's
// history.
package presence

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/fsx"
)

// StaleThreshold is how long after its last heartbeat an entry still
// counts as active. The sweep deletes anything older.
const StaleThreshold = 12 * time.Second

// Entry is one editor's last reported position. Active is derived at
// query time, never stored.
type Entry struct {
	UserLabel string    `json:"userLabel"`
	Section   string    `json:"section"`
	RowID     string    `json:"row_id"`
	Timestamp time.Time `json:"timestamp"`
	Active    bool      `json:"active,omitempty"`
}

// Registry is the presence map, keyed by user label (one active position
// per user), persisted as a single JSON file and rewritten atomically
// after every sweep.
type Registry struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
	loaded  bool

	// now is swappable for staleness tests.
	now func() time.Time
}

// NewRegistry creates a registry persisted at path. The file is loaded
// lazily; a missing file means no one is active.
func NewRegistry(path string) *Registry {
	return &Registry{path: path, now: time.Now}
}

func (r *Registry) load() error {
	if r.loaded {
		return nil
	}
	r.entries = make(map[string]Entry)
	r.loaded = true

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read presence state: %w", err)
	}
	if err := json.Unmarshal(data, &r.entries); err != nil {
		// Corrupt presence state is disposable; start fresh.
		r.entries = make(map[string]Entry)
	}
	return nil
}

func (r *Registry) persist() error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presence state: %w", err)
	}
	if err := fsx.WriteFileAtomic(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write presence state: %w", err)
	}
	return nil
}

// Heartbeat upserts the caller's position with the current time.
func (r *Registry) Heartbeat(userLabel, section, rowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return err
	}
	r.entries[userLabel] = Entry{
		UserLabel: userLabel,
		Section:   section,
		RowID:     rowID,
		Timestamp: r.now(),
	}
	return r.persist()
}

// ListActive sweeps stale entries from the whole registry (regardless of
// section), rewrites the state file when anything was deleted, and
// returns the still-active entries for section with Active set. The lazy
// sweep on every read bounds registry growth without a background timer.
func (r *Registry) ListActive(section string) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}

	now := r.now()
	swept := false
	for key, e := range r.entries {
		if now.Sub(e.Timestamp) >= StaleThreshold {
			delete(r.entries, key)
			swept = true
		}
	}
	if swept {
		if err := r.persist(); err != nil {
			return nil, err
		}
	}

	var out []Entry
	for _, e := range r.entries {
		if e.Section != section {
			continue
		}
		e.Active = now.Sub(e.Timestamp) < StaleThreshold
		out = append(out, e)
	}
	return out, nil
}
