package batch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/changelog"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/segment"
)

// State names the merge pipeline's progress for failure reporting.
type State string

const (
	StateStart    State = "start"
	StateBackedUp State = "backed-up"
	StateParsed   State = "parsed"
	StateMerged   State = "merged"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// MergeOrigin identifies the batch pipeline in change records and
// segment provenance.
const MergeOrigin = "batch-merge"

// Report summarizes a merge run.
type Report struct {
	TranslationsFound int
	MergedCount       int
	SkippedConflicts  int
	SkippedUnknown    int
	RecordsAppended   int
	BackupPath        string
}

// Merger folds completed batch documents back into the dataset:
// backup → parse → merge → persist, never overwriting a target a human
// has since filled in. A failed run is reported, not retried.
type Merger struct {
	store     *segment.Store
	log       *changelog.Log
	batchDir  string
	backupDir string
	state     State
}

// NewMerger builds a merger over the given store and change log.
func NewMerger(store *segment.Store, log *changelog.Log, batchDir, backupDir string) *Merger {
	return &Merger{
		store:     store,
		log:       log,
		batchDir:  batchDir,
		backupDir: backupDir,
		state:     StateStart,
	}
}

// State returns how far the last Run got.
func (m *Merger) State() State { return m.state }

func (m *Merger) fail(err error) error {
	failedIn := m.state
	m.state = StateFailed
	return fmt.Errorf("merge failed in state %s: %w", failedIn, err)
}

// Run executes the merge state machine and returns the report.
//
// The backup runs before any mutation and without the dataset lock (it
// only reads); a backup failure is fatal. Parse and merge run under the
// store's exclusive lock so no live edit can interleave with the merge
// on the same segment, and the dataset is persisted atomically before
// the lock is released. The final transition appends one
// origin="batch-merge" change record per merged row so delta-sync
// clients see batch updates without a full resync.
func (m *Merger) Run() (*Report, error) {
	report := &Report{}

	backupPath, err := m.store.Backup(m.backupDir)
	if err != nil {
		return nil, m.fail(fmt.Errorf("backup: %w", err))
	}
	report.BackupPath = backupPath
	m.state = StateBackedUp

	type mergedRow struct {
		section string
		rowID   string
		text    string
	}
	var merged []mergedRow

	now := time.Now()
	err = m.store.Exclusive(func(ds *segment.Dataset) error {
		found, err := ParseDir(m.batchDir)
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}
		report.TranslationsFound = len(found)
		m.state = StateParsed

		for id, text := range found {
			seg := ds.Get(id)
			if seg == nil {
				report.SkippedUnknown++
				slog.Warn("batch translation targets unknown segment", "id", id)
				continue
			}
			// Conflict guard: only a still-empty target may be filled.
			// A human edit that arrived since the batch was built wins.
			if !seg.IsGap() {
				report.SkippedConflicts++
				continue
			}
			seg.SetTgt(text, MergeOrigin, now)
			seg.AdvanceStatus(segment.StatusPendingReview)
			report.MergedCount++
			merged = append(merged, mergedRow{
				section: seg.Section,
				rowID:   seg.RowID,
				text:    text,
			})
		}
		m.state = StateMerged
		return nil
	})
	if err != nil {
		return nil, m.fail(err)
	}

	for _, row := range merged {
		_, err := m.log.Append(row.section, row.rowID,
			map[string]string{"en": row.text}, MergeOrigin)
		if err != nil {
			return report, m.fail(fmt.Errorf("append change record for %s/%s: %w",
				row.section, row.rowID, err))
		}
		report.RecordsAppended++
	}

	m.state = StateDone
	return report, nil
}
