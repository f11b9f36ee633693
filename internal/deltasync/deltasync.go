// Package deltasync answers the editor's pull question: everything that
// changed in a section since a known revision, plus who is active there.
package deltasync

import (
	"time"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/changelog"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/presence"
)

// ChangedRow is one change record projected to the fields editor clients
// consume. En and ArEnhanced are optional; future fields are additive.
type ChangedRow struct {
	RowID      string    `json:"row_id"`
	En         *string   `json:"en,omitempty"`
	ArEnhanced *string   `json:"arEnhanced,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Origin     string    `json:"origin"`
}

// Delta is the pull response: the section's current revision, the change
// records after the client's revision, and the active editors.
type Delta struct {
	Rev         int64            `json:"rev"`
	ChangedRows []ChangedRow     `json:"changedRows"`
	Presence    []presence.Entry `json:"presence"`
}

// Service combines the change log and presence registry into the single
// pull operation.
type Service struct {
	log      *changelog.Log
	registry *presence.Registry
}

// New builds a Service over the given log and registry.
func New(log *changelog.Log, registry *presence.Registry) *Service {
	return &Service{log: log, registry: registry}
}

// Pull returns the delta for section after revision since. Absence of
// prior state means "no changes yet": rev 0 and empty lists, never an
// error. The only side effect is the presence sweep.
func (s *Service) Pull(section string, since int64) (*Delta, error) {
	rev, err := s.log.Current(section)
	if err != nil {
		return nil, err
	}

	records, err := s.log.ReadSince(section, since)
	if err != nil {
		return nil, err
	}

	active, err := s.registry.ListActive(section)
	if err != nil {
		return nil, err
	}

	delta := &Delta{
		Rev:         rev,
		ChangedRows: make([]ChangedRow, 0, len(records)),
		Presence:    active,
	}
	if delta.Presence == nil {
		delta.Presence = []presence.Entry{}
	}
	for _, rec := range records {
		delta.ChangedRows = append(delta.ChangedRows, project(rec))
	}
	return delta, nil
}

// project narrows a change record to the caller-relevant fields.
func project(rec changelog.Record) ChangedRow {
	row := ChangedRow{
		RowID:     rec.RowID,
		Timestamp: rec.Timestamp,
		Origin:    rec.Origin,
	}
	if v, ok := rec.Changes["en"]; ok {
		en := v
		row.En = &en
	}
	if v, ok := rec.Changes["arEnhanced"]; ok {
		ar := v
		row.ArEnhanced = &ar
	}
	return row
}
