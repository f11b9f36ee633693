// Package segment defines the parallel-text dataset: Arabic source
// segments paired with their English translations, plus the on-disk
// store that every other component reads and writes.
package segment

import (
	"strings"
	"time"
	"unicode"
)

// GapThreshold is the minimum number of visible runes a target text must
// have to count as a real translation. Anything shorter is a gap.
const GapThreshold = 3

// Status tracks how far a segment has progressed through the workflow.
// It only moves forward except by explicit human action.
type Status string

const (
	StatusUnaligned     Status = "unaligned"
	StatusDraft         Status = "draft"
	StatusPendingReview Status = "pending-review"
	StatusReviewed      Status = "reviewed"
)

// statusRank orders statuses for the forward-only rule.
var statusRank = map[Status]int{
	StatusUnaligned:     0,
	StatusDraft:         1,
	StatusPendingReview: 2,
	StatusReviewed:      3,
}

// Before reports whether s precedes other in workflow order. Unknown
// statuses rank lowest so a malformed record can always be advanced.
func (s Status) Before(other Status) bool {
	return statusRank[s] < statusRank[other]
}

// Segment is one aligned source/target pair. ID is globally unique and
// stable across runs; RowID groups segments that came from the same
// ingested row; Section partitions the dataset for sync and locking.
type Segment struct {
	ID          string     `json:"id"`
	RowID       string     `json:"rowId"`
	Section     string     `json:"section"`
	ParaIndex   int        `json:"paraIndex"`
	SegIndex    int        `json:"segIndex"`
	Src         string     `json:"src"`
	SrcEnhanced string     `json:"srcEnhanced,omitempty"`
	Tgt         string     `json:"tgt"`
	SrcLang     string     `json:"srcLang"`
	TgtLang     string     `json:"tgtLang"`
	Status      Status     `json:"status"`
	LengthRatio float64    `json:"lengthRatio"`
	FileRefs    []string   `json:"fileRefs,omitempty"`
	TgtSource   string     `json:"tgtSource,omitempty"`
	TgtAt       *time.Time `json:"tgtAt,omitempty"`
}

// IsGap reports whether the segment still needs a translation: Arabic
// source text present, target empty or below GapThreshold visible runes.
func (g *Segment) IsGap() bool {
	return HasArabic(g.Src) && VisibleRunes(g.Tgt) < GapThreshold
}

// SetTgt replaces the target text, recomputes the length ratio, and
// records who produced the translation and when.
func (g *Segment) SetTgt(text, source string, at time.Time) {
	g.Tgt = text
	g.TgtSource = source
	g.TgtAt = &at
	g.RecomputeRatio()
}

// AdvanceStatus moves the segment to next only if that is a forward step.
func (g *Segment) AdvanceStatus(next Status) {
	if g.Status.Before(next) {
		g.Status = next
	}
}

// RecomputeRatio refreshes LengthRatio = len(tgt) / max(len(src), 1),
// measured in runes. Call after any change to Tgt.
func (g *Segment) RecomputeRatio() {
	srcLen := len([]rune(g.Src))
	if srcLen < 1 {
		srcLen = 1
	}
	g.LengthRatio = float64(len([]rune(g.Tgt))) / float64(srcLen)
}

// HasArabic reports whether text contains at least one rune from the
// Arabic script range.
func HasArabic(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}

// VisibleRunes counts the non-space runes in text after trimming.
func VisibleRunes(text string) int {
	n := 0
	for _, r := range strings.TrimSpace(text) {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
