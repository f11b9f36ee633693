// Package batch turns detected gaps into bounded, reviewable translation
// batch documents and merges completed documents back into the dataset
// without clobbering newer human edits. The document format is a small
// fixed grammar (id marker, translation slot, block separator) that
// round-trips: whatever the builder emits, the parser reads back
// unmodified except for inserted translation text.
package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/fsx"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/gaps"
)

const (
	// Size is the fixed number of gaps per batch document.
	Size = 60

	// idMarker prefixes the machine-parseable gap id line.
	idMarker = "### ID: "
	// slotMarker opens the translation slot; the translator inserts
	// lines below it.
	slotMarker = "Translation:"
	// separator closes a gap block.
	separator = "---"

	filePattern = "batch_%03d.md"
)

// DefaultPreserveTerms are transliterated terms the translator must keep
// untranslated. A glossary can extend the list per project.
var DefaultPreserveTerms = []string{
	"Allah", "Qur'an", "Sunnah", "Hadith", "Ummah", "Iman", "Tawhid",
}

// StyleGuide is the instruction block rendered at the top of every batch
// document.
type StyleGuide struct {
	PreserveTerms []string
}

// DefaultStyle returns the stock style guide, optionally extended with
// project glossary terms (duplicates removed, order preserved).
func DefaultStyle(extraTerms []string) StyleGuide {
	seen := make(map[string]bool, len(DefaultPreserveTerms))
	terms := make([]string, 0, len(DefaultPreserveTerms)+len(extraTerms))
	for _, t := range append(append([]string{}, DefaultPreserveTerms...), extraTerms...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return StyleGuide{PreserveTerms: terms}
}

// Partition splits records into chunks of Size preserving input order:
// chunk k holds records [k*Size, (k+1)*Size).
func Partition(records []gaps.Record) [][]gaps.Record {
	var out [][]gaps.Record
	for start := 0; start < len(records); start += Size {
		end := start + Size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}

// Render produces one self-contained batch document for the given chunk.
func Render(num int, records []gaps.Record, style StyleGuide) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Translation Batch %03d\n\n", num)
	b.WriteString("Instructions for the translator:\n\n")
	b.WriteString("- Use Western digits (1, 2, 3) in the English text.\n")
	b.WriteString("- Use straight double quotes (\"...\") for quoted speech.\n")
	b.WriteString("- End each translation with punctuation matching the source.\n")
	if len(style.PreserveTerms) > 0 {
		fmt.Fprintf(&b, "- Keep these terms untranslated: %s.\n",
			strings.Join(style.PreserveTerms, ", "))
	}
	b.WriteString("\n" + separator + "\n")

	for _, rec := range records {
		b.WriteString("\n" + idMarker + rec.ID + "\n\n")
		if rec.ContextPrev != "" {
			fmt.Fprintf(&b, "Context (before): %s\n", rec.ContextPrev)
		}
		fmt.Fprintf(&b, "Source (ar): %s\n", rec.Src)
		if rec.ContextNext != "" {
			fmt.Fprintf(&b, "Context (after): %s\n", rec.ContextNext)
		}
		b.WriteString("\n" + slotMarker + "\n")
		b.WriteString("\n" + separator + "\n")
	}
	return b.Bytes()
}

// WriteAll removes every batch document a previous run left in dir, then
// writes one document per chunk. Rebuilding is idempotent by
// replacement: the output set always reflects exactly the current gaps.
func WriteAll(dir string, records []gaps.Record, style StyleGuide) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}

	stale, err := List(dir)
	if err != nil {
		return nil, err
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove stale batch %s: %w", path, err)
		}
	}

	var written []string
	for i, chunk := range Partition(records) {
		num := i + 1
		path := filepath.Join(dir, fmt.Sprintf(filePattern, num))
		if err := fsx.WriteFileAtomic(path, Render(num, chunk, style), 0644); err != nil {
			return nil, fmt.Errorf("failed to write batch %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// List returns the batch documents in dir in name order.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "batch_*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to list batch documents: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}
