// Package gaps scans the dataset for segments that still need a
// translation and maintains the disposable gap manifest consumed by the
// batch pipeline. Gap records are regenerated on every run, never
// hand-edited.
package gaps

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/chunker"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/fsx"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/segment"
)

// Record describes one untranslated segment with enough neighboring
// context for a human or LLM translator to work in isolation.
type Record struct {
	ID          string   `json:"id"`
	FileRefs    []string `json:"fileRefs,omitempty"`
	ParaIndex   int      `json:"paraIndex"`
	SegIndex    int      `json:"segIndex"`
	Src         string   `json:"src"`
	ContextPrev string   `json:"contextPrev"`
	ContextNext string   `json:"contextNext"`
}

// Detect returns a gap record for every segment whose source contains
// Arabic text while its target is empty or below the gap threshold. It
// is a pure function of the snapshot: document order is preserved and
// context comes from the immediate neighbors (empty at the boundaries).
func Detect(segments []segment.Segment) []Record {
	var out []Record
	for i, seg := range segments {
		if !seg.IsGap() {
			continue
		}
		rec := Record{
			ID:        seg.ID,
			FileRefs:  seg.FileRefs,
			ParaIndex: seg.ParaIndex,
			SegIndex:  seg.SegIndex,
			Src:       seg.Src,
		}
		if i > 0 {
			rec.ContextPrev = chunker.ContextBefore(segments[i-1].Src, 0)
		}
		if i < len(segments)-1 {
			rec.ContextNext = chunker.ContextAfter(segments[i+1].Src, 0)
		}
		out = append(out, rec)
	}
	return out
}

// WriteManifest rewrites the manifest at path with one JSON record per
// line, replacing whatever a previous run left behind.
func WriteManifest(path string, records []Record) error {
	var buf bytes.Buffer
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal gap record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := fsx.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write gap manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest. A missing file
// is an empty manifest; malformed lines are skipped with a warning.
func ReadManifest(path string) ([]Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gap manifest: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			slog.Warn("skipping malformed gap record", "line", lineNo, "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gap manifest: %w", err)
	}
	return out, nil
}
