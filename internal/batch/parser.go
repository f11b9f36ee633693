package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Translation is one filled slot extracted from a batch document.
type Translation struct {
	ID   string
	Text string
}

// ParseDocument extracts {id → translated text} pairs from one batch
// document. Slot content is every non-empty line after the slot marker
// up to the next id marker or end of document; block separators are not
// content. An id whose slot is still empty is skipped; absence of a
// translation is a valid "not yet done" state, not an error.
func ParseDocument(r io.Reader) ([]Translation, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		out       []Translation
		currentID string
		inSlot    bool
		lines     []string
	)

	flush := func() {
		if currentID != "" && len(lines) > 0 {
			out = append(out, Translation{
				ID:   currentID,
				Text: strings.TrimSpace(strings.Join(lines, "\n")),
			})
		}
		currentID = ""
		inSlot = false
		lines = nil
	}

	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, idMarker):
			flush()
			currentID = strings.TrimSpace(strings.TrimPrefix(trimmed, idMarker))
		case trimmed == slotMarker && currentID != "":
			inSlot = true
		case inSlot && trimmed != "" && trimmed != separator:
			lines = append(lines, trimmed)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan batch document: %w", err)
	}
	flush()
	return out, nil
}

// DocumentIDs returns every gap id declared in a batch document, filled
// or not, in document order.
func DocumentIDs(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ids []string
	for sc.Scan() {
		trimmed := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(trimmed, idMarker) {
			ids = append(ids, strings.TrimSpace(strings.TrimPrefix(trimmed, idMarker)))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan batch document: %w", err)
	}
	return ids, nil
}

// ParseDir parses every batch document in dir, in name order. Later
// documents win when the same id appears twice. The returned map may be
// empty when no slot has been filled yet.
func ParseDir(dir string) (map[string]string, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}

	found := make(map[string]string)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open batch document %s: %w", path, err)
		}
		translations, perr := ParseDocument(f)
		f.Close()
		if perr != nil {
			return nil, fmt.Errorf("%s: %w", path, perr)
		}
		for _, tr := range translations {
			found[tr.ID] = tr.Text
		}
	}
	return found, nil
}
