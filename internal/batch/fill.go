package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// FillSlot inserts text into the empty translation slot for id within a
// batch document, returning the updated document. It reports false when
// the id is absent or its slot already has content: an existing
// translation, human or machine, is never replaced here.
func FillSlot(doc []byte, id, text string) ([]byte, bool) {
	var (
		out      bytes.Buffer
		inBlock  bool
		inSlot   bool
		filled   bool
		occupied bool
	)

	sc := bufio.NewScanner(bytes.NewReader(doc))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, idMarker):
			inBlock = strings.TrimSpace(strings.TrimPrefix(trimmed, idMarker)) == id
			inSlot = false
		case inBlock && trimmed == slotMarker:
			inSlot = true
		case inBlock && inSlot && trimmed != "" && trimmed != separator:
			occupied = true
		case inBlock && inSlot && trimmed == separator && !filled && !occupied:
			out.WriteString(text + "\n")
			filled = true
		}
		out.WriteString(line + "\n")
	}

	// Slot ran to end of document without a closing separator.
	if inBlock && inSlot && !filled && !occupied {
		fmt.Fprintln(&out, text)
		filled = true
	}

	if !filled || occupied {
		return doc, false
	}
	return out.Bytes(), true
}
