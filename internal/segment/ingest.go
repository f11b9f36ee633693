package segment

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/chunker"
)

// BuildSegments splits raw Arabic source text into paragraph/sentence
// segments for a section. Ids are stable across runs for the same input:
// <section>-P<para>-S<seg>, with the paragraph forming the row. Source
// text is NFC-normalized so later memory lookups and equality checks
// behave.
func BuildSegments(section, text string, fileRefs []string) []Segment {
	var out []Segment

	for p, para := range chunker.Paragraphs(text) {
		rowID := fmt.Sprintf("%s-P%03d", section, p+1)
		for i, sentence := range chunker.Sentences(para) {
			seg := Segment{
				ID:        fmt.Sprintf("%s-S%02d", rowID, i+1),
				RowID:     rowID,
				Section:   section,
				ParaIndex: p + 1,
				SegIndex:  i + 1,
				Src:       norm.NFC.String(sentence),
				SrcLang:   "ar",
				TgtLang:   "en",
				Status:    StatusUnaligned,
				FileRefs:  fileRefs,
			}
			seg.RecomputeRatio()
			out = append(out, seg)
		}
	}
	return out
}
