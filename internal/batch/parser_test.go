package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/gaps"
)

func TestParseDocument_EmptySlotsSkipped(t *testing.T) {
	records := []gaps.Record{
		{ID: "g1", Src: "نص أول"},
		{ID: "g2", Src: "نص ثان"},
	}
	doc := Render(1, records, DefaultStyle(nil))

	translations, err := ParseDocument(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(translations) != 0 {
		t.Errorf("freshly rendered document has no filled slots, got %v", translations)
	}
}

func TestParseDocument_RoundTripWithFilledSlot(t *testing.T) {
	records := []gaps.Record{
		{ID: "g1", Src: "نص أول", ContextNext: "نص ثان"},
		{ID: "g2", Src: "نص ثان", ContextPrev: "نص أول"},
	}
	doc := Render(1, records, DefaultStyle(nil))

	doc, ok := FillSlot(doc, "g1", "The first text.")
	if !ok {
		t.Fatal("FillSlot failed")
	}

	translations, err := ParseDocument(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(translations) != 1 {
		t.Fatalf("expected 1 translation, got %d", len(translations))
	}
	if translations[0].ID != "g1" || translations[0].Text != "The first text." {
		t.Errorf("unexpected translation %+v", translations[0])
	}
}

func TestParseDocument_MultilineSlot(t *testing.T) {
	doc := `### ID: g1

Source (ar): نص

Translation:
First line of the translation.
Second line continues it.

---
`
	translations, err := ParseDocument(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(translations) != 1 {
		t.Fatalf("expected 1 translation, got %d", len(translations))
	}
	want := "First line of the translation.\nSecond line continues it."
	if translations[0].Text != want {
		t.Errorf("expected %q, got %q", want, translations[0].Text)
	}
}

func TestParseDocument_SlotAtEOF(t *testing.T) {
	doc := "### ID: g9\n\nSource (ar): نص\n\nTranslation:\nTrailing text with no separator"
	translations, err := ParseDocument(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(translations) != 1 || translations[0].Text != "Trailing text with no separator" {
		t.Errorf("unexpected result %+v", translations)
	}
}

func TestDocumentIDs_AllDeclaredInOrder(t *testing.T) {
	records := []gaps.Record{
		{ID: "g1", Src: "أ"},
		{ID: "g2", Src: "ب"},
		{ID: "g3", Src: "ج"},
	}
	doc := Render(1, records, DefaultStyle(nil))
	doc, _ = FillSlot(doc, "g2", "filled")

	ids, err := DocumentIDs(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("DocumentIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids regardless of fill state, got %d", len(ids))
	}
	for i, want := range []string{"g1", "g2", "g3"} {
		if ids[i] != want {
			t.Errorf("id %d: expected %q, got %q", i, want, ids[i])
		}
	}
}

func TestParseDir_LaterDocumentsWin(t *testing.T) {
	dir := t.TempDir()

	doc1 := "### ID: shared\n\nTranslation:\nfrom first document\n\n---\n"
	doc2 := "### ID: shared\n\nTranslation:\nfrom second document\n\n---\n"
	os.WriteFile(filepath.Join(dir, "batch_001.md"), []byte(doc1), 0644)
	os.WriteFile(filepath.Join(dir, "batch_002.md"), []byte(doc2), 0644)

	found, err := ParseDir(dir)
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	if found["shared"] != "from second document" {
		t.Errorf("expected later document to win, got %q", found["shared"])
	}
}

func TestParseDir_EmptyDirectory(t *testing.T) {
	found, err := ParseDir(t.TempDir())
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected empty map, got %v", found)
	}
}
