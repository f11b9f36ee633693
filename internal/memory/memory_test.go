package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "ared.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetCached_Miss(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, hit, err := s.GetCached(ctx, "نص غير محفوظ")
	if err != nil {
		t.Fatalf("GetCached: %v", err)
	}
	if hit {
		t.Error("expected miss on empty store")
	}
}

func TestSaveAndGetCached(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "السلام عليكم", "Peace be upon you.", "ollama"); err != nil {
		t.Fatalf("SaveToMemory: %v", err)
	}

	text, hit, err := s.GetCached(ctx, "السلام عليكم")
	if err != nil {
		t.Fatalf("GetCached: %v", err)
	}
	if !hit || text != "Peace be upon you." {
		t.Errorf("expected hit, got hit=%v text=%q", hit, text)
	}
}

func TestGetCached_NormalizesWhitespace(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "  السلام عليكم  ", "Peace.", "ollama"); err != nil {
		t.Fatal(err)
	}
	_, hit, err := s.GetCached(ctx, "السلام عليكم")
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("trimmed lookup should hit the saved row")
	}
}

func TestGetCached_BumpsUsage(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "نص", "text", "ollama"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := s.GetCached(ctx, "نص"); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.ListMemory(ctx)
	if err != nil {
		t.Fatalf("ListMemory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].UsageCount != 4 {
		t.Errorf("expected usage count 4, got %d", entries[0].UsageCount)
	}
}

func TestSaveToMemory_ReplacesSameSource(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "نص", "first", "ollama"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveToMemory(ctx, "نص", "second", "openrouter"); err != nil {
		t.Fatal(err)
	}

	text, hit, err := s.GetCached(ctx, "نص")
	if err != nil {
		t.Fatal(err)
	}
	if !hit || text != "second" {
		t.Errorf("expected replaced translation, got hit=%v text=%q", hit, text)
	}

	entries, err := s.ListMemory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected upsert to keep one row, got %d", len(entries))
	}
}

func TestInvalidateMemory_TurnsHitIntoMiss(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "نص", "text", "ollama"); err != nil {
		t.Fatal(err)
	}
	entries, err := s.ListMemory(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListMemory: %v (%d entries)", err, len(entries))
	}

	if err := s.InvalidateMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("InvalidateMemory: %v", err)
	}

	_, hit, err := s.GetCached(ctx, "نص")
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("invalidated entry must be a miss")
	}

	// The row itself survives for history.
	entries, err = s.ListMemory(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("invalidated row dropped: %v (%d entries)", err, len(entries))
	}
	if !entries[0].Invalidated {
		t.Error("entry not marked invalidated")
	}
}

func TestDeleteAndClearMemory(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, src := range []string{"نص أول", "نص ثان", "نص ثالث"} {
		if err := s.SaveToMemory(ctx, src, "text", "ollama"); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.ListMemory(ctx)
	if err != nil || len(entries) != 3 {
		t.Fatalf("ListMemory: %v (%d entries)", err, len(entries))
	}

	if err := s.DeleteMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteMemory: %v", err)
	}

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows cleared, got %d", n)
	}
}

func TestMemoryStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "نص أول", "one", "ollama"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveToMemory(ctx, "نص ثان", "two", "ollama"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.GetCached(ctx, "نص أول"); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.ListMemory(ctx)
	for _, e := range entries {
		if e.EnText == "two" {
			if err := s.InvalidateMemory(ctx, e.ID); err != nil {
				t.Fatal(err)
			}
		}
	}

	stats, err := s.MemoryStats(ctx)
	if err != nil {
		t.Fatalf("MemoryStats: %v", err)
	}
	if stats.TotalEntries != 2 || stats.ActiveEntries != 1 || stats.InvalidEntries != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("expected total usage 3, got %d", stats.TotalUsage)
	}
}

func TestGlossary(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, term := range []string{"Tawhid", "Sunnah", "Aqidah"} {
		if err := s.AddTerm(ctx, term); err != nil {
			t.Fatalf("AddTerm(%s): %v", term, err)
		}
	}

	terms, err := s.ListTerms(ctx)
	if err != nil {
		t.Fatalf("ListTerms: %v", err)
	}
	want := []string{"Aqidah", "Sunnah", "Tawhid"}
	if len(terms) != len(want) {
		t.Fatalf("expected %d terms, got %v", len(want), terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("term %d: expected %q, got %q", i, want[i], terms[i])
		}
	}

	if err := s.RemoveTerm(ctx, "Sunnah"); err != nil {
		t.Fatalf("RemoveTerm: %v", err)
	}
	terms, _ = s.ListTerms(ctx)
	if len(terms) != 2 {
		t.Errorf("expected 2 terms after removal, got %v", terms)
	}
}

func TestAddTerm_RejectsEmpty(t *testing.T) {
	s := testStore(t)
	if err := s.AddTerm(context.Background(), "   "); err == nil {
		t.Error("expected error for blank term")
	}
}

func TestFillAudit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveFillRequest(ctx, "req-1", "S001-P001-S01", "نص"); err != nil {
		t.Fatalf("SaveFillRequest: %v", err)
	}
	if err := s.SaveFillResult(ctx, "req-1", "ollama", "text", 0.9, 120, ""); err != nil {
		t.Fatalf("SaveFillResult: %v", err)
	}
	// Retried results for the same request and provider upsert.
	if err := s.SaveFillResult(ctx, "req-1", "ollama", "text v2", 0.95, 90, ""); err != nil {
		t.Fatalf("SaveFillResult retry: %v", err)
	}
}

func TestRecordMerge(t *testing.T) {
	s := testStore(t)
	err := s.RecordMerge(context.Background(), "/backups/triview-20260826.json", 10, 8, 2, 8)
	if err != nil {
		t.Fatalf("RecordMerge: %v", err)
	}
}
