// Package fill is the machine half of the batch pipeline: it walks the
// batch documents, translates every still-empty slot through the
// configured providers, and writes the results back into the documents.
// The dataset itself is never touched here; only the merge step moves
// translations into the store, under its conflict guard.
package fill

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/arbiter"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/batch"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/fsx"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/gaps"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/memory"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/orchestrator"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/placeholder"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/refiner"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/translator"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/validator"
)

// Filler translates empty batch slots. Arbiter, refiner, validator, and
// memory are all optional; a nil field skips that stage.
type Filler struct {
	Orchestrator  *orchestrator.Orchestrator
	Arbiter       arbiter.Arbiter
	Refiner       refiner.Refiner
	Validator     *validator.Validator
	Memory        *memory.Store
	Config        translator.ServiceConfig
	PreserveTerms []string
}

// Summary reports one fill run.
type Summary struct {
	Filled     int
	FromMemory int
	Failed     int
	AlreadySet int
}

// Run fills every empty slot in the batch documents under dir, looking
// up each gap's source and context in the manifest records. Documents
// are rewritten atomically after each successful fill so an aborted run
// loses at most the slot in flight.
func (f *Filler) Run(ctx context.Context, dir string, records []gaps.Record) (*Summary, error) {
	index := make(map[string]gaps.Record, len(records))
	for _, rec := range records {
		index[rec.ID] = rec
	}

	paths, err := batch.List(dir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, path := range paths {
		doc, err := os.ReadFile(path)
		if err != nil {
			return summary, fmt.Errorf("failed to read batch document %s: %w", path, err)
		}

		ids, err := batch.DocumentIDs(bytes.NewReader(doc))
		if err != nil {
			return summary, fmt.Errorf("%s: %w", path, err)
		}
		filled, err := batch.ParseDocument(bytes.NewReader(doc))
		if err != nil {
			return summary, fmt.Errorf("%s: %w", path, err)
		}
		done := make(map[string]bool, len(filled))
		for _, tr := range filled {
			done[tr.ID] = true
		}

		changed := false
		for _, id := range ids {
			if done[id] {
				summary.AlreadySet++
				continue
			}
			rec, ok := index[id]
			if !ok {
				slog.Warn("batch slot has no matching gap record", "id", id)
				continue
			}

			text, fromMemory, err := f.translate(ctx, rec)
			if err != nil {
				slog.Warn("failed to translate gap", "id", id, "error", err)
				summary.Failed++
				continue
			}

			updated, ok := batch.FillSlot(doc, id, text)
			if !ok {
				summary.AlreadySet++
				continue
			}
			doc = updated
			changed = true
			summary.Filled++
			if fromMemory {
				summary.FromMemory++
			}
		}

		if changed {
			if err := fsx.WriteFileAtomic(path, doc, 0644); err != nil {
				return summary, fmt.Errorf("failed to rewrite batch document %s: %w", path, err)
			}
		}
	}
	return summary, nil
}

// translate produces the English text for one gap: memory first, then
// provider fan-out with optional arbiter selection, refinement, and
// language validation.
func (f *Filler) translate(ctx context.Context, rec gaps.Record) (string, bool, error) {
	if f.Memory != nil {
		if cached, hit, err := f.Memory.GetCached(ctx, rec.Src); err == nil && hit {
			return cached, true, nil
		}
	}

	protected, markers := placeholder.Protect(rec.Src)
	req := translator.Request{
		Text:          protected,
		ContextPrev:   rec.ContextPrev,
		ContextNext:   rec.ContextNext,
		PreserveTerms: f.PreserveTerms,
		SourceLang:    "ar",
		TargetLang:    "en",
	}

	outcome := f.Orchestrator.Execute(ctx, f.Config, req)
	if outcome.Succeeded == 0 {
		return "", false, fmt.Errorf("all providers failed: %v", outcome.Errors)
	}

	text := outcome.Results[0].TranslatedText
	provider := outcome.Results[0].ServiceName
	if f.Arbiter != nil && len(outcome.Results) > 1 {
		verdict, err := f.Arbiter.Evaluate(ctx, protected, outcome.Results)
		if err != nil {
			slog.Warn("arbiter failed, using first candidate", "error", err)
		} else {
			text = verdict.FinalText
			provider = verdict.SelectedService
		}
	}

	if f.Refiner != nil {
		refined, err := f.Refiner.Refine(ctx, protected, text, f.PreserveTerms)
		if err != nil {
			slog.Warn("refiner failed, using draft", "error", err)
		} else {
			text = refined
		}
	}

	text = placeholder.Restore(text, markers)

	if f.Validator != nil {
		if ok, err := f.Validator.IsValid(text, "en"); !ok {
			return "", false, fmt.Errorf("rejected translation: %v", err)
		}
	}

	f.audit(ctx, rec, req, outcome, text, provider)
	return text, false, nil
}

// audit records the provider calls and remembers the final text. Audit
// failures are logged, never fatal to the fill.
func (f *Filler) audit(ctx context.Context, rec gaps.Record, req translator.Request, outcome *orchestrator.Outcome, finalText, provider string) {
	if f.Memory == nil {
		return
	}
	requestID := uuid.New().String()
	if err := f.Memory.SaveFillRequest(ctx, requestID, rec.ID, rec.Src); err != nil {
		slog.Warn("failed to record fill request", "error", err)
		return
	}
	for _, r := range outcome.Results {
		if err := f.Memory.SaveFillResult(ctx, requestID, r.ServiceName, r.TranslatedText,
			r.Confidence, int(r.Latency.Milliseconds()), r.Error); err != nil {
			slog.Warn("failed to record fill result", "error", err)
		}
	}
	if err := f.Memory.SaveToMemory(ctx, rec.Src, finalText, provider); err != nil {
		slog.Warn("failed to save translation memory", "error", err)
	}
}
