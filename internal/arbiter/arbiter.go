// Package arbiter selects the best candidate among parallel provider
// results for one gap, using an LLM judge.
package arbiter

import (
	"context"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/translator"
)

// Verdict is the arbiter's decision for one gap.
type Verdict struct {
	SelectedService string
	FinalText       string
	IsComposite     bool
	Reasoning       string
}

// Arbiter picks or composes the best translation from the candidates.
type Arbiter interface {
	Evaluate(ctx context.Context, source string, results []translator.Result) (*Verdict, error)
}
