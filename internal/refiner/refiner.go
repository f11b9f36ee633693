// Package refiner is the optional second pass of the batch fill step: a
// literary editor that polishes a draft English rendering against its
// Arabic source.
package refiner

import "context"

// Refiner reviews and improves a draft translation for literary quality.
type Refiner interface {
	Refine(ctx context.Context, sourceText, draftText string, preserveTerms []string) (string, error)
}
