/*
Copyright © 2025 mohammad2xs

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/batch"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/memory"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/translator"
)

// truncateRunes shortens s to at most max runes, marking the cut with an
// ellipsis. Counting runes keeps multi-byte Arabic text intact.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// buildServices constructs the list of translation services from CLI
// parameters. ollamaModels and openrouterModels may be nil to use the
// defaults.
func buildServices(serviceNames []string, ollamaBaseURL, openrouterAPIKey string, ollamaModels, openrouterModels []string) ([]translator.Service, error) {
	var list []translator.Service

	for _, name := range serviceNames {
		switch name {
		case "google":
			list = append(list, translator.NewGoogleService())
		case "ollama":
			list = append(list, translator.NewOllamaService(ollamaBaseURL, ollamaModels))
		case "openrouter":
			list = append(list, translator.NewOpenRouterService(openrouterAPIKey, "", openrouterModels))
		default:
			fmt.Fprintf(os.Stderr, "Unknown service: %s, skipping\n", name)
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid services configured")
	}
	return list, nil
}

// loadStyle builds the batch style guide, folding in glossary terms
// from the database when one is available. A missing or unreadable
// database just means the stock preserve list.
func loadStyle(ctx context.Context) batch.StyleGuide {
	db, err := memory.New(dbPath())
	if err != nil {
		return batch.DefaultStyle(nil)
	}
	defer db.Close()

	terms, err := db.ListTerms(ctx)
	if err != nil {
		return batch.DefaultStyle(nil)
	}
	return batch.DefaultStyle(terms)
}
