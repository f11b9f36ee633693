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

	"github.com/spf13/cobra"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/memory"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the preserve-term glossary",
	Long: `Add, list, and remove terms that must pass through translation
untouched. Glossary terms are folded into the style guide of every
batch document and into the prompts sent to translation services, so
transliterated Islamic vocabulary like "Tawhid" stays transliterated
instead of being paraphrased.`,
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all glossary terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := memory.New(dbPath())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		terms, err := db.ListTerms(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}

		if len(terms) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}
		for _, t := range terms {
			fmt.Println(t)
		}
		return nil
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <term>",
	Short: "Add a term to preserve in translations",
	Long: `Add a term that translation services must carry through verbatim.

Example:
  ared glossary add "Sunnah"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := memory.New(dbPath())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.AddTerm(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to add term: %w", err)
		}
		fmt.Printf("Added term: %q\n", args[0])
		return nil
	},
}

var glossaryRemoveCmd = &cobra.Command{
	Use:   "remove <term>",
	Short: "Remove a glossary term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := memory.New(dbPath())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.RemoveTerm(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to remove term: %w", err)
		}
		fmt.Printf("Removed term: %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryRemoveCmd)
}
