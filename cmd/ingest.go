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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/segment"
)

var (
	ingestInputFile string
	ingestSection   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest Arabic source text into the dataset",
	Long: `Split an Arabic source file into paragraph and sentence segments
and append them to the dataset with empty English targets.

Segment IDs encode the section, paragraph, and sentence position
(e.g. S001-P004-S02) and stay stable across later edits.

Example:
  ared ingest -i manuscript/chapter1.txt --section S001`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(ingestInputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		store, err := segment.Open(triviewPath())
		if err != nil {
			return fmt.Errorf("failed to open dataset: %w", err)
		}

		fileRef := filepath.Base(ingestInputFile)
		segs := segment.BuildSegments(ingestSection, string(raw), []string{fileRef})
		if len(segs) == 0 {
			return fmt.Errorf("no segments found in %s", ingestInputFile)
		}

		if err := store.Append(segs...); err != nil {
			return fmt.Errorf("failed to append segments: %w", err)
		}

		fmt.Printf("Ingested %d segments into section %s (%d total).\n",
			len(segs), ingestSection, store.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestInputFile, "input", "i", "", "Arabic source text file (required)")
	ingestCmd.Flags().StringVar(&ingestSection, "section", "S001", "Section the text belongs to")
	ingestCmd.MarkFlagRequired("input")
}
