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
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/arbiter"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/batch"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/changelog"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/fill"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/fsx"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/gaps"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/memory"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/orchestrator"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/refiner"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/segment"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/translator"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/validator"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Build, fill, preview, and merge translation batches",
	Long: `The offline half of the pipeline. "build" packs untranslated gaps
into markdown batch documents, "translate" fills the empty slots
through external services, "preview" renders a document as HTML, and
"merge" folds completed translations back into the dataset.`,
}

var batchBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Pack current gaps into batch documents",
	Long: `Scan the dataset for gaps and write them as markdown batch
documents plus a machine-readable manifest. Existing batch documents
are replaced, so any unmerged fills in them are discarded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := segment.Open(triviewPath())
		if err != nil {
			return fmt.Errorf("failed to open dataset: %w", err)
		}

		records := gaps.Detect(store.Snapshot())
		if err := gaps.WriteManifest(gapsPath(), records); err != nil {
			return fmt.Errorf("failed to write gap manifest: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No gaps to batch.")
			return nil
		}

		style := loadStyle(cmd.Context())
		paths, err := batch.WriteAll(batchDir(), records, style)
		if err != nil {
			return fmt.Errorf("failed to write batch documents: %w", err)
		}

		fmt.Printf("Wrote %d batch documents covering %d gaps:\n", len(paths), len(records))
		for _, p := range paths {
			fmt.Printf("  %s\n", filepath.Base(p))
		}
		return nil
	},
}

var (
	translateServices   []string
	translateOllamaURL  string
	translateOllamaList []string
	openrouterKey       string
	openrouterModels    []string
	useArbiter          bool
	arbiterModel        string
	arbiterURL          string
	useRefine           bool
	refinerModel        string
	refinerURL          string
	translateTimeout    time.Duration
	translateRetries    int
	translateNoCache    bool
)

var batchTranslateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Fill empty batch slots via translation services",
	Long: `Translate every still-empty slot in the batch documents and write
the results into the documents for human review. The dataset itself
is untouched until "ared batch merge".

Example:
  ared batch translate --services ollama,google --arbiter --refine`,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := gaps.ReadManifest(gapsPath())
		if err != nil {
			return fmt.Errorf("failed to read gap manifest: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("no gap manifest found; run \"ared batch build\" first")
		}

		services, err := buildServices(translateServices, translateOllamaURL,
			openrouterKey, translateOllamaList, openrouterModels)
		if err != nil {
			return err
		}

		filler := &fill.Filler{
			Orchestrator: orchestrator.New(services, orchestrator.Config{
				Timeout:     translateTimeout,
				MaxAttempts: translateRetries,
			}),
			Validator:     validator.New(),
			Config:        translator.ServiceConfig{Timeout: translateTimeout},
			PreserveTerms: loadStyle(cmd.Context()).PreserveTerms,
		}
		if useArbiter {
			filler.Arbiter = arbiter.NewOllamaArbiter(arbiterModel, arbiterURL)
		}
		if useRefine {
			filler.Refiner = refiner.NewOllamaRefiner(refinerModel, refinerURL)
		}
		if !translateNoCache {
			db, err := memory.New(dbPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Translation memory unavailable: %v\n", err)
			} else {
				defer db.Close()
				filler.Memory = db
			}
		}

		summary, err := filler.Run(cmd.Context(), batchDir(), records)
		if err != nil {
			return err
		}

		fmt.Printf("Filled %d slots (%d from memory), %d failed, %d already filled.\n",
			summary.Filled, summary.FromMemory, summary.Failed, summary.AlreadySet)
		if summary.Failed > 0 {
			return fmt.Errorf("%d slots could not be translated", summary.Failed)
		}
		return nil
	},
}

var previewOutput string

var batchPreviewCmd = &cobra.Command{
	Use:   "preview <batch-file>",
	Short: "Render a batch document as HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		path := name
		if filepath.Base(name) == name {
			path = filepath.Join(batchDir(), name)
		}
		doc, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read batch document: %w", err)
		}

		html := batch.RenderHTML(doc)
		if previewOutput == "" || previewOutput == "-" {
			fmt.Print(html)
			return nil
		}
		if err := fsx.WriteFileAtomic(previewOutput, []byte(html), 0644); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}
		fmt.Printf("Preview written to %s\n", previewOutput)
		return nil
	},
}

var batchMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge completed batch translations into the dataset",
	Long: `Fold filled batch slots back into the dataset. The dataset is
backed up first, and any row a human has touched since the batch was
built is skipped rather than overwritten. Merged rows get change
records so live editor sessions pick them up on their next pull.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := segment.Open(triviewPath())
		if err != nil {
			return fmt.Errorf("failed to open dataset: %w", err)
		}
		log := changelog.New(syncDir())

		merger := batch.NewMerger(store, log, batchDir(), backupDir())
		report, err := merger.Run()
		if err != nil {
			return fmt.Errorf("merge failed: %w", err)
		}

		fmt.Printf("Backup:            %s\n", report.BackupPath)
		fmt.Printf("Translations read: %d\n", report.TranslationsFound)
		fmt.Printf("Merged:            %d\n", report.MergedCount)
		fmt.Printf("Skipped conflicts: %d\n", report.SkippedConflicts)
		fmt.Printf("Skipped unknown:   %d\n", report.SkippedUnknown)
		fmt.Printf("Change records:    %d\n", report.RecordsAppended)

		// Best-effort audit row; the merge itself already succeeded.
		if db, err := memory.New(dbPath()); err == nil {
			defer db.Close()
			if err := db.RecordMerge(context.Background(), report.BackupPath,
				report.TranslationsFound, report.MergedCount,
				report.SkippedConflicts, report.RecordsAppended); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to record merge audit: %v\n", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.AddCommand(batchBuildCmd)
	batchCmd.AddCommand(batchTranslateCmd)
	batchCmd.AddCommand(batchPreviewCmd)
	batchCmd.AddCommand(batchMergeCmd)

	batchTranslateCmd.Flags().StringSliceVar(&translateServices, "services", []string{"ollama"}, "Translation services to use (comma-separated)")
	batchTranslateCmd.Flags().StringVar(&translateOllamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	batchTranslateCmd.Flags().StringSliceVar(&translateOllamaList, "ollama-models", nil, "Ollama models to rotate (default list used if empty)")
	batchTranslateCmd.Flags().StringVar(&openrouterKey, "openrouter-key", "", "OpenRouter API key")
	batchTranslateCmd.Flags().StringSliceVar(&openrouterModels, "openrouter-models", nil, "OpenRouter models to rotate (default list used if empty)")
	batchTranslateCmd.Flags().BoolVar(&useArbiter, "arbiter", false, "Use LLM arbiter to select best translation")
	batchTranslateCmd.Flags().StringVar(&arbiterModel, "arbiter-model", "llama3.2", "Arbiter model name")
	batchTranslateCmd.Flags().StringVar(&arbiterURL, "arbiter-url", "http://localhost:11434", "Arbiter Ollama URL")
	batchTranslateCmd.Flags().BoolVar(&useRefine, "refine", false, "Enable second-pass literary refinement")
	batchTranslateCmd.Flags().StringVar(&refinerModel, "refiner-model", "llama3.2", "Refiner model name")
	batchTranslateCmd.Flags().StringVar(&refinerURL, "refiner-url", "http://localhost:11434", "Refiner Ollama URL")
	batchTranslateCmd.Flags().DurationVar(&translateTimeout, "timeout", 30*time.Second, "Per-attempt timeout")
	batchTranslateCmd.Flags().IntVar(&translateRetries, "max-retries", 3, "Total attempts per service including the first (1 = no retries)")
	batchTranslateCmd.Flags().BoolVar(&translateNoCache, "no-cache", false, "Disable translation memory cache")

	batchPreviewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Write HTML to file instead of stdout")
}
