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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/gaps"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/segment"
)

var gapsWrite bool

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Scan the dataset for untranslated segments",
	Long: `Scan every segment for gaps: Arabic source with a missing or
effectively empty English target. With --write the manifest used by
"ared batch build" is regenerated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := segment.Open(triviewPath())
		if err != nil {
			return fmt.Errorf("failed to open dataset: %w", err)
		}

		records := gaps.Detect(store.Snapshot())
		if len(records) == 0 {
			fmt.Println("No gaps found.")
			if gapsWrite {
				return gaps.WriteManifest(gapsPath(), records)
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPARA\tSEG\tSOURCE")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
				r.ID, r.ParaIndex, r.SegIndex, truncateRunes(r.Src, 60))
		}
		w.Flush()
		fmt.Printf("\n%d gaps out of %d segments.\n", len(records), store.Len())

		if gapsWrite {
			if err := gaps.WriteManifest(gapsPath(), records); err != nil {
				return fmt.Errorf("failed to write gap manifest: %w", err)
			}
			fmt.Printf("Manifest written to %s\n", gapsPath())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gapsCmd)

	gapsCmd.Flags().BoolVar(&gapsWrite, "write", false, "Write the gap manifest for batch building")
}
