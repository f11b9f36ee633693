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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/changelog"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/presence"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/segment"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editor sync API",
	Long: `Start the HTTP API that live editor sessions poll: delta-sync
pulls, presence heartbeats, row saves, and batch previews.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := segment.Open(triviewPath())
		if err != nil {
			return fmt.Errorf("failed to open dataset: %w", err)
		}
		log := changelog.New(syncDir())
		registry := presence.NewRegistry(presencePath())

		srv := server.New(store, log, registry, batchDir())
		return srv.Run(serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}
