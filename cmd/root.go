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
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.3.0"

var (
	cfgFile string
	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ared",
	Short: "Arabic-English parallel text editor backend",
	Long: `ared keeps an Arabic-English parallel dataset consistent across
concurrent human editing sessions and bulk machine translation.

It serves a delta-sync API for live editors, detects untranslated
gaps, packs them into reviewable markdown batches, fills them through
external translation services, and merges the results back without
ever overwriting newer human edits.

Use "ared serve --help" for the editor API, "ared batch --help" for
the offline translation pipeline.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default .ared.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Root of the dataset directory tree")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".ared")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	viper.SetEnvPrefix("ARED")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("loaded config", "file", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		// An explicitly named config file must exist.
		fmt.Fprintf(os.Stderr, "failed to read config %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
	if v := viper.GetString("data_dir"); v != "" {
		dataDir = v
	}
}

// Paths inside the data directory. Every command goes through these so
// the on-disk layout stays in one place.

func triviewPath() string { return filepath.Join(dataDir, "triview.json") }
func syncDir() string     { return filepath.Join(dataDir, "sync") }
func presencePath() string {
	return filepath.Join(dataDir, "sync", "presence.json")
}
func batchDir() string  { return filepath.Join(dataDir, "batches") }
func gapsPath() string  { return filepath.Join(dataDir, "batches", "gaps.jsonl") }
func backupDir() string { return filepath.Join(dataDir, "backups") }
func dbPath() string    { return filepath.Join(dataDir, "ared.db") }
