/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"slippymap/params"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "slippymap",
	Short: "Slippy-map tile cache utilities",
	Long: `Utilities around the slippy-map engine's disk tile cache:
prefetch tiles for offline panning, inspect the cache size, clear it.

Settings layer flags over SLIPPYMAP_* environment variables.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var optVerbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&optVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().String("server", params.DefaultTileServer, "Tile server URL template ({z}/{x}/{y} placeholders)")
	rootCmd.PersistentFlags().String("cache-dir", params.CacheDirRoot, "Base directory for the disk tile cache")
	rootCmd.PersistentFlags().Int64("cache-budget", params.DefaultDiskCacheConfig().MaxCacheSize, "Disk cache eviction budget, bytes")

	viper.SetEnvPrefix("SLIPPYMAP")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("cache_budget", rootCmd.PersistentFlags().Lookup("cache-budget"))
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	if optVerbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}
}

func diskConfig() *params.DiskCacheConfig {
	config := params.DefaultDiskCacheConfig()
	if dir := viper.GetString("cache_dir"); dir != "" {
		config.RootDir = dir
	}
	if budget := viper.GetInt64("cache_budget"); budget > 0 {
		config.MaxCacheSize = budget
	}
	return config
}
