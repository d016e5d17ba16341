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
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"slippymap/diskcache"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the disk tile cache",
}

var cacheSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Print the total size of the disk tile cache",
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		store := diskcache.NewStore(diskConfig())
		fmt.Printf("%s\t%s\n", store.Path(), humanize.Bytes(uint64(store.TotalSize())))
	},
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Run an eviction sweep against the configured budget",
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		store := diskcache.NewStore(diskConfig())
		store.EvictIfNeeded()
		fmt.Printf("%s\t%s\n", store.Path(), humanize.Bytes(uint64(store.TotalSize())))
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached tile",
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		store := diskcache.NewStore(diskConfig())
		store.Clear()
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheSizeCmd)
	cacheCmd.AddCommand(cacheEvictCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
