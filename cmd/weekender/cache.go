// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lelandjfs/weekenders-app/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the response cache",
	Long: `Cache manages the local SQLite store of raw source responses. Entries
expire after the configured TTL (default 72h); purge removes expired
entries, clear removes everything.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(loadConfig().Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		total, fresh, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d entries (%d fresh, %d expired)\n", total, fresh, total-fresh)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(loadConfig().Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Purge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("purged %d expired entries\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cache entries, all of them or one city's",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(loadConfig().Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		city, _ := cmd.Flags().GetString("city")
		n, err := store.Clear(cmd.Context(), city)
		if err != nil {
			return err
		}
		if city != "" {
			fmt.Printf("cleared %d entries for %s\n", n, city)
		} else {
			fmt.Printf("cleared %d entries\n", n)
		}
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().String("city", "", "only clear entries for this city")
	cacheCmd.AddCommand(cacheStatsCmd, cachePurgeCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
