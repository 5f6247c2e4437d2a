package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logwhy/logwhy/internal/config"
)

var cacheOlderThan int

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the analysis response cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry count and location",
		RunE:  runCacheStats,
	}

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached analyses",
		Long: `Remove cached analyses.

Without flags every entry is removed. With --older-than only entries
created more than the given number of days ago are removed.

Examples:
  logwhy cache clean
  logwhy cache clean --older-than 30`,
		RunE: runCacheClean,
	}
	cleanCmd.Flags().IntVar(&cacheOlderThan, "older-than", 0, "only remove entries older than N days")

	cmd.AddCommand(statsCmd)
	cmd.AddCommand(cleanCmd)
	return cmd
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	cache, path, err := openCacheAt(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	count, err := cache.Count(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Cache location: %s\n", path)
	fmt.Printf("Cached analyses: %d\n", count)
	return nil
}

func runCacheClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	cache, _, err := openCacheAt(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	var removed int64
	if cacheOlderThan > 0 {
		removed, err = cache.ClearOlderThan(cmd.Context(), cacheOlderThan)
	} else {
		removed, err = cache.Clear(cmd.Context())
	}
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d cached analyses\n", removed)
	return nil
}
