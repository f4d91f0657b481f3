package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/location-evaluator/internal/routecache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the route cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show route cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *routecache.SQLiteStore) error {
			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired route cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *routecache.SQLiteStore) error {
			n, err := store.Prune(ctx)
			if err != nil {
				return err
			}
			zap.L().Info("pruned route cache", zap.Int("deleted", n))
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every route cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *routecache.SQLiteStore) error {
			n, err := store.Clear(ctx)
			if err != nil {
				return err
			}
			zap.L().Info("cleared route cache", zap.Int("deleted", n))
			return nil
		})
	},
}

func withStore(ctx context.Context, fn func(context.Context, *routecache.SQLiteStore) error) error {
	store, err := routecache.NewSQLite(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return fn(ctx, store)
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
