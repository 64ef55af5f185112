package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/primap-community/climate-categories/internal/catcache"
	"github.com/primap-community/climate-categories/pkg/categories"
)

var cachePath string

// cacheCmd groups the definition cache subcommands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the parsed definition cache",
	Long: `Parsed categorization definitions can be cached in a local SQLite
database so later runs skip the YAML parse. The cache invalidates itself
when a definition file changes.`,
}

func defaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "climatecat", "definitions.db")
	}
	return "definitions.db"
}

// cacheBuildCmd parses all available definitions into the cache
var cacheBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Parse all available definitions into the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
		cache, err := catcache.Open(cachePath)
		if err != nil {
			return err
		}
		defer cache.Close()

		built, hits := 0, 0
		for _, name := range categories.Names() {
			raw, err := categories.RawDefinition(name)
			if err != nil {
				logger.Warn("Skipping unreadable definition", zap.String("name", name), zap.Error(err))
				continue
			}
			_, hit, err := cache.LoadOrParse(name, raw)
			if err != nil {
				return fmt.Errorf("failed to cache %q: %w", name, err)
			}
			if hit {
				hits++
			} else {
				built++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache at %s: %d definitions parsed, %d already current.\n",
			cachePath, built, hits)
		return nil
	},
}

// cacheClearCmd drops all cached definitions
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cachePath); os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
			return nil
		}
		cache, err := catcache.Open(cachePath)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache at %s.\n", cachePath)
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cachePath, "cache", defaultCachePath(), "Path of the cache database")
	cacheCmd.AddCommand(cacheBuildCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
