package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads the configuration without opening the cache.
// clear and migrate must not hold the store open.
func cacheSetup(_ *cobra.Command, _ []string) error {
	return loadConfig(nil)
}

// cacheOpenSetup loads the configuration and opens the configured cache.
func cacheOpenSetup(cmd *cobra.Command, args []string) error {
	if err := cacheSetup(cmd, args); err != nil {
		return err
	}
	if err := iocache.InitCaching(iocache.Options{
		Backend: cfg.CacheBackend,
		ConnStr: cfg.CacheDBConnect,
		Root:    cfg.CacheRoot,
		Logger:  contract.Logger,
	}); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands skip source and metrics setup; they only need the
// cache settings.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the commit history cache",
	Long: `Manage the cached commit history snapshots.

Each repository history is stored as a Parquet snapshot keyed by domain and
repository name, so later runs only fetch the commits newer than the
snapshot.

Supported backends: file (default), SQLite, MySQL, PostgreSQL, bolt, or none

Subcommands:
  status  - Show cache statistics and connection info
  clear   - Remove all cached data
  migrate - Upgrade or roll back the SQL cache schema

Examples:
  # Check cache status
  osshealth cache status

  # Clear cache after a history rewrite
  osshealth cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached history snapshots",
	Long: `Delete all cached history snapshots from the configured backend.

Use this when:
- Repository history was rewritten (rebase, force push)
- The retention horizon was lowered
- The cache may be stale or corrupted

For file: Removes the snapshot directory
For SQLite/bolt: Deletes the database file
For MySQL/PostgreSQL: Drops the history tables

Examples:
  # Clear the file cache (default)
  osshealth cache clear

  # Clear MySQL cache (set connection string via env variable)
  OSSHEALTH_CACHE_BACKEND=mysql OSSHEALTH_CACHE_DB_CONNECT="..." osshealth cache clear`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, cfg.CacheDBConnect, cfg.CacheRoot); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the history cache.

Displays:
- Backend type and connection status
- Total number of cached snapshots
- Last and oldest snapshot timestamps
- Cache size

Examples:
  # Check cache status
  osshealth cache status`,
	PreRunE: cacheOpenSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetHistoryCache().Local().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}

// cacheMigrateCmd runs database migrations for the SQL cache backends.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run cache schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the SQL history cache.

By default, migrates to the latest version. Use --target-version for specific versions.
Only the sqlite, mysql and postgresql backends have a schema.

Examples:
  # Migrate to latest version (default)
  osshealth cache migrate --cache-backend sqlite

  # Rollback to initial state
  osshealth cache migrate --cache-backend sqlite --target-version 0`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateCache(cfg.CacheBackend, cfg.CacheDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println("Cache migrations applied successfully.")
	},
}
