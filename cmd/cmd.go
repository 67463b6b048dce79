// Package cmd defines the command-line interface for osshealth.
package cmd

import (
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("token", "", "GitHub API token (prefer the GITHUB_TOKEN env var)")
	rootCmd.PersistentFlags().String("source", string(schema.GitHubSource), "Commit source: github or git")
	rootCmd.PersistentFlags().String("clones-root", "", "Directory holding <owner>/<name> clones for the git source")
	rootCmd.PersistentFlags().String("github-base-url", "", "GitHub API base URL (for GitHub Enterprise)")
	rootCmd.PersistentFlags().Float64("rate-limit", contract.DefaultRateLimit, "Maximum GitHub API requests per second (0 = default)")
	rootCmd.PersistentFlags().String("request-timeout", contract.DefaultRequestTimeout.String(), "Timeout of a single GitHub API request")
	rootCmd.PersistentFlags().String("domain", schema.DefaultDomain, "Cache namespace and summary sub-directory")
	rootCmd.PersistentFlags().String("branch-candidates", "", "Comma-separated branches tried when no branch is given (default main,master)")
	rootCmd.PersistentFlags().Int("retention-days", schema.DefaultRetentionDays, "Days of history kept in the cache")
	rootCmd.PersistentFlags().String("windows", "", "Comma-separated day-windows to classify (default 360,180,90,60)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.FileBackend), "Cache backend: file or sqlite or mysql or postgresql or bolt or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string or file path for the cache backend")
	rootCmd.PersistentFlags().String("cache-root", "", "Snapshot directory for the file cache backend")
	rootCmd.PersistentFlags().String("remote-cache-url", "", "Base URL of a read-only remote snapshot cache")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write prometheus metrics to this textfile after each run")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of repoCmd to Viper
	repoCmd.Flags().String("branch", "", "Branch to analyze (default: first candidate with commits)")
	if err := viper.BindPFlags(repoCmd.Flags()); err != nil {
		contract.LogFatal("Error binding repo flags", err)
	}

	// run and schedule share the batch flags; they are bound to Viper in
	// batchSetup because a key can only follow one flag
	for _, c := range []*cobra.Command{runCmd, scheduleCmd} {
		c.Flags().String("projects", "", "Project list file (JSON mapping or YAML list)")
		c.Flags().String("summary-dir", ".", "Directory receiving <domain>/summary.csv")
	}
	scheduleCmd.Flags().String("cron", contract.DefaultCron, "Cron spec of the batch run")

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
