package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/huangsam/osshealth/core"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/iocache"
	"github.com/huangsam/osshealth/internal/metrics"
	"github.com/huangsam/osshealth/schema"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// deps holds the commit source, cache and metrics shared by every command.
var deps = &core.Deps{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "osshealth",
	Short:              "Estimate open-source project health from commit history.",
	Long:               `osshealth counts the regular committers of a repository over trailing day-windows to tell steady projects from fragile ones.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, config file and ENV variables if set.
func initConfig() {
	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contract.LogWarn("Cannot read .env file", err)
	}

	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("OSSHEALTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// GITHUB_TOKEN is honored when OSSHEALTH_TOKEN is unset
	_ = viper.BindEnv("token", "OSSHEALTH_TOKEN", "GITHUB_TOKEN")

	// Set defaults in Viper
	viper.SetDefault("source", schema.GitHubSource)
	viper.SetDefault("domain", schema.DefaultDomain)
	viper.SetDefault("rate-limit", contract.DefaultRateLimit)
	viper.SetDefault("request-timeout", contract.DefaultRequestTimeout.String())
	viper.SetDefault("retention-days", schema.DefaultRetentionDays)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("cache-backend", schema.FileBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("color", "yes")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("cron", contract.DefaultCron)
}

// setConfigFile points viper at --config or the default .osshealth.yaml locations.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".osshealth") // Name of config file (without extension)
	viper.SetConfigType("yaml")       // We'll use YAML format
	viper.AddConfigPath(".")          // Look in the current directory
	viper.AddConfigPath("$HOME")      // Look in the home directory
}

// loadConfig merges defaults, file, env and flags into input, then validates
// them into cfg.
func loadConfig(args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.RepoStr = ""
	if len(args) == 1 {
		input.RepoStr = args[0]
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	contract.Logger.SetLevel(cfg.LogLevel)
	return nil
}

// sharedSetup validates the config and builds the source, cache and metrics.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	if err := loadConfig(args); err != nil {
		return err
	}

	collector := metrics.NewCollector(prometheus.NewRegistry())

	// Initialize persistence layer with validated config
	if err := iocache.InitCaching(iocache.Options{
		Backend:   cfg.CacheBackend,
		ConnStr:   cfg.CacheDBConnect,
		Root:      cfg.CacheRoot,
		RemoteURL: cfg.RemoteCacheURL,
		Logger:    contract.Logger,
		Metrics:   collector,
	}); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	source, err := core.NewSource(cfg)
	if err != nil {
		return err
	}

	deps.Source = source
	deps.Cache = iocache.Manager.GetHistoryCache()
	deps.Metrics = collector
	deps.Logger = contract.Logger
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// runExecutor runs fn and dumps the metrics textfile when one is configured.
func runExecutor(fn core.ExecutorFunc) error {
	err := fn(rootCtx, cfg, deps)
	if werr := deps.Metrics.WriteToTextfile(cfg.MetricsFile); werr != nil {
		contract.LogWarn("Cannot write metrics textfile", werr)
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
