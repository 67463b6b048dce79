package contract

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/osshealth/schema"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Default values for configuration.
const (
	DefaultRateLimit      = 1.0 // requests per second
	DefaultRequestTimeout = 30 * time.Second
	DefaultCron           = "@daily"
	MaxWindowDays         = 3650
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	Repo   string
	Branch string
	Domain string

	Source         schema.SourceKind
	Token          string // Please use env var as this is plaintext
	ClonesRoot     string
	GitHubBaseURL  string
	RateLimit      float64
	RequestTimeout time.Duration

	BranchCandidates []string
	Retention        time.Duration
	Windows          []int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheRoot      string
	RemoteCacheURL string

	ProjectsFile string
	SummaryDir   string

	Output      schema.OutputMode
	OutputFile  string
	UseColors   bool
	Width       int // Terminal width override (0 = auto-detect)
	MetricsFile string
	LogLevel    logrus.Level
	CronSpec    string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Token            string  `mapstructure:"token"`
	Source           string  `mapstructure:"source"`
	ClonesRoot       string  `mapstructure:"clones-root"`
	GitHubBaseURL    string  `mapstructure:"github-base-url"`
	RateLimit        float64 `mapstructure:"rate-limit"`
	RequestTimeout   string  `mapstructure:"request-timeout"`
	Domain           string  `mapstructure:"domain"`
	BranchCandidates string  `mapstructure:"branch-candidates"`
	RetentionDays    int     `mapstructure:"retention-days"`
	Windows          string  `mapstructure:"windows"`
	CacheBackend     string  `mapstructure:"cache-backend"`
	CacheDBConnect   string  `mapstructure:"cache-db-connect"`
	CacheRoot        string  `mapstructure:"cache-root"`
	RemoteCacheURL   string  `mapstructure:"remote-cache-url"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Color            string  `mapstructure:"color"`
	Width            int     `mapstructure:"width"`
	MetricsFile      string  `mapstructure:"metrics-file"`
	LogLevel         string  `mapstructure:"log-level"`

	// --- Fields from repoCmd.Flags() ---
	Branch string `mapstructure:"branch"`

	// --- Fields from runCmd.Flags() and scheduleCmd.Flags() ---
	Projects   string `mapstructure:"projects"`
	SummaryDir string `mapstructure:"summary-dir"`
	Cron       string `mapstructure:"cron"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.BranchCandidates = slices.Clone(c.BranchCandidates)
	clone.Windows = slices.Clone(c.Windows)
	return &clone
}

// CloneWithRepo creates a copy of the Config targeting another repository.
func (c *Config) CloneWithRepo(repo string) *Config {
	clone := c.Clone()
	clone.Repo = repo
	clone.Branch = ""
	return clone
}

// CacheKey returns the cache address of the configured repository.
func (c *Config) CacheKey() schema.CacheKey {
	return schema.CacheKey{Domain: c.Domain, Name: c.Repo}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSourceConfig(cfg, input); err != nil {
		return err
	}
	if err := processWindows(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processRepo(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.FileBackend, schema.SQLiteBackend, schema.BoltBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the history cache configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := input.CacheBackend
	if backend == "" {
		backend = string(schema.FileBackend)
	}
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be file, sqlite, mysql, postgresql, bolt, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheRoot = input.CacheRoot
	if cfg.CacheRoot == "" {
		cfg.CacheRoot = GetCacheRoot()
	}

	cfg.RemoteCacheURL = strings.TrimRight(input.RemoteCacheURL, "/")
	if cfg.RemoteCacheURL != "" {
		u, err := url.Parse(cfg.RemoteCacheURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("remote-cache-url must be an absolute http(s) URL (received %q)", input.RemoteCacheURL)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates output and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile
	cfg.ProjectsFile = input.Projects
	cfg.SummaryDir = input.SummaryDir
	if cfg.SummaryDir == "" {
		cfg.SummaryDir = "."
	}

	cfg.Domain = strings.Trim(input.Domain, "/")
	if cfg.Domain == "" {
		cfg.Domain = schema.DefaultDomain
	}

	// Parse color flag
	colorStr := input.Color
	if colorStr == "" {
		colorStr = "yes"
	}
	colors, err := ParseBoolString(colorStr)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Output Validation ---
	output := input.Output
	if output == "" {
		output = string(schema.TextOut)
	}
	cfg.Output = schema.OutputMode(strings.ToLower(output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", output)
	}

	// --- 2. Log level Validation ---
	level := input.LogLevel
	if level == "" {
		level = logrus.InfoLevel.String()
	}
	cfg.LogLevel, err = logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", input.LogLevel, err)
	}

	// --- 3. Cron Validation ---
	cfg.CronSpec = input.Cron
	if cfg.CronSpec == "" {
		cfg.CronSpec = DefaultCron
	}
	if _, err := cron.ParseStandard(cfg.CronSpec); err != nil {
		return fmt.Errorf("invalid cron spec '%s': %w", cfg.CronSpec, err)
	}
	return nil
}

// processSourceConfig handles the commit source selection and its client settings.
func processSourceConfig(cfg *Config, input *ConfigRawInput) error {
	source := input.Source
	if source == "" {
		source = string(schema.GitHubSource)
	}
	cfg.Source = schema.SourceKind(strings.ToLower(source))
	if _, ok := schema.ValidSources[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be github, git", input.Source)
	}

	cfg.Token = input.Token
	cfg.GitHubBaseURL = input.GitHubBaseURL
	cfg.ClonesRoot = input.ClonesRoot
	if cfg.Source == schema.GitSource && cfg.ClonesRoot == "" {
		return fmt.Errorf("clones-root is required when using %s source", cfg.Source)
	}

	cfg.RateLimit = input.RateLimit
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate-limit must not be negative (received %v)", input.RateLimit)
	}

	cfg.RequestTimeout = DefaultRequestTimeout
	if input.RequestTimeout != "" {
		d, err := time.ParseDuration(input.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request-timeout '%s': %w", input.RequestTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("request-timeout must be positive (received %s)", input.RequestTimeout)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

// processWindows handles the retention horizon, reporting windows and branch candidates.
func processWindows(cfg *Config, input *ConfigRawInput) error {
	days := input.RetentionDays
	if days == 0 {
		days = schema.DefaultRetentionDays
	}
	if days < 0 || days > MaxWindowDays {
		return fmt.Errorf("retention-days must be between 1 and %d (received %d)", MaxWindowDays, input.RetentionDays)
	}
	cfg.Retention = time.Duration(days) * schema.Day

	cfg.Windows = slices.Clone(schema.DefaultWindows)
	if input.Windows != "" {
		windows, err := ParseWindows(input.Windows)
		if err != nil {
			return err
		}
		cfg.Windows = windows
	}

	cfg.BranchCandidates = slices.Clone(schema.DefaultBranchCandidates)
	if input.BranchCandidates != "" {
		cfg.BranchCandidates = splitList(input.BranchCandidates)
		if len(cfg.BranchCandidates) == 0 {
			return fmt.Errorf("branch-candidates must name at least one branch")
		}
	}
	return nil
}

// processRepo validates the positional repository argument when present.
func processRepo(cfg *Config, input *ConfigRawInput) error {
	cfg.Branch = strings.TrimSpace(input.Branch)
	if input.RepoStr == "" {
		return nil
	}
	repo, err := NormalizeRepoName(input.RepoStr)
	if err != nil {
		return err
	}
	cfg.Repo = repo
	return nil
}

// ParseWindows parses a string like "360,180,90,60" into a list of day windows.
// Order is preserved and duplicates are rejected.
func ParseWindows(s string) ([]int, error) {
	var windows []int
	for _, part := range splitList(s) {
		days, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid window '%s': %w", part, err)
		}
		if days <= 0 || days > MaxWindowDays {
			return nil, fmt.Errorf("window must be between 1 and %d days (received %d)", MaxWindowDays, days)
		}
		if slices.Contains(windows, days) {
			return nil, fmt.Errorf("duplicate window %d", days)
		}
		windows = append(windows, days)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("windows must name at least one day count")
	}
	return windows, nil
}

// NormalizeRepoName validates an "owner/name" repository reference.
// A full GitHub URL is accepted and reduced to its path.
func NormalizeRepoName(s string) (string, error) {
	repo := strings.TrimSpace(s)
	if u, err := url.Parse(repo); err == nil && u.Host != "" {
		repo = u.Path
	}
	repo = strings.TrimSuffix(strings.Trim(repo, "/"), ".git")
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("repository must look like owner/name (received %q)", s)
	}
	return repo, nil
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
