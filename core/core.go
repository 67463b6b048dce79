// Package core has core logic for history building, classification and batch runs.
package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/github"
	"github.com/huangsam/osshealth/internal/gitlocal"
	"github.com/huangsam/osshealth/internal/metrics"
	"github.com/huangsam/osshealth/internal/outwriter"
	"github.com/huangsam/osshealth/schema"
	"github.com/sirupsen/logrus"
)

// SummaryFileName is the batch report written under <summary-dir>/<domain>.
const SummaryFileName = "summary.csv"

// Deps holds the collaborators shared by every run.
type Deps struct {
	Source  contract.CommitSource
	Cache   contract.HistoryCache
	Metrics *metrics.Collector
	Logger  *logrus.Logger
	Now     func() time.Time
}

// ExecutorFunc defines the function signature for the command entry points.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, deps *Deps) error

// NewSource returns the commit source selected by the configuration.
func NewSource(cfg *contract.Config) (contract.CommitSource, error) {
	switch cfg.Source {
	case schema.GitSource:
		return gitlocal.NewSource(cfg.ClonesRoot), nil
	case schema.GitHubSource, "":
		return github.NewClient(github.Options{
			Token:          cfg.Token,
			BaseURL:        cfg.GitHubBaseURL,
			RateLimit:      cfg.RateLimit,
			RequestTimeout: cfg.RequestTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported source %q", cfg.Source)
	}
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) builder(cfg *contract.Config, logger *logrus.Logger) *HistoryBuilder {
	return NewHistoryBuilder(d.Source, d.Cache,
		WithDomain(cfg.Domain),
		WithRetention(cfg.Retention),
		WithBranchCandidates(cfg.BranchCandidates),
		WithClock(d.now),
		WithLogger(logger),
		WithMetrics(d.Metrics),
	)
}

// ExecuteRepo builds the history of cfg.Repo and classifies it for every window.
func ExecuteRepo(ctx context.Context, cfg *contract.Config, deps *Deps) (map[int]schema.Summary, error) {
	return executeRepo(ctx, cfg, deps, contract.LoggerOrDefault(deps.Logger))
}

func executeRepo(ctx context.Context, cfg *contract.Config, deps *Deps, logger *logrus.Logger) (map[int]schema.Summary, error) {
	history, err := deps.builder(cfg, logger).Build(ctx, cfg.Repo, cfg.Branch)
	if err != nil {
		return nil, err
	}
	summaries := MakeSummaries(cfg.Repo, history, cfg.Windows, deps.now())
	for days, s := range summaries {
		deps.Metrics.SetRegularCommitters(cfg.Repo, days, s.RegularCount())
	}
	return summaries, nil
}

// ExecuteBatch processes every project of cfg.ProjectsFile in order and
// writes the summary CSV. A failing repository is logged and skipped.
func ExecuteBatch(ctx context.Context, cfg *contract.Config, deps *Deps) ([]schema.SummaryRow, error) {
	projects, err := contract.LoadProjects(cfg.ProjectsFile)
	if err != nil {
		return nil, err
	}

	logger := contract.LoggerOrDefault(deps.Logger)
	runID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{"run_id": runID, "domain": cfg.Domain})
	log.WithField("projects", len(projects)).Info("Starting batch run")

	rows := make([]schema.SummaryRow, 0, len(projects))
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		if p.Repo == "" {
			log.WithField("downloads_per_day", p.DownloadsPerDay).Warn("Skipping project without repository")
			continue
		}

		row, err := executeProject(ctx, cfg, deps, logger, p)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return rows, ctxErr
			}
			deps.Metrics.RecordRepoFailure(cfg.Domain)
			log.WithField("repo", p.Repo).Errorf("%s failed: %v", p.Repo, err)
			continue
		}
		rows = append(rows, row)
	}

	path := filepath.Join(cfg.SummaryDir, cfg.Domain, SummaryFileName)
	if err := outwriter.WriteSummaryCSV(rows, cfg.Windows, path); err != nil {
		return rows, err
	}
	log.WithFields(logrus.Fields{"rows": len(rows), "path": path}).Info("Finished batch run")
	return rows, nil
}

func executeProject(ctx context.Context, cfg *contract.Config, deps *Deps, logger *logrus.Logger, p schema.Project) (schema.SummaryRow, error) {
	repo, err := contract.NormalizeRepoName(p.Repo)
	if err != nil {
		return schema.SummaryRow{}, err
	}
	summaries, err := executeRepo(ctx, cfg.CloneWithRepo(repo), deps, logger)
	if err != nil {
		return schema.SummaryRow{}, err
	}

	counts := make(map[int]int, len(summaries))
	for days, s := range summaries {
		counts[days] = s.RegularCount()
	}
	return schema.SummaryRow{Repo: repo, Counts: counts, DownloadsPerDay: p.DownloadsPerDay}, nil
}

// ExecuteRepoReport runs ExecuteRepo and prints the per-window report.
func ExecuteRepoReport(ctx context.Context, cfg *contract.Config, deps *Deps) error {
	summaries, err := ExecuteRepo(ctx, cfg, deps)
	if err != nil {
		return err
	}
	return outwriter.PrintSummaries(summaries, cfg)
}

// ExecuteBatchReport runs ExecuteBatch and prints the collected rows.
func ExecuteBatchReport(ctx context.Context, cfg *contract.Config, deps *Deps) error {
	rows, err := ExecuteBatch(ctx, cfg, deps)
	if err != nil {
		return err
	}
	return outwriter.PrintSummaryRows(rows, cfg)
}
