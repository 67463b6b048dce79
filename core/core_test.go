package core

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/github"
	"github.com/huangsam/osshealth/internal/gitlocal"
	"github.com/huangsam/osshealth/internal/metrics"
	"github.com/huangsam/osshealth/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repoSource serves the main branch of known repositories only.
type repoSource map[string]schema.History

func (r repoSource) Commits(_ context.Context, repo, branch string) iter.Seq2[schema.Commit, error] {
	return func(yield func(schema.Commit, error) bool) {
		h, ok := r[repo]
		if !ok || branch != "main" {
			yield(schema.Commit{}, schema.ErrBranchNotFound)
			return
		}
		for _, c := range h {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func newTestDeps(t *testing.T, src contract.CommitSource) *Deps {
	t.Helper()
	return &Deps{
		Source:  src,
		Cache:   newTestCache(t),
		Metrics: metrics.NewCollector(prometheus.NewRegistry()),
		Now:     func() time.Time { return testNow },
	}
}

func newBatchConfig(t *testing.T, projects string) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(projects), 0o644))
	return &contract.Config{
		Domain:           "python",
		Windows:          []int{360, 60},
		BranchCandidates: schema.DefaultBranchCandidates,
		Retention:        schema.DefaultRetentionDays * schema.Day,
		ProjectsFile:     path,
		SummaryDir:       dir,
		Output:           schema.CSVOut,
		OutputFile:       filepath.Join(dir, "report.csv"),
	}
}

func TestExecuteRepo(t *testing.T) {
	deps := newTestDeps(t, repoSource{"psf/requests": steadyHistory("alice", 12)})
	cfg := newBatchConfig(t, "[]")
	cfg.Repo = "psf/requests"

	summaries, err := ExecuteRepo(context.Background(), cfg, deps)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, []string{"alice"}, summaries[360].RegularCommitters)
	assert.Equal(t, []string{"alice"}, summaries[60].RegularCommitters)

	n, err := testutil.GatherAndCount(deps.Metrics.Registry(), "osshealth_regular_committers")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // one series per window
}

func TestExecuteBatch(t *testing.T) {
	deps := newTestDeps(t, repoSource{
		"psf/requests":      steadyHistory("alice", 12),
		"pandas-dev/pandas": append(steadyHistory("bob", 12), steadyHistory("carol", 12)...),
	})
	cfg := newBatchConfig(t, `
- repo: psf/requests
  downloads: "1200"
- repo: ""
  downloads: "7"
- repo: acme/missing
  downloads: "3"
- repo: https://github.com/pandas-dev/pandas
  downloads: "9000"
`)

	rows, err := ExecuteBatch(context.Background(), cfg, deps)
	require.NoError(t, err)
	assert.Equal(t, []schema.SummaryRow{
		{Repo: "psf/requests", Counts: map[int]int{360: 1, 60: 1}, DownloadsPerDay: "1200"},
		{Repo: "pandas-dev/pandas", Counts: map[int]int{360: 2, 60: 2}, DownloadsPerDay: "9000"},
	}, rows)

	content, err := os.ReadFile(filepath.Join(cfg.SummaryDir, "python", SummaryFileName))
	require.NoError(t, err)
	assert.Equal(t, "repo,360,60,downloads_per_day\npsf/requests,1,1,1200\npandas-dev/pandas,2,2,9000\n", string(content))

	n, err := testutil.GatherAndCount(deps.Metrics.Registry(), "osshealth_repo_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExecuteBatchCanceled(t *testing.T) {
	deps := newTestDeps(t, repoSource{"psf/requests": steadyHistory("alice", 2)})
	cfg := newBatchConfig(t, "- repo: psf/requests\n  downloads: \"1\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rows, err := ExecuteBatch(ctx, cfg, deps)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rows)
}

func TestExecuteBatchMissingProjects(t *testing.T) {
	deps := newTestDeps(t, repoSource{})
	cfg := newBatchConfig(t, "[]")
	cfg.ProjectsFile = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := ExecuteBatch(context.Background(), cfg, deps)
	assert.Error(t, err)
}

func TestExecuteBatchReport(t *testing.T) {
	deps := newTestDeps(t, repoSource{"psf/requests": steadyHistory("alice", 12)})
	cfg := newBatchConfig(t, "- repo: psf/requests\n  downloads: \"1200\"\n")

	require.NoError(t, ExecuteBatchReport(context.Background(), cfg, deps))
	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "repo,360,60,downloads_per_day\npsf/requests,1,1,1200\n", string(content))
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(&contract.Config{Source: schema.GitSource, ClonesRoot: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &gitlocal.Source{}, src)

	src, err = NewSource(&contract.Config{Source: schema.GitHubSource, RateLimit: 1})
	require.NoError(t, err)
	assert.IsType(t, &github.Client{}, src)

	_, err = NewSource(&contract.Config{Source: "svn"})
	assert.Error(t, err)
}
