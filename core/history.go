package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/metrics"
	"github.com/huangsam/osshealth/schema"
	"github.com/sirupsen/logrus"
)

// HistoryBuilder extends a repository's cached commit history with the
// commits published since the last run.
type HistoryBuilder struct {
	source     contract.CommitSource
	cache      contract.HistoryCache
	domain     string
	retention  time.Duration
	candidates []string
	now        func() time.Time
	logger     *logrus.Logger
	metrics    *metrics.Collector
}

// BuilderOption customizes a HistoryBuilder.
type BuilderOption func(*HistoryBuilder)

// WithDomain sets the cache namespace, e.g. "python". Empty keeps the default.
func WithDomain(domain string) BuilderOption {
	return func(b *HistoryBuilder) {
		if domain != "" {
			b.domain = domain
		}
	}
}

// WithRetention sets the age beyond which streaming stops. Zero keeps the default.
func WithRetention(d time.Duration) BuilderOption {
	return func(b *HistoryBuilder) {
		if d > 0 {
			b.retention = d
		}
	}
}

// WithBranchCandidates sets the default branch preference order.
func WithBranchCandidates(candidates []string) BuilderOption {
	return func(b *HistoryBuilder) {
		if len(candidates) > 0 {
			b.candidates = candidates
		}
	}
}

// WithClock overrides the reference time.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *HistoryBuilder) { b.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) BuilderOption {
	return func(b *HistoryBuilder) { b.logger = logger }
}

// WithMetrics records fetch counters on the collector.
func WithMetrics(c *metrics.Collector) BuilderOption {
	return func(b *HistoryBuilder) { b.metrics = c }
}

// NewHistoryBuilder is the starting point for building repository histories.
func NewHistoryBuilder(source contract.CommitSource, cache contract.HistoryCache, opts ...BuilderOption) *HistoryBuilder {
	b := &HistoryBuilder{
		source:     source,
		cache:      cache,
		domain:     schema.DefaultDomain,
		retention:  schema.DefaultRetentionDays * schema.Day,
		candidates: schema.DefaultBranchCandidates,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = contract.LoggerOrDefault(b.logger)
	return b
}

// Build returns the merged history of name and persists it. An empty branch
// means the default branch is resolved from the candidates.
func (b *HistoryBuilder) Build(ctx context.Context, name, branch string) (schema.History, error) {
	if branch == "" {
		resolved, err := b.ResolveBranch(ctx, name)
		if err != nil {
			return nil, err
		}
		branch = resolved
	}
	log := b.logger.WithFields(logrus.Fields{"repo": name, "branch": branch})

	key := schema.CacheKey{Domain: b.domain, Name: name}
	cached, err := b.cache.Load(ctx, key)
	hasCache := err == nil
	if err != nil && !errors.Is(err, schema.ErrCacheMiss) {
		return nil, err
	}
	seen := cached.SHAs()

	now := b.now()
	var fresh schema.History
	for commit, err := range b.source.Commits(ctx, name, branch) {
		if err != nil {
			if errors.Is(err, schema.ErrFetchTimeout) && hasCache {
				b.metrics.RecordFetchTimeout(true)
				log.WithError(err).Warn("Fetch timed out, continuing with cached history")
				break
			}
			if errors.Is(err, schema.ErrFetchTimeout) {
				b.metrics.RecordFetchTimeout(false)
			}
			return nil, err
		}

		// The boundary commit is kept; MergeHistory drops it if cached
		fresh = append(fresh, commit)
		if _, ok := seen[commit.SHA]; ok || now.Sub(commit.Timestamp) > b.retention {
			break
		}
	}
	b.metrics.AddCommitsFetched(name, len(fresh))
	log.Infof("Loaded history by grabbing %d commits", len(fresh))

	merged := MergeHistory(fresh, cached)
	if err := b.cache.Save(ctx, key, merged); err != nil {
		return nil, err
	}
	b.metrics.SetHistoryRows(name, len(merged))
	return merged, nil
}

// ResolveBranch returns the first candidate branch whose log has a commit.
func (b *HistoryBuilder) ResolveBranch(ctx context.Context, name string) (string, error) {
	for _, candidate := range b.candidates {
		found, err := b.hasCommits(ctx, name, candidate)
		if errors.Is(err, schema.ErrBranchNotFound) {
			b.logger.WithFields(logrus.Fields{"repo": name, "branch": candidate}).Debug("Branch candidate not found")
			continue
		}
		if err != nil {
			return "", err
		}
		if found {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s (tried %v): %w", name, b.candidates, schema.ErrBranchResolution)
}

func (b *HistoryBuilder) hasCommits(ctx context.Context, name, branch string) (bool, error) {
	for _, err := range b.source.Commits(ctx, name, branch) {
		return err == nil, err
	}
	return false, nil
}

// MergeHistory concatenates fresh and cached rows. Fresh rows whose SHA is
// already cached are dropped in favor of the cached copy, and duplicate SHAs
// within the cached rows collapse to their first occurrence.
func MergeHistory(fresh, cached schema.History) schema.History {
	cachedSHAs := cached.SHAs()
	merged := make(schema.History, 0, len(fresh)+len(cached))
	seen := make(map[string]struct{}, len(fresh)+len(cached))
	for _, c := range fresh {
		if _, ok := cachedSHAs[c.SHA]; ok {
			continue
		}
		if _, ok := seen[c.SHA]; ok {
			continue
		}
		seen[c.SHA] = struct{}{}
		merged = append(merged, c)
	}
	for _, c := range cached {
		if _, ok := seen[c.SHA]; ok {
			continue
		}
		seen[c.SHA] = struct{}{}
		merged = append(merged, c)
	}
	return merged
}
