// Package metrics records run statistics with Prometheus client_golang.
//
// Metrics are registered on a private registry and can be dumped to a
// node-exporter textfile after a run. All methods are safe on a nil
// *Collector so callers never need to check whether metrics are enabled.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup results.
const (
	LookupRemoteHit = "remote_hit"
	LookupLocalHit  = "local_hit"
	LookupMiss      = "miss"
	LookupError     = "error"
)

const namespace = "osshealth"

// Collector holds every metric recorded by a run.
type Collector struct {
	registry *prometheus.Registry

	commitsFetched    *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	fetchTimeouts     *prometheus.CounterVec
	repoFailures      *prometheus.CounterVec
	regularCommitters *prometheus.GaugeVec
	historyRows       *prometheus.GaugeVec
}

// NewCollector creates a collector and registers its metrics. If registry is
// nil, a fresh registry is created.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		commitsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commits_fetched_total",
				Help:      "Total number of commits streamed from the commit source",
			},
			[]string{"repo"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of history cache lookups by result",
			},
			[]string{"result"},
		),
		fetchTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_timeouts_total",
				Help:      "Total number of commit fetch timeouts by outcome",
			},
			[]string{"outcome"},
		),
		repoFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repo_failures_total",
				Help:      "Total number of repositories that failed during a batch run",
			},
			[]string{"domain"},
		),
		regularCommitters: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "regular_committers",
				Help:      "Number of regular committers per repository and window",
			},
			[]string{"repo", "days"},
		),
		historyRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "history_rows",
				Help:      "Number of rows in the merged history table",
			},
			[]string{"repo"},
		),
	}

	registry.MustRegister(
		c.commitsFetched,
		c.cacheLookups,
		c.fetchTimeouts,
		c.repoFailures,
		c.regularCommitters,
		c.historyRows,
	)
	return c
}

// Registry returns the registry the metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// AddCommitsFetched adds n streamed commits for repo.
func (c *Collector) AddCommitsFetched(repo string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.commitsFetched.WithLabelValues(repo).Add(float64(n))
}

// RecordCacheLookup counts one cache lookup with the given result.
func (c *Collector) RecordCacheLookup(result string) {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// RecordFetchTimeout counts a fetch timeout; recovered tells whether the cache absorbed it.
func (c *Collector) RecordFetchTimeout(recovered bool) {
	if c == nil {
		return
	}
	outcome := "fatal"
	if recovered {
		outcome = "recovered"
	}
	c.fetchTimeouts.WithLabelValues(outcome).Inc()
}

// RecordRepoFailure counts one failed repository in a batch run.
func (c *Collector) RecordRepoFailure(domain string) {
	if c == nil {
		return
	}
	c.repoFailures.WithLabelValues(domain).Inc()
}

// SetRegularCommitters records the regular committer count of repo over days.
func (c *Collector) SetRegularCommitters(repo string, days, count int) {
	if c == nil {
		return
	}
	c.regularCommitters.WithLabelValues(repo, strconv.Itoa(days)).Set(float64(count))
}

// SetHistoryRows records the merged history size of repo.
func (c *Collector) SetHistoryRows(repo string, rows int) {
	if c == nil {
		return
	}
	c.historyRows.WithLabelValues(repo).Set(float64(rows))
}

// WriteToTextfile dumps every registered metric to path in the text exposition
// format, suitable for the node-exporter textfile collector.
func (c *Collector) WriteToTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
