// Package main measures how much the history cache speeds up osshealth.
// Every repository is analyzed with caching disabled and then with each cache
// backend, where the first successful run is cold and the rest are warm.
// Results are written to a CSV file for documentation.
//
// Prerequisites:
// - osshealth binary installed and available in PATH
// - Clones laid out as <repo-base>/<owner>/<name>
//
// Usage: go run benchmark/main.go [repo-base-dir] [owner/name...]
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one repository with one cache backend.
type BenchmarkResult struct {
	Repository string
	Backend    string
	ColdTime   string
	WarmTime   string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase  string
	Timeout   time.Duration
	Runs      int
	Backends  []string
	TestRepos []string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s [repo-base-dir] [owner/name...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:  os.Args[1],
		Timeout:   5 * time.Minute,
		Runs:      4,
		Backends:  []string{"none", "file", "sqlite", "bolt"},
		TestRepos: []string{"psf/requests", "pallets/flask", "pandas-dev/pandas"},
	}
	if len(os.Args) > 2 {
		config.TestRepos = os.Args[2:]
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the osshealth binary and the clones exist.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("osshealth"); err != nil {
		return fmt.Errorf("osshealth binary not found in PATH")
	}
	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}
	return nil
}

// runBenchmarks times every repository against every backend.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %d backends, %v timeout, %d runs\n",
		len(config.TestRepos), len(config.Backends), config.Timeout, config.Runs)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)
		for _, backend := range config.Backends {
			results = append(results, runBenchmarkSuite(config, repo, backend))
		}
	}
	return results
}

// runBenchmarkSuite clears the backend and runs the analysis config.Runs times.
func runBenchmarkSuite(config BenchmarkConfig, repo, backend string) BenchmarkResult {
	fmt.Printf("  %s backend (%d runs)\n", backend, config.Runs)

	cacheDir, err := os.MkdirTemp("", "osshealth-bench-*")
	if err != nil {
		fmt.Printf("  Warning: cannot create cache dir: %v\n", err)
		return BenchmarkResult{Repository: repo, Backend: backend, ColdTime: "ERROR", WarmTime: "ERROR"}
	}
	defer func() { _ = os.RemoveAll(cacheDir) }()

	args := []string{
		"--source", "git",
		"--clones-root", config.RepoBase,
		"--cache-backend", backend,
		"--cache-root", filepath.Join(cacheDir, "snapshots"),
		"--color", "no",
	}
	switch backend {
	case "sqlite":
		args = append(args, "--cache-db-connect", filepath.Join(cacheDir, "cache.db"))
	case "bolt":
		args = append(args, "--cache-db-connect", filepath.Join(cacheDir, "cache.bolt"))
	}

	var times []float64
	for range config.Runs {
		if elapsed, ok := timeRun(config.Timeout, append([]string{"repo", repo}, args...)); ok {
			times = append(times, elapsed)
		}
	}

	result := BenchmarkResult{Repository: repo, Backend: backend, ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
	if len(times) > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}
	fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
	return result
}

// timeRun runs osshealth with args and returns the elapsed seconds on success.
func timeRun(timeout time.Duration, args []string) (float64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	output, err := exec.CommandContext(ctx, "osshealth", args...).Output()
	if err != nil || !strings.Contains(string(output), "regular committers") {
		return 0, false
	}
	return time.Since(start).Seconds(), true
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("osshealth_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"repo", "backend", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write([]string{r.Repository, r.Backend, r.ColdTime, r.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final results grouped by repository.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	current := ""
	for _, r := range results {
		if r.Repository != current {
			current = r.Repository
			fmt.Printf("%s:\n", current)
		}
		fmt.Printf("  %-8s: Cold: %s, Warm: %s\n", r.Backend, r.ColdTime, r.WarmTime)
	}
}
