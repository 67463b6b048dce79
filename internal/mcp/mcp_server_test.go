package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"testing"
	"time"

	"github.com/huangsam/osshealth/core"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/iocache"
	mcp_internal "github.com/huangsam/osshealth/internal/mcp"
	"github.com/huangsam/osshealth/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// staticSource serves the same log for the main branch of every repository.
type staticSource struct {
	log schema.History
}

func (s staticSource) Commits(_ context.Context, _ string, branch string) iter.Seq2[schema.Commit, error] {
	return func(yield func(schema.Commit, error) bool) {
		if branch != "main" {
			yield(schema.Commit{}, schema.ErrBranchNotFound)
			return
		}
		for _, c := range s.log {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// steadyLog has alice committing three times a month for a year, and carol once.
func steadyLog() schema.History {
	log := schema.History{{SHA: "carol-0", Timestamp: testNow.Add(-24 * time.Hour), Author: "carol"}}
	for m := range 12 {
		for i := range 3 {
			log = append(log, schema.Commit{
				SHA:       fmt.Sprintf("alice-%d-%d", m, i),
				Timestamp: testNow.Add(-time.Duration(m*30+5+i) * schema.Day),
				Author:    "alice",
			})
		}
	}
	return log
}

func newTestServer(t *testing.T) (*core.Deps, *contract.Config) {
	t.Helper()
	local, err := iocache.NewFileStore(t.TempDir())
	require.NoError(t, err)

	deps := &core.Deps{
		Source: staticSource{log: steadyLog()},
		Cache:  iocache.NewHistoryStore(local),
		Now:    func() time.Time { return testNow },
	}
	baseCfg := &contract.Config{
		Domain:           "python",
		Windows:          []int{360, 60},
		BranchCandidates: schema.DefaultBranchCandidates,
		Retention:        schema.DefaultRetentionDays * schema.Day,
	}
	return deps, baseCfg
}

func callTool(t *testing.T, deps *core.Deps, baseCfg *contract.Config, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(baseCfg, deps)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	deps, baseCfg := newTestServer(t)

	t.Run("get_repo_health missing repo", func(t *testing.T) {
		res := callTool(t, deps, baseCfg, "get_repo_health", map[string]any{})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "owner/name")
	})

	t.Run("get_repo_health invalid windows", func(t *testing.T) {
		res := callTool(t, deps, baseCfg, "get_repo_health", map[string]any{
			"repo":    "psf/requests",
			"windows": "360,abc",
		})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "invalid window")
	})

	t.Run("get_health_summary unknown branch", func(t *testing.T) {
		res := callTool(t, deps, baseCfg, "get_health_summary", map[string]any{
			"repo":   "psf/requests",
			"branch": "develop",
		})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "analysis failed")
	})
}

func TestMCPServerHandlers_GetRepoHealth(t *testing.T) {
	deps, baseCfg := newTestServer(t)

	res := callTool(t, deps, baseCfg, "get_repo_health", map[string]any{
		"repo": "https://github.com/psf/requests",
	})
	require.False(t, res.IsError, res.Content[0].(mcp.TextContent).Text)

	var summaries []schema.Summary
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "psf/requests", summaries[0].Name)
	assert.Equal(t, 360, summaries[0].Days)
	assert.Equal(t, []string{"alice"}, summaries[0].RegularCommitters)
	require.Len(t, summaries[0].TopIrregular, 1)
	assert.Equal(t, "carol", summaries[0].TopIrregular[0].Author)
	assert.Equal(t, 60, summaries[1].Days)

	// The base config is never mutated by a call
	assert.Empty(t, baseCfg.Repo)
}

func TestMCPServerHandlers_GetHealthSummary(t *testing.T) {
	deps, baseCfg := newTestServer(t)

	res := callTool(t, deps, baseCfg, "get_health_summary", map[string]any{
		"repo":   "psf/requests",
		"branch": "main",
	})
	require.False(t, res.IsError, res.Content[0].(mcp.TextContent).Text)

	var result []struct {
		Days    int    `json:"days"`
		Regular int    `json:"regular"`
		Label   string `json:"label"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &result))
	require.Len(t, result, 2)
	assert.Equal(t, 360, result[0].Days)
	assert.Equal(t, 1, result[0].Regular)
	assert.Equal(t, contract.FragileValue, result[0].Label)
}
