// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/osshealth/core"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the osshealth MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, deps *core.Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"OSS Health Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		deps:    deps,
	}

	// --- 1. Tool: get_repo_health ---
	s.AddTool(mcp.NewTool("get_repo_health",
		mcp.WithDescription("Classify the contributors of a repository as regular or irregular over trailing day-windows."),
		mcp.WithString("repo", mcp.Description("Repository as owner/name or URL."), mcp.Required()),
		mcp.WithString("branch", mcp.Description("Branch to analyze. Defaults to the first of main, master that has commits.")),
		mcp.WithString("windows", mcp.Description("Comma-separated day-windows, e.g. '360,180,90,60'.")),
	), h.handleGetRepoHealth)

	// --- 2. Tool: get_health_summary ---
	s.AddTool(mcp.NewTool("get_health_summary",
		mcp.WithDescription("Return only the number of regular committers and a health label per day-window."),
		mcp.WithString("repo", mcp.Description("Repository as owner/name or URL."), mcp.Required()),
		mcp.WithString("branch", mcp.Description("Branch to analyze.")),
	), h.handleGetHealthSummary)

	return s
}

// StartMCPServer starts the osshealth MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, deps *core.Deps) error {
	s := NewMCPServer(baseCfg, deps)
	return server.ServeStdio(s)
}
