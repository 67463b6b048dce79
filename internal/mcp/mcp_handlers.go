package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/osshealth/core"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	deps    *core.Deps
}

// requestConfig derives a per-call config from the request arguments.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	repo, err := contract.NormalizeRepoName(request.GetString("repo", ""))
	if err != nil {
		return nil, err
	}
	cfg := h.baseCfg.CloneWithRepo(repo)
	cfg.Branch = request.GetString("branch", "")

	if w := request.GetString("windows", ""); w != "" {
		windows, err := contract.ParseWindows(w)
		if err != nil {
			return nil, err
		}
		cfg.Windows = windows
	}
	return cfg, nil
}

func (h *toolHandler) handleGetRepoHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	summaries, err := core.ExecuteRepo(ctx, cfg, h.deps)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	ordered := make([]schema.Summary, 0, len(cfg.Windows))
	for _, days := range cfg.Windows {
		ordered = append(ordered, summaries[days])
	}
	jsonData, _ := json.MarshalIndent(ordered, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetHealthSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	summaries, err := core.ExecuteRepo(ctx, cfg, h.deps)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	type windowHealth struct {
		Days    int    `json:"days"`
		Regular int    `json:"regular"`
		Label   string `json:"label"`
	}
	result := make([]windowHealth, 0, len(cfg.Windows))
	for _, days := range cfg.Windows {
		n := summaries[days].RegularCount()
		result = append(result, windowHealth{Days: days, Regular: n, Label: contract.GetPlainLabel(n)})
	}
	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
