package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/cohort/core"
	"github.com/huangsam/cohort/core/algo"
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// toolError reports a failed build along with the status its error maps to.
func toolError(prefix string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s (status %d): %v", prefix, contract.StatusCode(err), err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleBuildReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.QueryTitle = request.GetString("query", "")
	if r := request.GetString("requester", ""); r != "" {
		cfg.RequesterID = r
	}
	if f := request.GetString("family", ""); f != "" {
		cfg.Family = schema.Family(f)
	}
	if d := request.GetInt("report_day", 0); d != 0 {
		cfg.ReportDay = d
	}

	if err := contract.RevalidateReport(cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid report parameters: %v", err)), nil
	}
	if cfg.ReportDay < 1 || cfg.ReportDay > 31 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid report parameters: report_day must be between 1 and 31, got %d", cfg.ReportDay)), nil
	}

	ctx = core.WithSuppressHeader(ctx)
	if request.GetBool("snapshot", false) {
		if cfg.Family != schema.MedClassFamily {
			return mcp.NewToolResultError("invalid report parameters: snapshot requires the medclass family"), nil
		}
		view, err := core.GetSnapshotResults(ctx, cfg, h.mgr)
		if err != nil {
			return toolError("snapshot failed", err), nil
		}
		return jsonResult(view)
	}

	report, err := core.GetReportResults(ctx, cfg, h.mgr)
	if err != nil {
		return toolError("report failed", err), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleBuildSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if q := request.GetString("queries", ""); q != "" {
		cfg.Queries = contract.SplitList(q)
	}
	if r := request.GetString("requester", ""); r != "" {
		cfg.RequesterID = r
	}

	if err := contract.RevalidateSummary(cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid summary parameters: %v", err)), nil
	}

	summary, err := core.GetSummaryResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return toolError("summary failed", err), nil
	}
	return jsonResult(summary)
}

func (h *toolHandler) handleListQueries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.mgr == nil || h.mgr.GetExecutionStore() == nil {
		return mcp.NewToolResultError("execution store is not initialized"), nil
	}
	queries, err := h.mgr.GetExecutionStore().ListQueries(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot list queries: %v", err)), nil
	}
	if queries == nil {
		queries = []schema.QueryInfo{}
	}
	return jsonResult(queries)
}

func (h *toolHandler) handlePseudoID(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	return mcp.NewToolResultText(algo.PseudoID(id)), nil
}
