// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/cohort/internal/contract"
)

// NewMCPServer initializes and configures the Cohort MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Cohort Reporting Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: build_report ---
	s.AddTool(mcp.NewTool("build_report",
		mcp.WithDescription("Build the temporally aligned clinician, group and network report of one query."),
		mcp.WithString("query", mcp.Description("Query title, e.g. PDC-1738."), mcp.Required()),
		mcp.WithString("requester", mcp.Description("Clinician id of the requester (defaults to the configured requester).")),
		mcp.WithString("family", mcp.Description("Query family. Defaults to the configured family."), mcp.Enum("ratio", "demographic", "medclass")),
		mcp.WithNumber("report_day", mcp.Description("Day of month the aligned chain starts on.")),
		mcp.WithBoolean("snapshot", mcp.Description("For medclass queries, compare the latest execution only.")),
	), h.handleBuildReport)

	// --- 2. Tool: build_summary ---
	s.AddTool(mcp.NewTool("build_summary",
		mcp.WithDescription("Summarize the requester's latest ratio across several queries."),
		mcp.WithString("queries", mcp.Description("Comma-separated query titles (defaults to the configured catalog).")),
		mcp.WithString("requester", mcp.Description("Clinician id of the requester.")),
	), h.handleBuildSummary)

	// --- 3. Tool: list_queries ---
	s.AddTool(mcp.NewTool("list_queries",
		mcp.WithDescription("List the stored queries with their execution counts and time ranges."),
	), h.handleListQueries)

	// --- 4. Tool: pseudo_id ---
	s.AddTool(mcp.NewTool("pseudo_id",
		mcp.WithDescription("Return the anonymous peer identifier a clinician id is reported under."),
		mcp.WithString("id", mcp.Description("Clinician id."), mcp.Required()),
	), h.handlePseudoID)

	return s
}

// StartMCPServer starts the Cohort MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
