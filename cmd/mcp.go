package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/cohort/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Cohort MCP server",
	Long:  `Launch an MCP server that allows AI agents to build cohort reports via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Report headers are suppressed per tool call since stdio carries the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
