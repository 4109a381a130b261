package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/cohort/core"
	"github.com/huangsam/cohort/internal/contract"
)

// summaryCmd summarizes the requester's latest ratios across queries.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the latest results of several ratio queries.",
	Long: `Summarize the requesting clinician's latest ratio across several queries.

Each row shows the percentage of patients, numerator and denominator of the most
recent execution together with the target and reference from the query catalog.
Queries whose latest execution lags the most recent one by more than the
separation window are reported without data.

Examples:
  # Summarize two queries
  cohort summary --requester cpsid --queries PDC-1738,PDC-053

  # Summarize a catalog with targets and references
  cohort summary -r cpsid --queries-file queries.yaml --output csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := contract.RevalidateSummary(cfg); err != nil {
			contract.LogFatal("Cannot build summary", err)
		}
		if err := core.ExecuteSummary(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build summary", err)
		}
	},
}
