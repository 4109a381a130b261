package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/cohort/core"
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// reportCmd builds the aligned report of one query.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare a clinician with their group and the network on one query.",
	Long: `Build a temporally aligned report of one query for the requesting clinician.

Executions of the query are aligned on a monthly chain starting on the report day,
then aggregated for three cohorts:
- the requesting clinician
- the clinician's group, with each peer listed under an anonymous identifier
- the whole network

Small cells are suppressed before anything is shown. The family decides what
is aggregated:
  ratio       - numerator and denominator of the measure (default)
  demographic - patient counts per gender and age range
  medclass    - the most prescribed drug classes

Examples:
  # Ratio report of a PDC measure
  cohort report --requester cpsid --query PDC-1738

  # Demographic breakdown as CSV
  cohort report -r cpsid -q PDC-053 --family demographic --output csv

  # Latest drug class snapshot
  cohort report -r cpsid -q MED-001 --family medclass --snapshot --classifier-url http://localhost:8080

  # Export the aligned points for analytics
  cohort report -r cpsid -q PDC-1738 --output parquet --output-file report.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := contract.RevalidateReport(cfg); err != nil {
			contract.LogFatal("Cannot build report", err)
		}
		executor := core.ExecuteReport
		if viper.GetBool("snapshot") {
			if cfg.Family != schema.MedClassFamily {
				contract.LogFatal("Cannot build snapshot", errors.New("--snapshot requires --family medclass"))
			}
			executor = core.ExecuteSnapshot
		}
		if err := executor(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build report", err)
		}
	},
}
