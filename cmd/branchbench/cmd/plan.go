package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ElaineAng/db-fork/internal/bench"
	"github.com/ElaineAng/db-fork/internal/report"
)

var (
	planScenario string
	planMaxNodes int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the branch tree and workload of a run",
	Long: `Plan resolves the benchmark configuration and shows what a run would do
without connecting to a backend.

The plan shows:
  - Branch tree (ASCII, truncated to --max-nodes)
  - Intended nodes and branch creations
  - Insert calls and sample size per table
  - Sampling distribution and its skew

Example:
  branchbench plan --config branchbench.yaml --scenario deep_tree`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planScenario, "scenario", "s", "",
		"Scenario name from configuration file (default: global benchmark block)")
	planCmd.Flags().IntVar(&planMaxNodes, "max-nodes", 64,
		"Maximum branches drawn in the tree (0 draws all)")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := resolveBenchmark(cfg, planScenario, GetCLIOverrides().RunOverrides())
	if err != nil {
		return err
	}

	plan, err := bench.Estimate(b)
	if err != nil {
		return fmt.Errorf("failed to estimate plan: %w", err)
	}
	report.New(cmd.OutOrStdout()).Plan(plan, planMaxNodes)
	return nil
}
