package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ElaineAng/db-fork/internal/config"
)

var listScenariosCmd = &cobra.Command{
	Use:   "list-scenarios",
	Short: "List all scenarios in configuration",
	Long: `List all benchmark scenarios defined in the configuration file with their
resolved workload and tree shape.

Example:
  branchbench list-scenarios --config branchbench.yaml`,
	RunE: runListScenarios,
}

func init() {
	rootCmd.AddCommand(listScenariosCmd)
}

func runListScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	names := cfg.ListScenarios()
	if len(names) == 0 {
		cmd.Println("No scenarios defined in configuration file")
		return nil
	}

	cmd.Printf("Scenarios in %s:\n\n", GetConfigFile())
	for i, name := range names {
		sc, _ := cfg.GetScenario(name)
		b := sc.GetBenchmark(cfg.Benchmark)

		cmd.Printf("%d. %s\n", i+1, name)
		if sc.Description != "" {
			cmd.Printf("   Description:   %s\n", sc.Description)
		}
		cmd.Printf("   Workload:      %s\n", b.Workload)
		switch b.Workload {
		case config.WorkloadBranchOnly, config.WorkloadBranchInsert, config.WorkloadBranchInsertRead:
			cmd.Printf("   Tree:          depth=%d, degree=%d, root=%s\n", b.Depth, b.Degree, b.RootBranch)
			if b.Workload != config.WorkloadBranchOnly {
				cmd.Printf("   Inserts:       %d per branch\n", b.InsertsPerBranch)
			}
		default:
			cmd.Printf("   Rows:          %d per table\n", b.RowsPerTable)
		}
		if b.Table != "" {
			cmd.Printf("   Table:         %s\n", b.Table)
		}
		if len(b.Tables) > 0 {
			cmd.Printf("   Tables:        %v\n", b.Tables)
		}
		if sc.Benchmark == nil {
			cmd.Printf("   Benchmark:     Global\n")
		}

		if i < len(names)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d scenario(s)\n", len(names))
	return nil
}
