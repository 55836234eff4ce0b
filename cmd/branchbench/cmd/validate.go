package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ElaineAng/db-fork/internal/bench"
	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/logger"
)

var validatePreflight bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and, with --preflight, runs the
preflight checks of every scenario against the backend.

Checks performed:
  - Configuration syntax and required fields
  - Benchmark settings of the global block and every scenario
  - Backend connectivity (--preflight)
  - Table existence and primary keys (--preflight)
  - Sort index and updatable columns for sampling workloads (--preflight)

Example:
  branchbench validate --config branchbench.yaml --preflight`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validatePreflight, "preflight", false,
		"Connect to the backend and check the benchmark tables")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())
	cmd.Printf("Backend:     %s\n", cfg.Backend.Kind)
	cmd.Printf("Scenarios:   %d\n\n", len(cfg.ListScenarios()))

	if err := cfg.Validate(); err != nil {
		cmd.Printf("❌ %v\n", err)
		return fmt.Errorf("configuration is invalid")
	}
	cmd.Printf("✅ Configuration is valid\n")

	if !validatePreflight {
		return nil
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	adapter, _, err := openBackend(ctx, cfg, cfg.Benchmark.RootBranch)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Backend.Kind, err)
	}
	defer adapter.Close()

	hasErrors := false
	for _, name := range append([]string{""}, cfg.ListScenarios()...) {
		b := cfg.GetScenarioBenchmark(name)
		label := name
		if label == "" {
			label = "(global)"
		}
		cmd.Printf("\n--- Scenario: %s ---\n", label)

		if err := adapter.ConnectBranch(ctx, b.RootBranch); err != nil {
			cmd.Printf("❌ Root branch %s: %v\n", b.RootBranch, err)
			hasErrors = true
			continue
		}
		tables := preflightTables(b)
		if len(tables) == 0 {
			all, err := adapter.AllTables(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tables: %w", err)
			}
			tables = all
		}
		if err := bench.Preflight(ctx, adapter, tables, b.Workload, b.Sampling.SortIndex); err != nil {
			cmd.Printf("❌ Preflight checks failed: %v\n", err)
			hasErrors = true
			continue
		}
		cmd.Printf("✅ All checks passed (%d tables)\n", len(tables))
	}

	if hasErrors {
		return fmt.Errorf("preflight failed for one or more scenarios")
	}
	cmd.Println("\n=== Validation Complete ===")
	return nil
}

// preflightTables returns the tables a benchmark names explicitly.
func preflightTables(b config.BenchmarkConfig) []string {
	if len(b.Tables) > 0 {
		return b.Tables
	}
	if b.Table != "" {
		return []string{b.Table}
	}
	return nil
}
