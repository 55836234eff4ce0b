package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/bench"
	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/lock"
	"github.com/ElaineAng/db-fork/internal/logger"
	"github.com/ElaineAng/db-fork/internal/report"
)

var (
	runScenario         string
	runWorkload         string
	runTable            string
	runTimeBranchCreate bool
	runTimeInserts      bool
	runForce            bool
	runNoColor          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark against the configured backend",
	Long: `Run prepares the benchmark database, executes one workload and prints
the timing report.

The run follows these steps:
  1. Create the database, load the schema and preload files (skipped when
     the database already exists)
  2. Check that the target tables exist and have primary keys
  3. Walk the branch tree or the target tables, timing backend calls
  4. Print the report, then drop the database if setup.drop_after is set

On Dolt, an advisory lock keeps two runs off the same server.

Example:
  branchbench run --config branchbench.yaml --scenario deep_tree
  branchbench run --workload branch-insert --depth 3 --degree 2`,
}

func init() {
	// Assigned here rather than in the literal to break the initialization
	// cycle runCmd -> runBenchmark -> runOverrides -> runCmd.
	runCmd.RunE = runBenchmark

	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "",
		"Scenario name from configuration file (default: global benchmark block)")
	runCmd.Flags().StringVarP(&runWorkload, "workload", "w", "",
		"Override workload ("+strings.Join(config.Workloads, ", ")+")")
	runCmd.Flags().StringVarP(&runTable, "table", "t", "",
		"Override target table")
	runCmd.Flags().BoolVar(&runTimeBranchCreate, "time-branch-create", false,
		"Time branch creation (--time-branch-create=false turns it off)")
	runCmd.Flags().BoolVar(&runTimeInserts, "time-inserts", false,
		"Time inserts in branch workloads (--time-inserts=false turns it off)")
	runCmd.Flags().BoolVar(&runForce, "force", false,
		"Run even if the run lock cannot be acquired (use with caution)")
	runCmd.Flags().BoolVar(&runNoColor, "no-color", false,
		"Disable colored report output")

	rootCmd.AddCommand(runCmd)
}

// runOverrides combines the persistent flags with the run flags.
func runOverrides() config.RunOverrides {
	o := GetCLIOverrides().RunOverrides()
	o.Workload = runWorkload
	o.Table = runTable
	o.TimeBranchCreate = ifChanged(runCmd.Flags().Changed("time-branch-create"), runTimeBranchCreate)
	o.TimeInserts = ifChanged(runCmd.Flags().Changed("time-inserts"), runTimeInserts)
	return o
}

// resolveBenchmark merges scenario and flag overrides over the global block.
func resolveBenchmark(cfg *config.Config, scenario string, o config.RunOverrides) (config.BenchmarkConfig, error) {
	if scenario != "" {
		if _, err := cfg.GetScenario(scenario); err != nil {
			return config.BenchmarkConfig{}, err
		}
	}
	b := cfg.ApplyScenarioOverrides(scenario, o)

	if errs := config.ValidateBenchmark("benchmark", &b); len(errs) > 0 {
		return b, errs
	}
	return b, nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	b, err := resolveBenchmark(cfg, runScenario, runOverrides())
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Infow("Starting benchmark run",
		"config", GetConfigFile(),
		"backend", cfg.Backend.Kind,
		"workload", b.Workload,
		"scenario", runScenario,
	)

	ctx, stop := signalContext(context.Background(), log)
	defer stop()

	adapter, db, err := openBackend(ctx, cfg, b.RootBranch)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Backend.Kind, err)
	}
	defer adapter.Close()

	execute := func() error {
		return executeRun(ctx, cmd.OutOrStdout(), cfg, b, adapter, log)
	}
	switch {
	case db == nil:
		err = execute()
	case runForce:
		log.Warn("Skipping run lock acquisition (--force flag used)")
		err = execute()
	default:
		err = lock.WithRunLock(ctx, db, runScenario, execute)
		if errors.Is(err, lock.ErrLockTimeout) {
			return fmt.Errorf("another branchbench run holds the lock on this server (use --force to override)")
		}
	}

	if errors.Is(err, context.Canceled) {
		log.Warn("Benchmark cancelled by user")
		return nil
	}
	return err
}

// executeRun is one locked run: setup, benchmark, report and teardown. The
// database is kept when the benchmark fails.
func executeRun(ctx context.Context, out io.Writer, cfg *config.Config, b config.BenchmarkConfig, a backend.Adapter, log *logger.Logger) error {
	setup, err := bench.Setup(ctx, a, cfg.Setup, log)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	orch, err := bench.NewOrchestrator(a, bench.Options{
		Scenario:  runScenario,
		Benchmark: b,
		Preloaded: setup.Preloaded,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	rep, runErr := orch.Run(ctx)
	if rep != nil {
		p := report.New(out)
		p.NoColor = runNoColor
		p.Report(rep)
	}
	if runErr != nil {
		return fmt.Errorf("benchmark failed: %w", runErr)
	}

	return bench.Teardown(ctx, a, cfg.Setup, log)
}
