package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/logger"
)

var (
	cleanupPrefix       string
	cleanupDropDatabase bool
	cleanupDryRun       bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete benchmark branches from the backend",
	Long: `Cleanup deletes the branches created by benchmark runs, deepest first,
and can drop the benchmark database.

WARNING: This permanently deletes branches. Use --dry-run first to verify.

Example:
  branchbench cleanup --config branchbench.yaml --dry-run
  branchbench cleanup --config branchbench.yaml --drop-database`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupPrefix, "prefix", "branch_d",
		"Delete branches whose name starts with this prefix")
	cleanupCmd.Flags().BoolVar(&cleanupDropDatabase, "drop-database", false,
		"Also drop the benchmark database")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false,
		"List the branches that would be deleted")

	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cleanupPrefix == "" {
		return fmt.Errorf("--prefix cannot be empty")
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signalContext(context.Background(), log)
	defer stop()

	root := cfg.Benchmark.RootBranch
	adapter, _, err := openBackend(ctx, cfg, root)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Backend.Kind, err)
	}
	defer adapter.Close()

	deleted, err := cleanupBranches(ctx, adapter, root, cleanupPrefix, cleanupDryRun, log)
	verb := "Deleted"
	if cleanupDryRun {
		verb = "Would delete"
	}
	for _, name := range deleted {
		cmd.Printf("  - %s\n", name)
	}
	cmd.Printf("%s %d branch(es)\n", verb, len(deleted))
	if err != nil {
		return err
	}

	if cleanupDropDatabase && !cleanupDryRun {
		err := adapter.DropDatabase(ctx, cfg.Setup.Database)
		switch backend.Classify(err) {
		case backend.OK:
			cmd.Printf("Dropped database %s\n", cfg.Setup.Database)
		case backend.RecoverableConflict:
			cmd.Printf("Database %s does not exist\n", cfg.Setup.Database)
		default:
			return fmt.Errorf("failed to drop database %s: %w", cfg.Setup.Database, err)
		}
	}
	return nil
}

// cleanupBranches deletes every branch named prefix* from the root branch,
// deepest first, and returns the names it deleted. A failed delete is logged
// and reported after the others were tried.
func cleanupBranches(ctx context.Context, a backend.Adapter, root, prefix string, dryRun bool, log *logger.Logger) ([]string, error) {
	branches, err := a.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	var targets []string
	for _, b := range branches {
		if strings.HasPrefix(b.Name, prefix) && b.Name != root {
			targets = append(targets, b.Name)
		}
	}
	sort.SliceStable(targets, func(i, j int) bool {
		di, dj := branchDepth(targets[i]), branchDepth(targets[j])
		if di != dj {
			return di > dj
		}
		return targets[i] < targets[j]
	})
	if dryRun || len(targets) == 0 {
		return targets, nil
	}

	// The active branch cannot be deleted on every backend.
	if err := a.ConnectBranch(ctx, root); err != nil {
		return nil, fmt.Errorf("failed to connect to root branch %s: %w", root, err)
	}

	var deleted []string
	failed := 0
	for _, name := range targets {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := a.DeleteBranch(ctx, name); err != nil {
			failed++
			log.Warnw("Failed to delete branch", "branch", name, "error", err)
			continue
		}
		log.Debugw("Deleted branch", "branch", name)
		deleted = append(deleted, name)
	}
	if failed > 0 {
		return deleted, fmt.Errorf("%d branch(es) could not be deleted", failed)
	}
	return deleted, nil
}

// branchDepth parses the depth out of a generated branch name such as
// branch_d2_n5. Other names have depth 0.
func branchDepth(name string) int {
	var d, n int
	if _, err := fmt.Sscanf(name, "branch_d%d_n%d", &d, &n); err != nil {
		return 0
	}
	return d
}
