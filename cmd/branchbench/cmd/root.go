package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ElaineAng/db-fork/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile          string
	logLevel         string
	logFormat        string
	seed             uint64
	depth            int
	degree           int
	insertsPerBranch int
)

var rootCmd = &cobra.Command{
	Use:   "branchbench",
	Short: "Benchmark harness for branchable databases",
	Long: `branchbench measures how branchable SQL stores behave as branch trees
grow: branch creation, inserts, skewed point reads and updates.

Supported backends:
  - Dolt (SQL server over the MySQL protocol)
  - Neon (HTTP API for branches, Postgres for data)

Workloads:
  - branch-only, branch-insert, branch-insert-read walk a branch tree
  - insert-only, update-only, read-only run per table on the root branch`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "branchbench.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Benchmark overrides
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0,
		"Override random seed")
	rootCmd.PersistentFlags().IntVar(&depth, "depth", 0,
		"Override branch tree depth")
	rootCmd.PersistentFlags().IntVar(&degree, "degree", 0,
		"Override children per branch")
	rootCmd.PersistentFlags().IntVar(&insertsPerBranch, "inserts-per-branch", 0,
		"Override rows inserted at every branch")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings.
// Tree shape fields are nil unless the flag was given.
type CLIOverrides struct {
	LogLevel         string
	LogFormat        string
	Seed             uint64
	Depth            *int
	Degree           *int
	InsertsPerBranch *int
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	flags := rootCmd.PersistentFlags()
	return CLIOverrides{
		LogLevel:         logLevel,
		LogFormat:        logFormat,
		Seed:             seed,
		Depth:            ifChanged(flags.Changed("depth"), depth),
		Degree:           ifChanged(flags.Changed("degree"), degree),
		InsertsPerBranch: ifChanged(flags.Changed("inserts-per-branch"), insertsPerBranch),
	}
}

// ifChanged returns &v when the flag was set on the command line.
func ifChanged[T any](changed bool, v T) *T {
	if !changed {
		return nil
	}
	return &v
}

// RunOverrides converts the persistent flags into benchmark overrides.
func (o CLIOverrides) RunOverrides() config.RunOverrides {
	return config.RunOverrides{
		Seed:             o.Seed,
		Depth:            o.Depth,
		Degree:           o.Degree,
		InsertsPerBranch: o.InsertsPerBranch,
	}
}

// loadConfig reads the config file and applies the logging overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat)
	return cfg, nil
}
