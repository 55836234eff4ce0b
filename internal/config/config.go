// Package config provides configuration structures and loading for branchbench.
package config

import (
	"slices"
	"time"
)

// Backend kinds.
const (
	BackendDolt = "dolt"
	BackendNeon = "neon"
)

// Workload names accepted in configuration and on the command line.
const (
	WorkloadBranchOnly       = "branch-only"
	WorkloadInsertOnly       = "insert-only"
	WorkloadUpdateOnly       = "update-only"
	WorkloadReadOnly         = "read-only"
	WorkloadBranchInsert     = "branch-insert"
	WorkloadBranchInsertRead = "branch-insert-read"
)

// Workloads lists every workload name in display order.
var Workloads = []string{
	WorkloadBranchOnly,
	WorkloadInsertOnly,
	WorkloadUpdateOnly,
	WorkloadReadOnly,
	WorkloadBranchInsert,
	WorkloadBranchInsertRead,
}

// Config represents the complete application configuration.
type Config struct {
	Backend   BackendConfig             `yaml:"backend" mapstructure:"backend"`
	Setup     SetupConfig               `yaml:"setup" mapstructure:"setup"`
	Benchmark BenchmarkConfig           `yaml:"benchmark" mapstructure:"benchmark"`
	Scenarios map[string]ScenarioConfig `yaml:"scenarios" mapstructure:"scenarios"`
	Logging   LoggingConfig             `yaml:"logging" mapstructure:"logging"`
}

// BackendConfig selects and configures the branchable store under test.
type BackendConfig struct {
	Kind string     `yaml:"kind" mapstructure:"kind"` // dolt or neon
	Dolt DoltConfig `yaml:"dolt" mapstructure:"dolt"`
	Neon NeonConfig `yaml:"neon" mapstructure:"neon"`
}

// DoltConfig is a Dolt SQL server reached over the MySQL protocol.
type DoltConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	TLS      string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	Retries  int    `yaml:"retries" mapstructure:"retries"`
}

// NeonConfig is a Neon project reached through its HTTP API and Postgres endpoints.
type NeonConfig struct {
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	APIBaseURL string        `yaml:"api_base_url" mapstructure:"api_base_url"`
	ProjectID  string        `yaml:"project_id" mapstructure:"project_id"`
	Role       string        `yaml:"role" mapstructure:"role"`
	EnvFile    string        `yaml:"env_file" mapstructure:"env_file"` // dotenv file holding NEON_API_KEY
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SetupConfig describes the benchmark database and its initial contents.
type SetupConfig struct {
	Database   string `yaml:"database" mapstructure:"database"`
	SchemaPath string `yaml:"schema_path" mapstructure:"schema_path"`
	Schema     string `yaml:"schema" mapstructure:"schema"`
	PreloadDir string `yaml:"preload_dir" mapstructure:"preload_dir"` // <table>.csv files, pipe-delimited
	DropAfter  bool   `yaml:"drop_after" mapstructure:"drop_after"`
}

// BenchmarkConfig holds the run parameters shared by every workload.
type BenchmarkConfig struct {
	Workload         string         `yaml:"workload" mapstructure:"workload"`
	RootBranch       string         `yaml:"root_branch" mapstructure:"root_branch"`
	Depth            int            `yaml:"depth" mapstructure:"depth"`
	Degree           int            `yaml:"degree" mapstructure:"degree"`
	InsertsPerBranch int            `yaml:"inserts_per_branch" mapstructure:"inserts_per_branch"`
	RowsPerTable     int            `yaml:"rows_per_table" mapstructure:"rows_per_table"`
	Table            string         `yaml:"table" mapstructure:"table"`
	Tables           []string       `yaml:"tables" mapstructure:"tables"`
	TimeBranchCreate bool           `yaml:"time_branch_create" mapstructure:"time_branch_create"`
	TimeInserts      bool           `yaml:"time_inserts" mapstructure:"time_inserts"`
	Seed             uint64         `yaml:"seed" mapstructure:"seed"`
	ProgressInterval time.Duration  `yaml:"progress_interval" mapstructure:"progress_interval"`
	VerifyPopulation bool           `yaml:"verify_population" mapstructure:"verify_population"`
	Sampling         SamplingConfig `yaml:"sampling" mapstructure:"sampling"`
}

// SamplingConfig controls which keys point reads and updates target.
type SamplingConfig struct {
	Rate         float64            `yaml:"rate" mapstructure:"rate"`
	Cap          int                `yaml:"cap" mapstructure:"cap"`
	SortIndex    int                `yaml:"sort_index" mapstructure:"sort_index"`
	Distribution DistributionConfig `yaml:"distribution" mapstructure:"distribution"`
}

// DistributionConfig names the skew distribution.
type DistributionConfig struct {
	Kind  string  `yaml:"kind" mapstructure:"kind"` // uniform or beta
	Alpha float64 `yaml:"alpha" mapstructure:"alpha"`
	Beta  float64 `yaml:"beta" mapstructure:"beta"`
}

// ScenarioConfig is a named run. Benchmark fields that are set override the
// global benchmark block.
type ScenarioConfig struct {
	Description string           `yaml:"description" mapstructure:"description"`
	Benchmark   *BenchmarkConfig `yaml:"benchmark,omitempty" mapstructure:"benchmark"`

	// set holds the keys from explicitKeys that the scenario spells out.
	set map[string]bool
}

// explicitKeys are scenario settings whose zero value is a real choice.
var explicitKeys = []string{
	"depth",
	"degree",
	"inserts_per_branch",
	"rows_per_table",
	"seed",
	"time_branch_create",
	"time_inserts",
	"verify_population",
	"sampling.sort_index",
}

func (sc *ScenarioConfig) markSet(key string) {
	if sc.set == nil {
		sc.set = make(map[string]bool)
	}
	sc.set[key] = true
}

// overrides reports whether the scenario replaces the global value of key.
func (sc *ScenarioConfig) overrides(key string, nonZero bool) bool {
	return nonZero || sc.set[key]
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind: BackendDolt,
			Dolt: DoltConfig{
				Host:    "127.0.0.1",
				Port:    3306,
				User:    "root",
				TLS:     "disable",
				Retries: 3,
			},
			Neon: NeonConfig{
				APIBaseURL: "https://console.neon.tech/api/v2/",
				Role:       "neondb_owner",
				EnvFile:    ".env",
				Timeout:    30 * time.Second,
			},
		},
		Setup: SetupConfig{
			Database: "benchdb",
		},
		Benchmark: BenchmarkConfig{
			Workload:         WorkloadBranchInsert,
			RootBranch:       "main",
			Depth:            2,
			Degree:           2,
			InsertsPerBranch: 10,
			RowsPerTable:     100,
			Seed:             1,
			ProgressInterval: 5 * time.Second,
			Sampling: SamplingConfig{
				Rate: 0.1,
				Cap:  100,
				Distribution: DistributionConfig{
					Kind:  "beta",
					Alpha: 2,
					Beta:  5,
				},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// GetScenarioBenchmark returns the benchmark config for a scenario by name,
// falling back to global if the scenario does not exist.
func (c *Config) GetScenarioBenchmark(name string) BenchmarkConfig {
	sc, err := c.GetScenario(name)
	if err != nil {
		return c.Benchmark
	}
	return sc.GetBenchmark(c.Benchmark)
}

// GetBenchmark merges the scenario's overrides over global.
func (sc *ScenarioConfig) GetBenchmark(global BenchmarkConfig) BenchmarkConfig {
	if sc.Benchmark == nil {
		return global
	}

	o := sc.Benchmark
	result := global
	result.Tables = slices.Clone(global.Tables)
	if o.Workload != "" {
		result.Workload = o.Workload
	}
	if o.RootBranch != "" {
		result.RootBranch = o.RootBranch
	}
	if sc.overrides("depth", o.Depth > 0) {
		result.Depth = o.Depth
	}
	if sc.overrides("degree", o.Degree > 0) {
		result.Degree = o.Degree
	}
	if sc.overrides("inserts_per_branch", o.InsertsPerBranch > 0) {
		result.InsertsPerBranch = o.InsertsPerBranch
	}
	if sc.overrides("rows_per_table", o.RowsPerTable > 0) {
		result.RowsPerTable = o.RowsPerTable
	}
	if o.Table != "" {
		result.Table = o.Table
	}
	if len(o.Tables) > 0 {
		result.Tables = slices.Clone(o.Tables)
	}
	if sc.overrides("seed", o.Seed > 0) {
		result.Seed = o.Seed
	}
	if o.ProgressInterval > 0 {
		result.ProgressInterval = o.ProgressInterval
	}
	if sc.overrides("time_branch_create", o.TimeBranchCreate) {
		result.TimeBranchCreate = o.TimeBranchCreate
	}
	if sc.overrides("time_inserts", o.TimeInserts) {
		result.TimeInserts = o.TimeInserts
	}
	if sc.overrides("verify_population", o.VerifyPopulation) {
		result.VerifyPopulation = o.VerifyPopulation
	}

	if o.Sampling.Rate > 0 {
		result.Sampling.Rate = o.Sampling.Rate
	}
	if o.Sampling.Cap > 0 {
		result.Sampling.Cap = o.Sampling.Cap
	}
	if sc.overrides("sampling.sort_index", o.Sampling.SortIndex > 0) {
		result.Sampling.SortIndex = o.Sampling.SortIndex
	}
	if o.Sampling.Distribution.Kind != "" {
		result.Sampling.Distribution = o.Sampling.Distribution
	}
	return result
}
