package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// neonAPIKeyEnv is read when backend.neon.api_key is empty.
const neonAPIKeyEnv = "NEON_API_KEY"

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := LoadFromViper(v)
	if err != nil {
		return nil, err
	}

	// A relative env_file is resolved against the config file's directory.
	if cfg.Backend.Neon.EnvFile != "" && !filepath.IsAbs(cfg.Backend.Neon.EnvFile) {
		cfg.Backend.Neon.EnvFile = filepath.Join(filepath.Dir(configPath), cfg.Backend.Neon.EnvFile)
	}
	if err := loadEnvFile(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	markExplicitScenarioKeys(v, cfg)

	return cfg, nil
}

// markExplicitScenarioKeys records which zero-valued scenario settings were
// written in the file, so that depth: 0 or time_inserts: false still override
// the global block.
func markExplicitScenarioKeys(v *viper.Viper, cfg *Config) {
	for name, sc := range cfg.Scenarios {
		if sc.Benchmark == nil {
			continue
		}
		for _, key := range explicitKeys {
			if v.IsSet("scenarios." + name + ".benchmark." + key) {
				sc.markSet(key)
			}
		}
		cfg.Scenarios[name] = sc
	}
}

// loadEnvFile loads the Neon dotenv file, if present, and fills the API key
// from the environment when the config leaves it empty. Variables already set
// in the process environment win over the file.
func loadEnvFile(cfg *Config) error {
	if cfg.Backend.Kind != BackendNeon {
		return nil
	}
	if path := cfg.Backend.Neon.EnvFile; path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	if cfg.Backend.Neon.APIKey == "" {
		cfg.Backend.Neon.APIKey = os.Getenv(neonAPIKeyEnv)
	}
	cfg.Backend.Neon.APIKey = expandEnvVar(cfg.Backend.Neon.APIKey)
	return nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) error {
	cfg.Backend.Dolt.Host = expandEnvVar(cfg.Backend.Dolt.Host)
	cfg.Backend.Dolt.User = expandEnvVar(cfg.Backend.Dolt.User)
	cfg.Backend.Dolt.Password = expandEnvVar(cfg.Backend.Dolt.Password)

	cfg.Backend.Neon.APIKey = expandEnvVar(cfg.Backend.Neon.APIKey)
	cfg.Backend.Neon.ProjectID = expandEnvVar(cfg.Backend.Neon.ProjectID)
	cfg.Backend.Neon.Role = expandEnvVar(cfg.Backend.Neon.Role)

	cfg.Setup.Database = expandEnvVar(cfg.Setup.Database)
	cfg.Setup.SchemaPath = expandEnvVar(cfg.Setup.SchemaPath)
	cfg.Setup.PreloadDir = expandEnvVar(cfg.Setup.PreloadDir)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// GetScenario retrieves a specific scenario configuration by name.
func (c *Config) GetScenario(name string) (*ScenarioConfig, error) {
	sc, exists := c.Scenarios[name]
	if !exists {
		return nil, fmt.Errorf("scenario %q not found in configuration", name)
	}
	return &sc, nil
}

// ListScenarios returns all scenario names in sorted order.
func (c *Config) ListScenarios() []string {
	names := make([]string, 0, len(c.Scenarios))
	for name := range c.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyOverrides applies CLI flag overrides to the global configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
}

// RunOverrides are benchmark values given on the command line. Nil pointers
// leave the configured value alone, so a flag can set zero or false.
type RunOverrides struct {
	Workload         string
	Seed             uint64
	Depth            *int
	Degree           *int
	InsertsPerBranch *int
	Table            string
	TimeBranchCreate *bool
	TimeInserts      *bool
}

// ApplyScenarioOverrides combines global, scenario-specific, and CLI values
// into the benchmark config for one run. An empty scenario name selects the
// global block.
func (c *Config) ApplyScenarioOverrides(scenario string, o RunOverrides) BenchmarkConfig {
	bench := c.Benchmark
	if scenario != "" {
		bench = c.GetScenarioBenchmark(scenario)
	}

	if o.Workload != "" {
		bench.Workload = o.Workload
	}
	if o.Seed > 0 {
		bench.Seed = o.Seed
	}
	if o.Depth != nil {
		bench.Depth = *o.Depth
	}
	if o.Degree != nil {
		bench.Degree = *o.Degree
	}
	if o.InsertsPerBranch != nil {
		bench.InsertsPerBranch = *o.InsertsPerBranch
	}
	if o.Table != "" {
		bench.Table = o.Table
	}
	if o.TimeBranchCreate != nil {
		bench.TimeBranchCreate = *o.TimeBranchCreate
	}
	if o.TimeInserts != nil {
		bench.TimeInserts = *o.TimeInserts
	}

	return bench
}
