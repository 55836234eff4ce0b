package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
backend:
  kind: dolt
  dolt:
    host: dolt-host
    port: 3307
    user: bench
    password: secret

setup:
  database: tpcc
  schema_path: ./schema.sql
  preload_dir: ./data

benchmark:
  workload: branch-insert
  depth: 3
  degree: 2
  inserts_per_branch: 5
  table: warehouse
  progress_interval: 2s
  sampling:
    rate: 0.5
    cap: 20
    sort_index: 1
    distribution:
      kind: beta
      alpha: 5
      beta: 2

scenarios:
  hot_reads:
    description: skewed reads after inserts
    benchmark:
      workload: branch-insert-read
      depth: 1

logging:
  level: debug
  format: json
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify backend config
	if cfg.Backend.Dolt.Host != "dolt-host" {
		t.Errorf("expected dolt host 'dolt-host', got %s", cfg.Backend.Dolt.Host)
	}
	if cfg.Backend.Dolt.Port != 3307 {
		t.Errorf("expected dolt port 3307, got %d", cfg.Backend.Dolt.Port)
	}
	if cfg.Backend.Dolt.TLS != "disable" {
		t.Errorf("expected default tls 'disable', got %s", cfg.Backend.Dolt.TLS)
	}

	// Verify setup config
	if cfg.Setup.Database != "tpcc" {
		t.Errorf("expected database 'tpcc', got %s", cfg.Setup.Database)
	}

	// Verify benchmark config
	if cfg.Benchmark.Depth != 3 {
		t.Errorf("expected depth 3, got %d", cfg.Benchmark.Depth)
	}
	if cfg.Benchmark.ProgressInterval != 2*time.Second {
		t.Errorf("expected progress interval 2s, got %s", cfg.Benchmark.ProgressInterval)
	}
	if cfg.Benchmark.RootBranch != "main" {
		t.Errorf("expected default root branch 'main', got %s", cfg.Benchmark.RootBranch)
	}
	if cfg.Benchmark.Sampling.Distribution.Alpha != 5 {
		t.Errorf("expected alpha 5, got %v", cfg.Benchmark.Sampling.Distribution.Alpha)
	}

	// Verify scenario config
	hot := cfg.GetScenarioBenchmark("hot_reads")
	if hot.Workload != WorkloadBranchInsertRead {
		t.Errorf("expected scenario workload, got %s", hot.Workload)
	}
	if hot.Depth != 1 {
		t.Errorf("expected scenario depth 1, got %d", hot.Depth)
	}
	if hot.Table != "warehouse" {
		t.Errorf("expected global table, got %s", hot.Table)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected loaded config to validate, got: %v", err)
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("TEST_DOLT_HOST", "env-host")
	t.Setenv("TEST_DOLT_PASS", "env-pass")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-env.yaml")

	configContent := `
backend:
  dolt:
    host: ${TEST_DOLT_HOST}
    password: $TEST_DOLT_PASS
    user: ${TEST_UNSET_VAR_XYZ}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Backend.Dolt.Host != "env-host" {
		t.Errorf("expected dolt host 'env-host', got %s", cfg.Backend.Dolt.Host)
	}
	if cfg.Backend.Dolt.Password != "env-pass" {
		t.Errorf("expected dolt password 'env-pass', got %s", cfg.Backend.Dolt.Password)
	}
	if cfg.Backend.Dolt.User != "${TEST_UNSET_VAR_XYZ}" {
		t.Errorf("expected unset var to be kept, got %s", cfg.Backend.Dolt.User)
	}
}

func TestLoadNeonEnvFile(t *testing.T) {
	// t.Setenv restores the original value; godotenv never overrides a set variable.
	t.Setenv("NEON_API_KEY", "")
	os.Unsetenv("NEON_API_KEY")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "neon.yaml")
	envPath := filepath.Join(tmpDir, "neon.env")

	if err := os.WriteFile(envPath, []byte("NEON_API_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	configContent := `
backend:
  kind: neon
  neon:
    project_id: proj-123
    env_file: neon.env
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Backend.Neon.APIKey != "from-dotenv" {
		t.Errorf("expected api key from env file, got %q", cfg.Backend.Neon.APIKey)
	}
	if cfg.Backend.Neon.EnvFile != envPath {
		t.Errorf("expected env file resolved to %s, got %s", envPath, cfg.Backend.Neon.EnvFile)
	}
}

func TestLoadNeonMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("NEON_API_KEY", "from-process")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "neon.yaml")
	configContent := `
backend:
  kind: neon
  neon:
    project_id: proj-123
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Backend.Neon.APIKey != "from-process" {
		t.Errorf("expected api key from process env, got %q", cfg.Backend.Neon.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	v.Set("benchmark.depth", 4)
	v.Set("benchmark.workload", "update-only")

	cfg, err := LoadFromViper(v)
	if err != nil {
		t.Fatalf("failed to load from viper: %v", err)
	}
	if cfg.Benchmark.Depth != 4 {
		t.Errorf("expected depth 4, got %d", cfg.Benchmark.Depth)
	}
	if cfg.Benchmark.Workload != WorkloadUpdateOnly {
		t.Errorf("expected workload 'update-only', got %s", cfg.Benchmark.Workload)
	}
	if cfg.Benchmark.Degree != 2 {
		t.Errorf("expected default degree 2, got %d", cfg.Benchmark.Degree)
	}
}

func TestLoad_ScenarioZeroValuesOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
benchmark:
  depth: 3
  time_inserts: true
  time_branch_create: true
scenarios:
  root_only:
    benchmark:
      depth: 0
      time_inserts: false
  inherits:
    benchmark:
      degree: 4
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	b := cfg.GetScenarioBenchmark("root_only")
	if b.Depth != 0 {
		t.Errorf("expected scenario depth 0, got %d", b.Depth)
	}
	if b.TimeInserts {
		t.Error("expected time_inserts turned off by scenario")
	}
	if !b.TimeBranchCreate {
		t.Error("expected time_branch_create inherited from global")
	}

	b = cfg.GetScenarioBenchmark("inherits")
	if b.Depth != 3 || !b.TimeInserts || b.Degree != 4 {
		t.Errorf("unexpected inherited values: depth=%d time_inserts=%t degree=%d", b.Depth, b.TimeInserts, b.Degree)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("BB_TEST_VAR", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"${BB_TEST_VAR}", "value"},
		{"$BB_TEST_VAR", "value"},
		{"prefix-${BB_TEST_VAR}-suffix", "prefix-value-suffix"},
		{"no vars", "no vars"},
		{"${BB_MISSING_VAR}", "${BB_MISSING_VAR}"},
	}
	for _, tt := range tests {
		if got := expandEnvVar(tt.in); got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
