package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElaineAng/db-fork/internal/config"
)

func TestRunCommandStructure(t *testing.T) {
	assert.NotNil(t, runCmd)
	assert.Equal(t, "run", runCmd.Use)
	assert.NotEmpty(t, runCmd.Short)
	assert.Contains(t, runCmd.Long, "Example:")
	assert.NotNil(t, runCmd.RunE)
}

func TestRunCommandFlags(t *testing.T) {
	flags := runCmd.Flags()

	scenario := flags.Lookup("scenario")
	require.NotNil(t, scenario)
	assert.Equal(t, "s", scenario.Shorthand)
	assert.Equal(t, "", scenario.DefValue)

	workload := flags.Lookup("workload")
	require.NotNil(t, workload)
	for _, w := range config.Workloads {
		assert.Contains(t, workload.Usage, w)
	}

	for _, name := range []string{"table", "time-branch-create", "time-inserts", "force", "no-color"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
}

func TestResolveBenchmark(t *testing.T) {
	useConfig(t, testConfig)
	cfg, err := loadConfig()
	require.NoError(t, err)

	b, err := resolveBenchmark(cfg, "", config.RunOverrides{})
	require.NoError(t, err)
	assert.Equal(t, config.WorkloadBranchInsert, b.Workload)
	assert.Equal(t, 1, b.Depth)

	degree, on := 3, true
	b, err = resolveBenchmark(cfg, "deep_tree", config.RunOverrides{Degree: &degree, TimeInserts: &on})
	require.NoError(t, err)
	assert.Equal(t, 4, b.Depth)
	assert.Equal(t, 3, b.Degree)
	assert.True(t, b.TimeInserts)

	b, err = resolveBenchmark(cfg, "hot_reads", config.RunOverrides{Table: "stock"})
	require.NoError(t, err)
	assert.Equal(t, config.WorkloadReadOnly, b.Workload)
	assert.Equal(t, "stock", b.Table)
	assert.Equal(t, []string{"item"}, b.Tables)
}

func TestResolveBenchmark_Errors(t *testing.T) {
	useConfig(t, testConfig)
	cfg, err := loadConfig()
	require.NoError(t, err)

	_, err = resolveBenchmark(cfg, "missing", config.RunOverrides{})
	assert.ErrorContains(t, err, `scenario "missing" not found`)

	_, err = resolveBenchmark(cfg, "", config.RunOverrides{Workload: "merge-only"})
	var verrs config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "benchmark.workload", verrs[0].Field)
}

func TestRunOverrides(t *testing.T) {
	o := runOverrides()
	assert.Nil(t, o.Depth)
	assert.Nil(t, o.TimeInserts)

	setFlag(t, runCmd, "workload", config.WorkloadBranchOnly)
	setFlag(t, runCmd, "table", "item")
	setFlag(t, rootCmd, "depth", "5")
	setFlag(t, runCmd, "time-inserts", "false")

	o = runOverrides()
	assert.Equal(t, config.WorkloadBranchOnly, o.Workload)
	assert.Equal(t, "item", o.Table)
	require.NotNil(t, o.Depth)
	assert.Equal(t, 5, *o.Depth)
	require.NotNil(t, o.TimeInserts)
	assert.False(t, *o.TimeInserts)
	assert.Nil(t, o.TimeBranchCreate)
}

func TestResolveBenchmark_FlagsTurnOffConfig(t *testing.T) {
	useConfig(t, testConfig)
	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.Benchmark.TimeInserts = true

	depth, off := 0, false
	b, err := resolveBenchmark(cfg, "deep_tree", config.RunOverrides{Depth: &depth, TimeInserts: &off})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Depth)
	assert.False(t, b.TimeInserts)
}

func TestOpenBackend_Unknown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend.Kind = "oracle"
	_, _, err := openBackend(t.Context(), cfg, "main")
	assert.ErrorContains(t, err, `unknown backend "oracle"`)
}
