package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Simulation.Shots != 8192 {
		t.Errorf("expected Shots 8192, got %d", config.Simulation.Shots)
	}
	if config.Circuit.Excise != 1 {
		t.Errorf("expected Excise 1, got %d", config.Circuit.Excise)
	}
	if config.Circuit.UnboundDefault != 0 {
		t.Errorf("expected UnboundDefault 0, got %f", config.Circuit.UnboundDefault)
	}
	if config.Routing.Method != "nassc" {
		t.Errorf("expected Method 'nassc', got '%s'", config.Routing.Method)
	}
	if config.Output.CSV != "brisbane_fidelity_comparison_all_noise.csv" {
		t.Errorf("unexpected CSV path '%s'", config.Output.CSV)
	}
	if config.Output.Plot != "fidelity_comparison_all_plot_noise.png" {
		t.Errorf("unexpected plot path '%s'", config.Output.Plot)
	}
	if !config.Circuit.OriginalBasis {
		t.Error("expected OriginalBasis to be true by default")
	}
	if config.Output.TopK != 5 {
		t.Errorf("expected TopK 5, got %d", config.Output.TopK)
	}
	assert.NoError(t, config.Validate())
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
circuit:
  excise: 3
  params: [0.1, 0.2]
routing:
  method: sabre
  initial_layout: [0, 1, 2]
simulation:
  shots: 1024
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0600))

	config, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, 3, config.Circuit.Excise)
	assert.Equal(t, []float64{0.1, 0.2}, config.Circuit.Params)
	assert.Equal(t, "sabre", config.Routing.Method)
	assert.Equal(t, []int{0, 1, 2}, config.Routing.InitialLayout)
	assert.Equal(t, 1024, config.Simulation.Shots)

	// Unset keys keep their defaults.
	assert.Equal(t, 3, config.Routing.Level)
	assert.Equal(t, 512, config.Simulation.Trajectories)
	assert.Equal(t, "fidelity_comparison_all_plot_noise.png", config.Output.Plot)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("simulation: [shots"), 0600))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	want := Default()
	want.Routing.InitialLayout = []int{5, 6, 7}
	data, err := want.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))
	got, err := LoadFromFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NASSCBENCH_SHOTS", "4096")
	t.Setenv("NASSCBENCH_ROUTING_METHOD", "SABRE")
	t.Setenv("NASSCBENCH_SEED", "42")
	t.Setenv("NASSCBENCH_UNBOUND_DEFAULT", "0.5")
	t.Setenv("NASSCBENCH_ORIGINAL_BASIS", "0")
	t.Setenv("NASSCBENCH_LOG_LEVEL", "debug")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4096, config.Simulation.Shots)
	assert.Equal(t, "sabre", config.Routing.Method)
	assert.Equal(t, uint64(42), config.Simulation.Seed)
	assert.Equal(t, 0.5, config.Circuit.UnboundDefault)
	assert.False(t, config.Circuit.OriginalBasis)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestEnvOverrides_Malformed(t *testing.T) {
	t.Setenv("NASSCBENCH_SHOTS", "lots")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"excise too large", func(c *Config) { c.Circuit.Excise = 9 }},
		{"excise negative", func(c *Config) { c.Circuit.Excise = -2 }},
		{"routing method", func(c *Config) { c.Routing.Method = "lookahead" }},
		{"level", func(c *Config) { c.Routing.Level = 2 }},
		{"layout trials", func(c *Config) { c.Routing.LayoutTrials = 0 }},
		{"factor", func(c *Config) { c.Routing.FactorBlock = -1 }},
		{"shots", func(c *Config) { c.Simulation.Shots = 0 }},
		{"trajectories", func(c *Config) { c.Simulation.Trajectories = 0 }},
		{"workers", func(c *Config) { c.Simulation.Workers = -1 }},
		{"top k", func(c *Config) { c.Output.TopK = 0 }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			assert.ErrorIs(t, config.Validate(), ErrInvalid)
		})
	}
}

func TestValidate_KeepFullCircuit(t *testing.T) {
	config := Default()
	config.Circuit.Excise = -1
	assert.NoError(t, config.Validate())
}
