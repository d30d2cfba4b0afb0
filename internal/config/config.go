// Package config provides configuration loading for nasscbench.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NASSCBENCH_"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config contains all nasscbench settings.
type Config struct {
	// Circuit selects and binds the benchmark circuit.
	Circuit CircuitConfig `json:"circuit" yaml:"circuit"`

	// Backend configures the simulated device.
	Backend BackendConfig `json:"backend" yaml:"backend"`

	// Routing configures the transpiler.
	Routing RoutingConfig `json:"routing" yaml:"routing"`

	// Simulation configures the noisy sampler.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Output names the files a run writes.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging sets log verbosity.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// CircuitConfig selects the circuit and its parameter binding.
type CircuitConfig struct {
	// Excise is the reference qubit removed from the 9-qubit circuit; -1 keeps all.
	Excise int `json:"excise" yaml:"excise"`

	// Params overrides the trained parameter vector when non-empty.
	Params []float64 `json:"params,omitempty" yaml:"params,omitempty"`

	// UnboundDefault is bound to parameters the vector does not cover.
	UnboundDefault float64 `json:"unbound_default" yaml:"unbound_default"`

	// OriginalBasis translates the original circuit to the device basis
	// (no routing) before simulating it, so the device noise model sees
	// its gates. When false the logical circuit is sampled as is.
	OriginalBasis bool `json:"original_basis" yaml:"original_basis"`
}

// BackendConfig configures the fake device.
type BackendConfig struct {
	// Seed drives the synthetic calibration.
	Seed uint64 `json:"seed" yaml:"seed"`

	// PropertiesFile is an optional TOML file overriding calibration values.
	PropertiesFile string `json:"properties_file,omitempty" yaml:"properties_file,omitempty"`
}

// RoutingConfig configures the pass manager.
type RoutingConfig struct {
	// Method is "nassc", "sabre" or "basic".
	Method string `json:"method" yaml:"method"`

	// Level is the optimization level, 1 or 3.
	Level int `json:"level" yaml:"level"`

	// Seed drives layout and swap tie-breaking.
	Seed uint64 `json:"seed" yaml:"seed"`

	// LayoutTrials is the number of candidate initial layouts.
	LayoutTrials int `json:"layout_trials" yaml:"layout_trials"`

	// InitialLayout pins virtual qubits to physical ones when set.
	InitialLayout []int `json:"initial_layout,omitempty" yaml:"initial_layout,omitempty"`

	FactorBlock    float64 `json:"factor_block" yaml:"factor_block"`
	FactorCommute0 float64 `json:"factor_commute0" yaml:"factor_commute0"`
	FactorCommute1 float64 `json:"factor_commute1" yaml:"factor_commute1"`
}

// SimulationConfig configures sampling.
type SimulationConfig struct {
	Shots int    `json:"shots" yaml:"shots"`
	Seed  uint64 `json:"seed" yaml:"seed"`

	// Trajectories is the number of noise realisations shots are spread over.
	Trajectories int `json:"trajectories" yaml:"trajectories"`

	// Workers bounds concurrent trajectories; 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`

	// Noise toggles the device noise model. The same model samples the
	// original and the transpiled circuit.
	Noise bool `json:"noise" yaml:"noise"`
}

// OutputConfig names the run artifacts.
type OutputConfig struct {
	CSV     string `json:"csv" yaml:"csv"`
	Plot    string `json:"plot" yaml:"plot"`
	Summary string `json:"summary" yaml:"summary"`

	// TopK is the number of bitstrings kept per circuit.
	TopK int `json:"top_k" yaml:"top_k"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config reproducing the reference benchmark.
func Default() *Config {
	return &Config{
		Circuit: CircuitConfig{
			Excise:         1,
			UnboundDefault: 0.0,
			OriginalBasis:  true,
		},
		Backend: BackendConfig{
			Seed: 2023,
		},
		Routing: RoutingConfig{
			Method:         "nassc",
			Level:          3,
			Seed:           11,
			LayoutTrials:   8,
			FactorBlock:    1,
			FactorCommute0: 1,
			FactorCommute1: 1,
		},
		Simulation: SimulationConfig{
			Shots:        8192,
			Seed:         11,
			Trajectories: 512,
			Noise:        true,
		},
		Output: OutputConfig{
			CSV:     "brisbane_fidelity_comparison_all_noise.csv",
			Plot:    "fidelity_comparison_all_plot_noise.png",
			Summary: "nassc_summary.json",
			TopK:    5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path, or the defaults when path is empty,
// then applies environment variable overrides.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys the file
// does not set keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Circuit.Excise < -1 || c.Circuit.Excise > 8 {
		return fmt.Errorf("%w: excise must be in [-1, 8], got %d", ErrInvalid, c.Circuit.Excise)
	}

	validMethods := map[string]bool{"nassc": true, "sabre": true, "basic": true}
	if !validMethods[c.Routing.Method] {
		return fmt.Errorf("%w: invalid routing method: %s (valid: nassc, sabre, basic)", ErrInvalid, c.Routing.Method)
	}
	if c.Routing.Level != 1 && c.Routing.Level != 3 {
		return fmt.Errorf("%w: optimization level must be 1 or 3, got %d", ErrInvalid, c.Routing.Level)
	}
	if c.Routing.LayoutTrials < 1 {
		return fmt.Errorf("%w: layout_trials must be positive, got %d", ErrInvalid, c.Routing.LayoutTrials)
	}
	if c.Routing.FactorBlock < 0 || c.Routing.FactorCommute0 < 0 || c.Routing.FactorCommute1 < 0 {
		return fmt.Errorf("%w: NASSC factors must be non-negative", ErrInvalid)
	}

	if c.Simulation.Shots <= 0 {
		return fmt.Errorf("%w: shots must be positive, got %d", ErrInvalid, c.Simulation.Shots)
	}
	if c.Simulation.Trajectories <= 0 {
		return fmt.Errorf("%w: trajectories must be positive, got %d", ErrInvalid, c.Simulation.Trajectories)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalid, c.Simulation.Workers)
	}
	if c.Output.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalid, c.Output.TopK)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: invalid log level: %s (valid: debug, info, warn, error, or empty for default)", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) error {
	ints := map[string]*int{
		"EXCISE":        &config.Circuit.Excise,
		"LEVEL":         &config.Routing.Level,
		"LAYOUT_TRIALS": &config.Routing.LayoutTrials,
		"SHOTS":         &config.Simulation.Shots,
		"TRAJECTORIES":  &config.Simulation.Trajectories,
		"WORKERS":       &config.Simulation.Workers,
		"TOP_K":         &config.Output.TopK,
	}
	for name, dst := range ints {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	seeds := map[string]*uint64{
		"SEED":         &config.Simulation.Seed,
		"ROUTING_SEED": &config.Routing.Seed,
		"BACKEND_SEED": &config.Backend.Seed,
	}
	for name, dst := range seeds {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv(EnvPrefix + "UNBOUND_DEFAULT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sUNBOUND_DEFAULT: %w", EnvPrefix, err)
		}
		config.Circuit.UnboundDefault = f
	}

	if v := os.Getenv(EnvPrefix + "ROUTING_METHOD"); v != "" {
		config.Routing.Method = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "ORIGINAL_BASIS"); v != "" {
		config.Circuit.OriginalBasis = v == "true" || v == "1"
	}
	if v := os.Getenv(EnvPrefix + "NOISE"); v != "" {
		config.Simulation.Noise = v == "true" || v == "1"
	}
	if v := os.Getenv(EnvPrefix + "PROPERTIES_FILE"); v != "" {
		config.Backend.PropertiesFile = v
	}
	if v := os.Getenv(EnvPrefix + "CSV"); v != "" {
		config.Output.CSV = v
	}
	if v := os.Getenv(EnvPrefix + "PLOT"); v != "" {
		config.Output.Plot = v
	}
	if v := os.Getenv(EnvPrefix + "SUMMARY"); v != "" {
		config.Output.Summary = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	return nil
}
