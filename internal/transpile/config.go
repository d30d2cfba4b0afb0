// Package transpile maps logical circuits onto a device: layout selection,
// SWAP routing with the NASSC cost model, gate cancellation and translation
// to the device basis.
package transpile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"nasscbench/internal/backend"
)

// Routing methods.
const (
	RoutingNASSC = "nassc"
	RoutingSabre = "sabre"
	RoutingBasic = "basic"
)

// ErrConfig is returned for an invalid pass manager configuration.
var ErrConfig = errors.New("invalid transpile config")

// Config holds everything the pass manager needs, like Qiskit's
// PassManagerConfig.
type Config struct {
	// InitialLayout pins virtual qubit i to physical InitialLayout[i]. Nil
	// lets the layout stage choose.
	InitialLayout []int
	BasisGates    []string
	Backend       *backend.Backend
	// Level is the optimization level: 1 translates and cancels adjacent
	// gates, 3 adds commutation-aware cancellation to a fixed point.
	Level         int
	RoutingMethod string
	Seed          uint64

	EnableFactorBlock    bool
	EnableFactorCommute0 bool
	EnableFactorCommute1 bool
	FactorBlock          float64
	FactorCommute0       float64
	FactorCommute1       float64

	// LayoutIterations is the number of forward/backward refinement rounds.
	LayoutIterations int
	// LayoutTrials is the number of candidate initial layouts, the first
	// being the noise-aware dense layout and the rest random.
	LayoutTrials int
	// LookaheadWeight scales the extended set term of the routing score.
	LookaheadWeight float64
	// ExtendedSetSize bounds the lookahead window in two-qubit gates.
	ExtendedSetSize int
	// DecayDelta is added to a qubit's decay factor each time it is swapped.
	DecayDelta float64
	// DecayReset is the number of swaps after which decay factors reset.
	DecayReset int

	Logger *zap.Logger
}

// DefaultConfig returns the level-3 NASSC configuration for a backend.
func DefaultConfig(b *backend.Backend) Config {
	return Config{
		BasisGates:           slices.Clone(b.BasisGates),
		Backend:              b,
		Level:                3,
		RoutingMethod:        RoutingNASSC,
		Seed:                 11,
		EnableFactorBlock:    true,
		EnableFactorCommute0: true,
		EnableFactorCommute1: true,
		FactorBlock:          1,
		FactorCommute0:       1,
		FactorCommute1:       1,
		LayoutIterations:     4,
		LayoutTrials:         8,
		LookaheadWeight:      0.5,
		ExtendedSetSize:      20,
		DecayDelta:           0.001,
		DecayReset:           5,
	}
}

// Validate checks the configuration against the backend.
func (c *Config) Validate() error {
	if c.Backend == nil {
		return fmt.Errorf("%w: no backend", ErrConfig)
	}
	switch c.RoutingMethod {
	case RoutingNASSC, RoutingSabre, RoutingBasic:
	default:
		return fmt.Errorf("%w: unknown routing method %q", ErrConfig, c.RoutingMethod)
	}
	if c.Level != 1 && c.Level != 3 {
		return fmt.Errorf("%w: optimization level %d, want 1 or 3", ErrConfig, c.Level)
	}
	for _, g := range c.BasisGates {
		if !c.Backend.SupportsGate(g) {
			return fmt.Errorf("%w: basis gate %q not supported by %s", ErrConfig, g, c.Backend.Name)
		}
	}
	for _, need := range []string{"ecr", "rz", "sx", "x"} {
		if !slices.Contains(c.BasisGates, need) {
			return fmt.Errorf("%w: basis %s lacks %q", ErrConfig, strings.Join(c.BasisGates, ","), need)
		}
	}
	if c.FactorBlock < 0 || c.FactorCommute0 < 0 || c.FactorCommute1 < 0 {
		return fmt.Errorf("%w: negative NASSC factor", ErrConfig)
	}
	if c.LayoutTrials < 1 || c.LayoutIterations < 0 {
		return fmt.Errorf("%w: layout trials %d, iterations %d", ErrConfig, c.LayoutTrials, c.LayoutIterations)
	}
	if c.ExtendedSetSize < 0 || c.LookaheadWeight < 0 {
		return fmt.Errorf("%w: negative lookahead", ErrConfig)
	}
	if c.InitialLayout != nil {
		seen := make(map[int]bool, len(c.InitialLayout))
		for v, p := range c.InitialLayout {
			if p < 0 || p >= c.Backend.NumQubits() || seen[p] {
				return fmt.Errorf("%w: initial layout entry %d -> %d", ErrConfig, v, p)
			}
			seen[p] = true
		}
	}
	return nil
}

// nasscEnabled reports whether any NASSC cost reduction is active.
func (c *Config) nasscEnabled() bool {
	return c.RoutingMethod == RoutingNASSC &&
		(c.EnableFactorBlock || c.EnableFactorCommute0 || c.EnableFactorCommute1)
}
