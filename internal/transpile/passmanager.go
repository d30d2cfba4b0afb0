package transpile

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"nasscbench/internal/circuit"
)

// PCG streams for the seeded random sources.
const (
	layoutStream uint64 = 0x6c61796f7574
	routeStream  uint64 = 0x726f757465
)

// Result is a transpiled circuit with its statistics.
type Result struct {
	Circuit *circuit.Circuit
	// InitialLayout[v] is the physical qubit holding virtual qubit v before
	// the first gate, FinalLayout[v] after the last one.
	InitialLayout []int
	FinalLayout   []int
	Swaps         int
	Ops           map[string]int
	Depth         int
	Size          int
	TwoQubitGates int
	Elapsed       time.Duration
}

// PassManager runs the layout, routing and translation passes.
type PassManager struct {
	cfg    Config
	router *router
	logger *zap.Logger
}

// NewPassManager validates cfg and returns a pass manager.
func NewPassManager(cfg Config) (*PassManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	pm := &PassManager{cfg: cfg, logger: cfg.Logger}
	pm.router = newRouter(&pm.cfg)
	return pm, nil
}

type pass struct {
	name string
	run  func(*circuit.Circuit) (*circuit.Circuit, error)
}

func (pm *PassManager) runPasses(ctx context.Context, c *circuit.Circuit, passes []pass) (*circuit.Circuit, error) {
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		out, err := p.run(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		c = out
		pm.logger.Debug("pass done",
			zap.String("pass", p.name),
			zap.Int("size", c.Size()),
			zap.Int("depth", c.Depth()),
			zap.Int("two_qubit", c.TwoQubitCount()),
			zap.Duration("elapsed", time.Since(start)))
	}
	return c, nil
}

// Run maps c onto the device and returns the transpiled circuit. c is not
// modified.
func (pm *PassManager) Run(ctx context.Context, c *circuit.Circuit) (*Result, error) {
	start := time.Now()
	b := pm.cfg.Backend
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.NumQubits > b.NumQubits() {
		return nil, fmt.Errorf("%w: %d qubits on %d-qubit %s", ErrConfig, c.NumQubits, b.NumQubits(), b.Name)
	}
	if l := pm.cfg.InitialLayout; l != nil && len(l) != c.NumQubits {
		return nil, fmt.Errorf("%w: initial layout has %d entries for %d qubits", ErrConfig, len(l), c.NumQubits)
	}
	commute := pm.cfg.Level >= 3
	res := &Result{}

	passes := []pass{
		{"unroll", unroll},
		{"layout", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			l, err := pm.chooseLayout(ctx, c)
			if err != nil {
				return nil, err
			}
			res.InitialLayout = l.VirtualToPhysical()
			return c, nil
		}},
		{"route", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			l := NewLayout(res.InitialLayout, b.NumQubits())
			rng := rand.New(rand.NewPCG(pm.cfg.Seed, routeStream))
			rr, err := pm.router.route(circuit.NewDAG(c), l, rng)
			if err != nil {
				return nil, err
			}
			res.Swaps = rr.swaps
			res.FinalLayout = rr.final.VirtualToPhysical()
			out := circuit.New(b.NumQubits(), c.NumClbits)
			for _, g := range rr.gates {
				out.Append(g)
			}
			return out, nil
		}},
		{"decompose_swaps", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			return decomposeSwaps(c, b, commute), nil
		}},
		{"cancel_cx", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			removed := cancelCX(c, commute)
			pm.logger.Debug("cancelled cx", zap.Int("removed", removed))
			return c, nil
		}},
		{"translate_cx", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			return translateCX(c, b), nil
		}},
		{"optimize_1q", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			return optimize1q(c), nil
		}},
		{"cancel_ecr", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			if cancelPairs(c, circuit.TypeECR, false) > 0 {
				return optimize1q(c), nil
			}
			return c, nil
		}},
		{"check_map", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			return c, checkMapped(c, b)
		}},
	}

	out, err := pm.runPasses(ctx, c, passes)
	if err != nil {
		return nil, err
	}
	res.Circuit = out
	res.Ops = out.CountOps()
	res.Depth = out.Depth()
	res.Size = out.Size()
	res.TwoQubitGates = out.TwoQubitCount()
	res.Elapsed = time.Since(start)
	pm.logger.Info("transpiled circuit",
		zap.String("routing", pm.cfg.RoutingMethod),
		zap.Int("swaps", res.Swaps),
		zap.Int("depth", res.Depth),
		zap.Int("size", res.Size),
		zap.Int("ecr", res.TwoQubitGates),
		zap.Ints("initial_layout", res.InitialLayout),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// TranslateOnly rewrites c into the device basis on the trivial layout
// without routing. Two-qubit gates between uncoupled qubits keep their
// logical direction, so the result need not be runnable on hardware.
func (pm *PassManager) TranslateOnly(ctx context.Context, c *circuit.Circuit) (*circuit.Circuit, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.NumQubits > pm.cfg.Backend.NumQubits() {
		return nil, fmt.Errorf("%w: %d qubits on %d-qubit %s", ErrConfig, c.NumQubits,
			pm.cfg.Backend.NumQubits(), pm.cfg.Backend.Name)
	}
	commute := pm.cfg.Level >= 3
	return pm.runPasses(ctx, c, []pass{
		{"unroll", unroll},
		{"cancel_cx", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			cancelCX(c, commute)
			return c, nil
		}},
		{"translate_cx", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			return translateCX(c, pm.cfg.Backend), nil
		}},
		{"optimize_1q", func(c *circuit.Circuit) (*circuit.Circuit, error) {
			return optimize1q(c), nil
		}},
	})
}

// chooseLayout runs the layout trials and returns the layout whose forward
// routing needs the fewest SWAPs. Earlier trials win ties.
func (pm *PassManager) chooseLayout(ctx context.Context, c *circuit.Circuit) (*Layout, error) {
	b := pm.cfg.Backend
	if pm.cfg.InitialLayout != nil {
		return NewLayout(pm.cfg.InitialLayout, b.NumQubits()), nil
	}
	dag := circuit.NewDAG(c)
	rev := dag.Reverse()
	layoutRng := rand.New(rand.NewPCG(pm.cfg.Seed, layoutStream))

	var best *Layout
	bestSwaps := -1
	for trial := range pm.cfg.LayoutTrials {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var phys []int
		if trial == 0 {
			phys = denseLayout(c, b)
		} else {
			phys = randomLayout(c, b, layoutRng)
		}
		l := NewLayout(phys, b.NumQubits())
		rng := rand.New(rand.NewPCG(pm.cfg.Seed, routeStream+uint64(trial)+1))
		for range pm.cfg.LayoutIterations {
			fwd, err := pm.router.route(dag, l, rng)
			if err != nil {
				return nil, err
			}
			bwd, err := pm.router.route(rev, fwd.final, rng)
			if err != nil {
				return nil, err
			}
			l = bwd.final
		}
		score, err := pm.router.route(dag, l, rng)
		if err != nil {
			return nil, err
		}
		pm.logger.Debug("layout trial",
			zap.Int("trial", trial),
			zap.Int("swaps", score.swaps),
			zap.Ints("layout", l.VirtualToPhysical()))
		if bestSwaps < 0 || score.swaps < bestSwaps {
			best, bestSwaps = l, score.swaps
		}
	}
	return best, nil
}
