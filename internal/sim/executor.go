// Package sim runs circuits on a statevector simulator. Noise is sampled as
// quantum trajectories: each trajectory draws one realisation of every gate
// error, and shots are drawn from the resulting pure states.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nasscbench/internal/circuit"
	"nasscbench/internal/noise"
)

var (
	// ErrUnsupportedGate is returned for gate types the simulator cannot apply.
	ErrUnsupportedGate = errors.New("unsupported gate")
	// ErrTooManyQubits is returned when the active register exceeds the limit.
	ErrTooManyQubits = errors.New("too many active qubits")
	// ErrMidCircuitMeasure is returned when a qubit is used after measurement.
	ErrMidCircuitMeasure = errors.New("gate after measurement")
	// ErrNoShots is returned for a non-positive shot count.
	ErrNoShots = errors.New("shots must be positive")
)

// Defaults for NewExecutor.
const (
	DefaultTrajectories = 512
	DefaultMaxQubits    = 24
	DefaultSeed         = 11
)

// Counts maps bitstrings (classical bit n-1 first) to occurrences.
type Counts map[string]int

// Total returns the number of shots.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// ProgressFunc receives the number of finished trajectories.
type ProgressFunc func(done, total int)

// Executor samples circuits under a noise model.
type Executor struct {
	model        *noise.Model
	trajectories int
	workers      int
	seed         uint64
	maxQubits    int
	logger       *zap.Logger
	progress     ProgressFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithTrajectories sets the number of noise trajectories per run.
func WithTrajectories(n int) Option {
	return func(e *Executor) { e.trajectories = n }
}

// WithWorkers bounds the number of concurrent trajectories.
func WithWorkers(n int) Option {
	return func(e *Executor) { e.workers = n }
}

// WithSeed sets the sampling seed.
func WithSeed(seed uint64) Option {
	return func(e *Executor) { e.seed = seed }
}

// WithMaxQubits sets the largest active register the executor accepts.
func WithMaxQubits(n int) Option {
	return func(e *Executor) { e.maxQubits = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithProgress registers a progress callback. It is called from worker
// goroutines.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Executor) { e.progress = fn }
}

// NewExecutor returns an executor for the given noise model. A nil model is
// ideal.
func NewExecutor(model *noise.Model, opts ...Option) *Executor {
	if model == nil {
		model = noise.Ideal()
	}
	e := &Executor{
		model:        model,
		trajectories: DefaultTrajectories,
		workers:      runtime.GOMAXPROCS(0),
		seed:         DefaultSeed,
		maxQubits:    DefaultMaxQubits,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.trajectories = max(e.trajectories, 1)
	e.workers = max(e.workers, 1)
	return e
}

// measurement records which compact qubit lands in which classical bit.
type measurement struct {
	qubit int
	clbit int
}

// program is a circuit compacted onto its active qubits.
type program struct {
	gates     []circuit.Gate
	numQubits int
	numClbits int
	measures  []measurement
	model     *noise.Model
	noisy     bool
}

func (e *Executor) compile(c *circuit.Circuit) (*program, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	active := c.ActiveQubits()
	if len(active) > e.maxQubits {
		return nil, fmt.Errorf("%w: %d active, limit %d", ErrTooManyQubits, len(active), e.maxQubits)
	}
	index := make(map[int]int, len(active))
	for i, q := range active {
		index[q] = i
	}
	compact, err := c.Remap(index, len(active))
	if err != nil {
		return nil, err
	}

	p := &program{
		numQubits: len(active),
		numClbits: c.NumClbits,
		model:     e.model.Restrict(active),
	}
	measured := make([]bool, len(active))
	for _, g := range compact.Gates {
		switch {
		case g.Type == circuit.TypeBarrier:
			continue
		case g.Type == circuit.TypeMeasure:
			measured[g.Target] = true
			p.measures = append(p.measures, measurement{qubit: g.Target, clbit: g.Clbit})
			continue
		}
		for _, q := range g.Qubits() {
			if measured[q] {
				return nil, fmt.Errorf("%w: %s", ErrMidCircuitMeasure, g)
			}
		}
		p.gates = append(p.gates, g)
		if _, ok := p.model.GateError(circuit.QASMName(g.Type), g.Qubits()...); ok {
			p.noisy = true
		}
	}
	return p, nil
}

// Run samples shots from the circuit. Results are identical for a given seed
// and trajectory count regardless of the worker count.
func (e *Executor) Run(ctx context.Context, c *circuit.Circuit, shots int) (Counts, error) {
	if shots <= 0 {
		return nil, ErrNoShots
	}
	p, err := e.compile(c)
	if err != nil {
		return nil, err
	}

	numTraj := e.trajectories
	if !p.noisy {
		numTraj = 1
	}
	numTraj = min(numTraj, shots)

	start := time.Now()
	results := make([]Counts, numTraj)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range numTraj {
		n := shots / numTraj
		if i < shots%numTraj {
			n++
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(e.seed, uint64(i)))
			counts, err := p.trajectory(rng, n)
			if err != nil {
				return err
			}
			results[i] = counts
			if e.progress != nil {
				e.progress(int(done.Add(1)), numTraj)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := make(Counts)
	for _, r := range results {
		for k, v := range r {
			total[k] += v
		}
	}
	e.logger.Debug("sampled circuit",
		zap.Int("active_qubits", p.numQubits),
		zap.Int("gates", len(p.gates)),
		zap.Int("trajectories", numTraj),
		zap.Int("shots", shots),
		zap.Int("outcomes", len(total)),
		zap.Duration("elapsed", time.Since(start)))
	return total, nil
}

// trajectory evolves one noise realisation and samples n shots from it.
func (p *program) trajectory(rng *rand.Rand, n int) (Counts, error) {
	state, err := p.evolve(rng)
	if err != nil {
		return nil, err
	}
	cdf := state.Probabilities()
	for i := 1; i < len(cdf); i++ {
		cdf[i] += cdf[i-1]
	}
	last := cdf[len(cdf)-1]

	counts := make(Counts)
	buf := make([]byte, p.numClbits)
	for range n {
		r := rng.Float64() * last
		idx := sort.Search(len(cdf), func(i int) bool { return cdf[i] > r })
		idx = min(idx, len(cdf)-1)
		for i := range buf {
			buf[i] = '0'
		}
		for _, m := range p.measures {
			bit := byte('0')
			if idx&(1<<m.qubit) != 0 {
				bit = '1'
			}
			if re, ok := p.model.Readout(m.qubit); ok {
				bit = applyReadout(bit, re, rng)
			}
			buf[p.numClbits-1-m.clbit] = bit
		}
		counts[string(buf)]++
	}
	return counts, nil
}

// evolve applies every gate and, when rng is non-nil, its sampled error.
func (p *program) evolve(rng *rand.Rand) (*StateVector, error) {
	state := NewStateVector(p.numQubits)
	for _, g := range p.gates {
		if err := state.ApplyGate(g); err != nil {
			return nil, err
		}
		if rng == nil {
			continue
		}
		qubits := g.Qubits()
		if qe, ok := p.model.GateError(circuit.QASMName(g.Type), qubits...); ok {
			state.applyError(qe, qubits, rng)
		}
	}
	return state, nil
}

// Probabilities returns the exact noiseless distribution over classical
// bitstrings.
func Probabilities(c *circuit.Circuit) (map[string]float64, error) {
	e := NewExecutor(noise.Ideal())
	p, err := e.compile(c)
	if err != nil {
		return nil, err
	}
	state, err := p.evolve(nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	buf := []byte(strings.Repeat("0", p.numClbits))
	for idx, pr := range state.Probabilities() {
		if pr < 1e-15 {
			continue
		}
		for i := range buf {
			buf[i] = '0'
		}
		for _, m := range p.measures {
			if idx&(1<<m.qubit) != 0 {
				buf[p.numClbits-1-m.clbit] = '1'
			}
		}
		out[string(buf)] += pr
	}
	return out, nil
}

// Statevector returns the final state of a circuit without measurements,
// restricted to its active qubits, together with those qubits.
func Statevector(c *circuit.Circuit) (*StateVector, []int, error) {
	e := NewExecutor(noise.Ideal())
	p, err := e.compile(c)
	if err != nil {
		return nil, nil, err
	}
	state, err := p.evolve(nil)
	if err != nil {
		return nil, nil, err
	}
	return state, c.ActiveQubits(), nil
}
