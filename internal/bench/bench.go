// Package bench runs the fidelity benchmark end to end: build and bind the
// ansatz, transpile it for the device, sample both circuits under noise and
// export the top bitstrings.
package bench

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"nasscbench/internal/ansatz"
	"nasscbench/internal/backend"
	"nasscbench/internal/circuit"
	"nasscbench/internal/config"
	"nasscbench/internal/noise"
	"nasscbench/internal/report"
	"nasscbench/internal/sim"
	"nasscbench/internal/transpile"
)

// Circuit labels used in the CSV.
const (
	LabelOriginal   = "original"
	LabelTranspiled = "transpiled_"
)

// ErrTooManyParams is returned when the parameter vector is longer than the
// circuit's parameter list.
var ErrTooManyParams = errors.New("too many parameter values")

// Stage identifies a pipeline step.
type Stage int

const (
	StageBuild Stage = iota
	StageTranspile
	StageSimulateOriginal
	StageSimulateTranspiled
	StageExport
	StageDone
)

var stageNames = [...]string{
	StageBuild:              "build",
	StageTranspile:          "transpile",
	StageSimulateOriginal:   "simulate original",
	StageSimulateTranspiled: "simulate transpiled",
	StageExport:             "export",
	StageDone:               "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Event reports pipeline progress. Done and Total count trajectories during
// the simulation stages and are zero otherwise.
type Event struct {
	Stage Stage
	Done  int
	Total int
}

// Observer receives events. It may be called from worker goroutines.
type Observer func(Event)

// Report is everything a run produced.
type Report struct {
	Original         *circuit.Circuit
	Transpiled       *transpile.Result
	OriginalCounts   sim.Counts
	TranspiledCounts sim.Counts
	Rows             []report.Record
	Summary          *report.Summary
}

// Runner executes the benchmark for one configuration.
type Runner struct {
	cfg      *config.Config
	backend  *backend.Backend
	logger   *zap.Logger
	observer Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithObserver registers a progress observer.
func WithObserver(fn Observer) Option {
	return func(r *Runner) { r.observer = fn }
}

// WithBackend reuses an existing backend instead of building one from the
// configuration.
func WithBackend(b *backend.Backend) Option {
	return func(r *Runner) { r.backend = b }
}

// New validates cfg and prepares the device.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.backend == nil {
		b, err := NewBackend(cfg, r.logger)
		if err != nil {
			return nil, err
		}
		r.backend = b
	}
	return r, nil
}

// NewBackend builds the device described by cfg.
func NewBackend(cfg *config.Config, logger *zap.Logger) (*backend.Backend, error) {
	opts := []backend.Option{backend.WithSeed(cfg.Backend.Seed), backend.WithLogger(logger)}
	if cfg.Backend.PropertiesFile != "" {
		opts = append(opts, backend.WithPropertiesFile(cfg.Backend.PropertiesFile))
	}
	b, err := backend.FakeBrisbane(opts...)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	return b, nil
}

// Backend returns the device the runner targets.
func (r *Runner) Backend() *backend.Backend {
	return r.backend
}

func (r *Runner) emit(ev Event) {
	if r.observer != nil {
		r.observer(ev)
	}
}

// BuildCircuit builds the ansatz and binds the configured parameters. A
// short vector is padded with the unbound default.
func (r *Runner) BuildCircuit() (*circuit.Circuit, error) {
	c, err := ansatz.Build(r.cfg.Circuit.Excise)
	if err != nil {
		return nil, err
	}
	values := slices.Clone(r.cfg.Circuit.Params)
	if len(values) == 0 {
		values = ansatz.OptimalParams()
	}
	n := len(c.Parameters())
	switch {
	case len(values) > n:
		return nil, fmt.Errorf("%w: %d values for %d parameters", ErrTooManyParams, len(values), n)
	case len(values) < n:
		r.logger.Warn("binding missing parameters to default",
			zap.Int("parameters", n),
			zap.Int("values", len(values)),
			zap.Float64("default", r.cfg.Circuit.UnboundDefault))
		for len(values) < n {
			values = append(values, r.cfg.Circuit.UnboundDefault)
		}
	}
	return c.BindStrict(values)
}

// PassManager returns a pass manager configured from the routing section.
func (r *Runner) PassManager() (*transpile.PassManager, error) {
	tc := transpile.DefaultConfig(r.backend)
	tc.RoutingMethod = r.cfg.Routing.Method
	tc.Level = r.cfg.Routing.Level
	tc.Seed = r.cfg.Routing.Seed
	tc.LayoutTrials = r.cfg.Routing.LayoutTrials
	tc.InitialLayout = slices.Clone(r.cfg.Routing.InitialLayout)
	tc.FactorBlock = r.cfg.Routing.FactorBlock
	tc.FactorCommute0 = r.cfg.Routing.FactorCommute0
	tc.FactorCommute1 = r.cfg.Routing.FactorCommute1
	tc.Logger = r.logger
	return transpile.NewPassManager(tc)
}

// NoiseModel returns the device noise model, or an ideal one when noise is
// disabled.
func (r *Runner) NoiseModel() *noise.Model {
	if !r.cfg.Simulation.Noise {
		return noise.Ideal()
	}
	opts := noise.DefaultOptions()
	opts.Logger = r.logger
	return noise.FromBackend(r.backend, opts)
}

func (r *Runner) executor(model *noise.Model, stage Stage) *sim.Executor {
	opts := []sim.Option{
		sim.WithTrajectories(r.cfg.Simulation.Trajectories),
		sim.WithSeed(r.cfg.Simulation.Seed),
		sim.WithLogger(r.logger),
		sim.WithProgress(func(done, total int) {
			r.emit(Event{Stage: stage, Done: done, Total: total})
		}),
	}
	if r.cfg.Simulation.Workers > 0 {
		opts = append(opts, sim.WithWorkers(r.cfg.Simulation.Workers))
	}
	return sim.NewExecutor(model, opts...)
}

// RoutingLabel names the routing pass the way the plot titles do.
func RoutingLabel(method string) string {
	switch method {
	case transpile.RoutingNASSC:
		return "NASSCSwap"
	case transpile.RoutingSabre:
		return "SabreSwap"
	case transpile.RoutingBasic:
		return "BasicSwap"
	}
	return method
}

// Run executes the whole benchmark and writes the configured outputs. Empty
// output paths are skipped.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	cfg := r.cfg

	r.emit(Event{Stage: StageBuild})
	qc, err := r.BuildCircuit()
	if err != nil {
		return nil, fmt.Errorf("build circuit: %w", err)
	}
	r.logger.Info("circuit built",
		zap.Int("qubits", qc.NumQubits),
		zap.Int("gates", qc.Size()),
		zap.Int("depth", qc.Depth()))

	r.emit(Event{Stage: StageTranspile})
	pm, err := r.PassManager()
	if err != nil {
		return nil, err
	}
	res, err := pm.Run(ctx, qc)
	if err != nil {
		return nil, fmt.Errorf("transpile: %w", err)
	}

	model := r.NoiseModel()
	original := qc
	if cfg.Circuit.OriginalBasis {
		if original, err = pm.TranslateOnly(ctx, qc); err != nil {
			return nil, fmt.Errorf("translate original: %w", err)
		}
	}

	r.emit(Event{Stage: StageSimulateOriginal})
	origCounts, err := r.executor(model, StageSimulateOriginal).Run(ctx, original, cfg.Simulation.Shots)
	if err != nil {
		return nil, fmt.Errorf("simulate original: %w", err)
	}

	r.emit(Event{Stage: StageSimulateTranspiled})
	transCounts, err := r.executor(model, StageSimulateTranspiled).Run(ctx, res.Circuit, cfg.Simulation.Shots)
	if err != nil {
		return nil, fmt.Errorf("simulate transpiled: %w", err)
	}

	r.emit(Event{Stage: StageExport})
	rep := &Report{
		Original:         qc,
		Transpiled:       res,
		OriginalCounts:   origCounts,
		TranspiledCounts: transCounts,
	}
	k := cfg.Output.TopK
	topOrig := report.TopK(origCounts, k)
	topTrans := report.TopK(transCounts, k)
	for _, part := range []struct {
		label string
		top   []report.Entry
	}{
		{LabelOriginal, topOrig},
		{LabelTranspiled + cfg.Routing.Method, topTrans},
	} {
		rows, err := report.Records(part.label, part.top, cfg.Simulation.Shots)
		if err != nil {
			return nil, err
		}
		rep.Rows = append(rep.Rows, rows...)
	}

	s := report.NewSummary(r.backend.Name, cfg.Routing.Method, cfg.Routing.Seed, cfg.Simulation.Shots)
	s.Circuits = []report.CircuitSummary{
		{
			Label:         LabelOriginal,
			Qubits:        qc.NumQubits,
			Depth:         original.Depth(),
			Size:          original.Size(),
			TwoQubitGates: original.TwoQubitCount(),
			Ops:           original.CountOps(),
			Top:           topOrig,
		},
		{
			Label:         LabelTranspiled + cfg.Routing.Method,
			Qubits:        len(res.Circuit.ActiveQubits()),
			Depth:         res.Depth,
			Size:          res.Size,
			TwoQubitGates: res.TwoQubitGates,
			Swaps:         res.Swaps,
			Ops:           res.Ops,
			Top:           topTrans,
		},
	}
	s.Compare(origCounts, transCounts)
	s.ElapsedSeconds = time.Since(start).Seconds()
	rep.Summary = s

	if err := r.export(rep, topOrig, topTrans); err != nil {
		return nil, err
	}
	r.emit(Event{Stage: StageDone})
	r.logger.Info("benchmark complete",
		zap.String("run_id", s.RunID),
		zap.Float64("hellinger_fidelity", s.HellingerFidelity),
		zap.Float64("total_variation", s.TotalVariation),
		zap.Int("swaps", res.Swaps),
		zap.Duration("elapsed", time.Since(start)))
	return rep, nil
}

func (r *Runner) export(rep *Report, topOrig, topTrans []report.Entry) error {
	out := r.cfg.Output
	shots := r.cfg.Simulation.Shots
	if out.CSV != "" {
		if err := report.WriteCSVFile(out.CSV, rep.Rows); err != nil {
			return err
		}
	}
	if out.Plot != "" {
		panels := []report.Panel{
			{
				Title:   fmt.Sprintf("Original Circuit - Top-%d Bitstrings", out.TopK),
				Entries: topOrig,
				Shots:   shots,
			},
			{
				Title:   fmt.Sprintf("Transpiled Circuit (%s) - Top-%d Bitstrings", RoutingLabel(r.cfg.Routing.Method), out.TopK),
				Entries: topTrans,
				Shots:   shots,
			},
		}
		if err := report.PlotTopK(out.Plot, panels); err != nil {
			return err
		}
	}
	if out.Summary != "" {
		if err := rep.Summary.WriteJSON(out.Summary); err != nil {
			return err
		}
	}
	r.logger.Debug("outputs written",
		zap.String("csv", out.CSV),
		zap.String("plot", out.Plot),
		zap.String("summary", out.Summary))
	return nil
}
