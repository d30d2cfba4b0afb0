// Package backend models the simulated target device: its coupling map,
// basis gates and calibration.
package backend

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// BrisbaneBasis is the native gate set of Eagle r3 devices.
var BrisbaneBasis = []string{"ecr", "id", "rz", "sx", "x"}

// DefaultSeed seeds the generated calibration.
const DefaultSeed uint64 = 2023

// Backend is a simulated device.
type Backend struct {
	Name       string
	BasisGates []string
	Coupling   *CouplingMap
	Props      *Properties
}

type options struct {
	seed      uint64
	propsFile string
	logger    *zap.Logger
}

// Option configures FakeBrisbane.
type Option func(*options)

// WithSeed sets the calibration seed.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithPropertiesFile applies a TOML override file on top of the generated
// calibration.
func WithPropertiesFile(path string) Option {
	return func(o *options) { o.propsFile = path }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// FakeBrisbane returns the 127-qubit heavy-hex device.
func FakeBrisbane(opts ...Option) (*Backend, error) {
	o := options{seed: DefaultSeed, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	cm, err := NewCouplingMap(EagleQubits, EagleEdges())
	if err != nil {
		return nil, err
	}
	props := DefaultProperties(cm, o.seed)
	if o.propsFile != "" {
		ov, err := LoadOverrides(o.propsFile)
		if err != nil {
			return nil, err
		}
		if err := props.Apply(cm, ov); err != nil {
			return nil, err
		}
		o.logger.Info("applied calibration overrides",
			zap.String("file", o.propsFile),
			zap.Int("qubits", len(ov.Qubit)),
			zap.Int("gates", len(ov.Gate)))
	}

	b := &Backend{
		Name:       "fake_brisbane",
		BasisGates: BrisbaneBasis,
		Coupling:   cm,
		Props:      props,
	}
	o.logger.Debug("backend ready",
		zap.String("name", b.Name),
		zap.Int("qubits", cm.Size()),
		zap.Int("couplings", len(cm.Edges())),
		zap.Uint64("seed", o.seed))
	return b, nil
}

// NumQubits returns the number of physical qubits.
func (b *Backend) NumQubits() int {
	return b.Coupling.Size()
}

// SupportsGate reports whether name is a basis gate.
func (b *Backend) SupportsGate(name string) bool {
	return slices.Contains(b.BasisGates, name)
}

// NativeDirection returns the calibrated orientation of the coupling between
// a and c. The second result is false for uncoupled pairs.
func (b *Backend) NativeDirection(a, c int) (Edge, bool) {
	switch {
	case b.Coupling.HasDirected(a, c):
		return Edge{Control: a, Target: c}, true
	case b.Coupling.HasDirected(c, a):
		return Edge{Control: c, Target: a}, true
	}
	return Edge{}, false
}

// TwoQubitError returns the ECR error on the coupling between a and c in its
// native direction, or 1 when the pair is not coupled.
func (b *Backend) TwoQubitError(a, c int) float64 {
	e, ok := b.NativeDirection(a, c)
	if !ok {
		return 1
	}
	gp, _ := b.Props.Gate("ecr", e.Control, e.Target)
	return gp.Error
}

func (b *Backend) String() string {
	return fmt.Sprintf("%s (%d qubits, %d couplings, basis %v)",
		b.Name, b.NumQubits(), len(b.Coupling.Edges()), b.BasisGates)
}
