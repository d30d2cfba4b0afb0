// Package noise derives a gate and readout noise model from device
// calibration data.
//
// Each calibrated gate carries a thermal relaxation channel for its duration
// on every qubit it touches, followed by a depolarizing channel sized so the
// combined average gate error equals the calibrated error. Readout errors are
// classical bit flips applied to measured outcomes.
package noise

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"

	"nasscbench/internal/backend"
)

// Relaxation is the thermal relaxation of one qubit over one gate.
type Relaxation struct {
	// Gamma is the amplitude damping probability 1 - exp(-t/T1).
	Gamma float64
	// PhaseFlip is the pure dephasing Z-flip probability left after damping.
	PhaseFlip float64
}

// QuantumError is the noise attached to one gate on one qubit tuple.
type QuantumError struct {
	// Depolarizing is the probability of replacing the state by the maximally
	// mixed one, realised as a uniformly random Pauli on the gate's qubits.
	Depolarizing float64
	// Relax holds one entry per gate qubit, in gate order. Empty when the
	// gate has no duration.
	Relax []Relaxation
}

// IsIdeal reports whether the error does nothing.
func (e QuantumError) IsIdeal() bool {
	if e.Depolarizing > 0 {
		return false
	}
	for _, r := range e.Relax {
		if r.Gamma > 0 || r.PhaseFlip > 0 {
			return false
		}
	}
	return true
}

// ReadoutError is an asymmetric classical flip of a measured bit.
type ReadoutError struct {
	P01 float64 // P(read 1 | state 0)
	P10 float64 // P(read 0 | state 1)
}

type gateKey struct {
	name   string
	q0, q1 int
}

func key(name string, qubits []int) gateKey {
	k := gateKey{name: strings.ToLower(name), q0: -1, q1: -1}
	if len(qubits) > 0 {
		k.q0 = qubits[0]
	}
	if len(qubits) > 1 {
		k.q1 = qubits[1]
	}
	return k
}

// Model maps (gate, qubits) to quantum errors and qubits to readout errors.
// Gates without an entry are ideal.
type Model struct {
	BasisGates []string

	gates   map[gateKey]QuantumError
	readout map[int]ReadoutError
}

// Ideal returns a model with no errors.
func Ideal() *Model {
	return &Model{
		gates:   map[gateKey]QuantumError{},
		readout: map[int]ReadoutError{},
	}
}

// Options select the derived error channels. The zero value disables every
// channel; use DefaultOptions.
type Options struct {
	GateErrors    bool
	ThermalRelax  bool
	ReadoutErrors bool
	Logger        *zap.Logger
}

// DefaultOptions enables every channel, as the device would.
func DefaultOptions() Options {
	return Options{GateErrors: true, ThermalRelax: true, ReadoutErrors: true}
}

// FromBackend builds the noise model of a device from its calibration.
func FromBackend(b *backend.Backend, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := Ideal()
	m.BasisGates = slices.Clone(b.BasisGates)
	props := b.Props

	if opts.ReadoutErrors {
		for q, qp := range props.Qubits {
			if qp.ReadoutP01 > 0 || qp.ReadoutP10 > 0 {
				m.SetReadout(q, ReadoutError{P01: qp.ReadoutP01, P10: qp.ReadoutP10})
			}
		}
	}

	addGate := func(name string, qubits []int) {
		gp, ok := props.Gate(name, qubits...)
		if !ok {
			return
		}
		qe := QuantumError{}
		relaxFid := 1.0
		if opts.ThermalRelax && gp.Duration > 0 {
			procFid := 1.0
			for _, q := range qubits {
				qp := props.Qubits[q]
				qe.Relax = append(qe.Relax, thermalRelaxation(qp.T1, qp.T2, gp.Duration))
				procFid *= relaxationProcessFidelity(qp.T1, qp.T2, gp.Duration)
			}
			dim := math.Exp2(float64(len(qubits)))
			relaxFid = (dim*procFid + 1) / (dim + 1)
		}
		if opts.GateErrors {
			qe.Depolarizing = depolarizingParam(gp.Error, relaxFid, len(qubits))
		}
		if !qe.IsIdeal() {
			m.SetGateError(name, qubits, qe)
		}
	}

	for q := range props.Qubits {
		for _, name := range b.BasisGates {
			if name != "ecr" {
				addGate(name, []int{q})
			}
		}
	}
	if slices.Contains(b.BasisGates, "ecr") {
		for _, e := range b.Coupling.Edges() {
			addGate("ecr", []int{e.Control, e.Target})
		}
	}

	log.Debug("noise model built",
		zap.String("backend", b.Name),
		zap.Int("gate_errors", len(m.gates)),
		zap.Int("readout_errors", len(m.readout)))
	return m
}

// thermalRelaxation returns the damping and dephasing probabilities of a
// qubit idling for duration t. T2 is clamped to 2*T1.
func thermalRelaxation(t1, t2, t float64) Relaxation {
	if t1 <= 0 || math.IsInf(t1, 1) {
		return Relaxation{}
	}
	t2 = math.Min(t2, 2*t1)
	r := Relaxation{Gamma: 1 - math.Exp(-t/t1)}
	if t2 > 0 {
		// Coherence decays as exp(-t/T2); damping already accounts for
		// exp(-t/2T1) of it.
		pz := (1 - math.Exp(-t/t2+t/(2*t1))) / 2
		r.PhaseFlip = math.Max(pz, 0)
	}
	return r
}

// relaxationProcessFidelity is the process fidelity of the thermal
// relaxation channel for one qubit.
func relaxationProcessFidelity(t1, t2, t float64) float64 {
	if t1 <= 0 || math.IsInf(t1, 1) {
		return 1
	}
	t2 = math.Min(t2, 2*t1)
	return (1 + 2*math.Exp(-t/t2) + math.Exp(-t/t1)) / 4
}

// depolarizingParam returns the depolarizing probability that brings the
// average gate error up to gateErr given the relaxation fidelity already
// present. The result is capped at the fully depolarizing value.
func depolarizingParam(gateErr, relaxFid float64, numQubits int) float64 {
	if gateErr <= 0 {
		return 0
	}
	dim := math.Exp2(float64(numQubits))
	gateErr = math.Min(gateErr, dim/(dim+1))
	relaxInfid := 1 - relaxFid
	if gateErr <= relaxInfid {
		return 0
	}
	p := dim * (gateErr - relaxInfid) / (dim*relaxFid - 1)
	maxP := dim * dim / (dim*dim - 1)
	return math.Min(math.Max(p, 0), maxP)
}

// GateError returns the error attached to a gate on the given qubits.
func (m *Model) GateError(name string, qubits ...int) (QuantumError, bool) {
	qe, ok := m.gates[key(name, qubits)]
	return qe, ok
}

// SetGateError attaches an error to a gate on the given qubits.
func (m *Model) SetGateError(name string, qubits []int, qe QuantumError) {
	m.gates[key(name, qubits)] = qe
}

// Readout returns the readout error of a physical qubit.
func (m *Model) Readout(q int) (ReadoutError, bool) {
	re, ok := m.readout[q]
	return re, ok
}

// SetReadout sets the readout error of a physical qubit.
func (m *Model) SetReadout(q int, re ReadoutError) {
	m.readout[q] = re
}

// IsIdeal reports whether the model has no errors at all.
func (m *Model) IsIdeal() bool {
	return len(m.gates) == 0 && len(m.readout) == 0
}

// Restrict returns a copy of the model keyed on new qubit indices. qubits[i]
// is the physical qubit that becomes index i; entries on other qubits are
// dropped.
func (m *Model) Restrict(qubits []int) *Model {
	index := make(map[int]int, len(qubits))
	for i, q := range qubits {
		index[q] = i
	}
	out := Ideal()
	out.BasisGates = slices.Clone(m.BasisGates)
	for k, qe := range m.gates {
		n0, ok0 := index[k.q0]
		if !ok0 {
			continue
		}
		n1 := -1
		if k.q1 >= 0 {
			var ok1 bool
			if n1, ok1 = index[k.q1]; !ok1 {
				continue
			}
		}
		out.gates[gateKey{name: k.name, q0: n0, q1: n1}] = qe
	}
	for q, re := range m.readout {
		if n, ok := index[q]; ok {
			out.readout[n] = re
		}
	}
	return out
}

func (m *Model) String() string {
	return fmt.Sprintf("noise model (%d gate errors, %d readout errors, basis %v)",
		len(m.gates), len(m.readout), m.BasisGates)
}
