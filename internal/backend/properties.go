package backend

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrOverride is returned for a property override that names a qubit or
// coupling the device does not have.
var ErrOverride = errors.New("invalid property override")

// Default calibration durations, in seconds.
const (
	SingleQubitDuration = 60e-9
	ECRDuration         = 660e-9
	MeasureDuration     = 1300e-9
)

// QubitProperties holds the calibration of one physical qubit. Times are in
// seconds.
type QubitProperties struct {
	T1 float64
	T2 float64
	// ReadoutP01 is P(measure 1 | prepared 0), ReadoutP10 is P(measure 0 | prepared 1).
	ReadoutP01    float64
	ReadoutP10    float64
	ReadoutLength float64
}

// ReadoutError returns the mean assignment error.
func (q QubitProperties) ReadoutError() float64 {
	return (q.ReadoutP01 + q.ReadoutP10) / 2
}

// GateProperties holds the calibrated error and duration of one gate on one
// qubit tuple.
type GateProperties struct {
	Error    float64
	Duration float64
}

type gateKey struct {
	name   string
	q0, q1 int
}

func newGateKey(name string, qubits []int) gateKey {
	k := gateKey{name: strings.ToLower(name), q0: -1, q1: -1}
	if len(qubits) > 0 {
		k.q0 = qubits[0]
	}
	if len(qubits) > 1 {
		k.q1 = qubits[1]
	}
	return k
}

// Properties is the calibration snapshot of a device.
type Properties struct {
	Qubits []QubitProperties
	gates  map[gateKey]GateProperties
}

// Gate returns the calibration of a gate on the given qubits, in order.
// Gates on uncalibrated tuples report false.
func (p *Properties) Gate(name string, qubits ...int) (GateProperties, bool) {
	gp, ok := p.gates[newGateKey(name, qubits)]
	return gp, ok
}

// SetGate stores the calibration of a gate.
func (p *Properties) SetGate(name string, qubits []int, gp GateProperties) {
	p.gates[newGateKey(name, qubits)] = gp
}

// NumGates returns the number of calibrated gate entries.
func (p *Properties) NumGates() int {
	return len(p.gates)
}

// DefaultProperties generates a deterministic calibration in the ranges
// published for Brisbane-class Eagle devices.
func DefaultProperties(cm *CouplingMap, seed uint64) *Properties {
	rng := rand.New(rand.NewPCG(seed, 0x6272697362616e65))
	uniform := func(lo, hi float64) float64 {
		return lo + (hi-lo)*rng.Float64()
	}
	clamp := func(v, lo, hi float64) float64 {
		return math.Max(lo, math.Min(hi, v))
	}

	p := &Properties{
		Qubits: make([]QubitProperties, cm.Size()),
		gates:  make(map[gateKey]GateProperties),
	}
	for q := range p.Qubits {
		t1 := clamp(220e-6+60e-6*rng.NormFloat64(), 60e-6, 400e-6)
		t2 := clamp(150e-6+50e-6*rng.NormFloat64(), 20e-6, 2*t1)
		ro := uniform(0.005, 0.04)
		p.Qubits[q] = QubitProperties{
			T1:            t1,
			T2:            t2,
			ReadoutP01:    ro * 0.8,
			ReadoutP10:    ro * 1.2,
			ReadoutLength: MeasureDuration,
		}

		e1 := uniform(1.5e-4, 5e-4)
		for _, name := range []string{"id", "sx", "x"} {
			p.SetGate(name, []int{q}, GateProperties{Error: e1, Duration: SingleQubitDuration})
		}
		p.SetGate("rz", []int{q}, GateProperties{})
		p.SetGate("measure", []int{q}, GateProperties{Error: ro, Duration: MeasureDuration})
	}
	for _, e := range cm.Edges() {
		p.SetGate("ecr", []int{e.Control, e.Target}, GateProperties{
			Error:    uniform(4e-3, 1.2e-2),
			Duration: ECRDuration,
		})
	}
	return p
}

// Overrides is the TOML form of a partial calibration. Every field is
// optional; omitted fields keep their generated value.
//
//	[[qubit]]
//	index = 3
//	t1_us = 180.0
//	readout_p01 = 0.012
//
//	[[gate]]
//	name = "ecr"
//	qubits = [3, 4]
//	error = 0.009
type Overrides struct {
	Qubit []QubitOverride `toml:"qubit"`
	Gate  []GateOverride  `toml:"gate"`
}

// QubitOverride overrides the calibration of one qubit.
type QubitOverride struct {
	Index      int      `toml:"index"`
	T1         *float64 `toml:"t1_us"`
	T2         *float64 `toml:"t2_us"`
	ReadoutP01 *float64 `toml:"readout_p01"`
	ReadoutP10 *float64 `toml:"readout_p10"`
}

// GateOverride overrides the calibration of one gate.
type GateOverride struct {
	Name     string   `toml:"name"`
	Qubits   []int    `toml:"qubits"`
	Error    *float64 `toml:"error"`
	Duration *float64 `toml:"duration_ns"`
}

// LoadOverrides decodes a TOML override file.
func LoadOverrides(path string) (*Overrides, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read properties %s: %w", path, err)
	}
	o := &Overrides{}
	md, err := toml.Decode(string(blob), o)
	if err != nil {
		return nil, fmt.Errorf("decode properties %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown keys %v in %s", ErrOverride, undecoded, path)
	}
	return o, nil
}

// Apply validates and applies overrides against the coupling map.
func (p *Properties) Apply(cm *CouplingMap, o *Overrides) error {
	for _, qo := range o.Qubit {
		if qo.Index < 0 || qo.Index >= len(p.Qubits) {
			return fmt.Errorf("%w: qubit %d", ErrOverride, qo.Index)
		}
		qp := &p.Qubits[qo.Index]
		if qo.T1 != nil {
			qp.T1 = *qo.T1 * 1e-6
		}
		if qo.T2 != nil {
			qp.T2 = *qo.T2 * 1e-6
		}
		if qo.ReadoutP01 != nil {
			qp.ReadoutP01 = *qo.ReadoutP01
		}
		if qo.ReadoutP10 != nil {
			qp.ReadoutP10 = *qo.ReadoutP10
		}
		if qp.T2 > 2*qp.T1 {
			return fmt.Errorf("%w: qubit %d has T2 %.3gs > 2*T1 %.3gs", ErrOverride, qo.Index, qp.T2, 2*qp.T1)
		}
	}
	for _, gov := range o.Gate {
		for _, q := range gov.Qubits {
			if q < 0 || q >= len(p.Qubits) {
				return fmt.Errorf("%w: %s on qubit %d", ErrOverride, gov.Name, q)
			}
		}
		if len(gov.Qubits) == 2 && !cm.HasDirected(gov.Qubits[0], gov.Qubits[1]) {
			return fmt.Errorf("%w: %s on %v is not a native coupling", ErrOverride, gov.Name, gov.Qubits)
		}
		gp, ok := p.Gate(gov.Name, gov.Qubits...)
		if !ok {
			return fmt.Errorf("%w: no calibrated %s on %v", ErrOverride, gov.Name, gov.Qubits)
		}
		if gov.Error != nil {
			gp.Error = *gov.Error
		}
		if gov.Duration != nil {
			gp.Duration = *gov.Duration * 1e-9
		}
		p.SetGate(gov.Name, slices.Clone(gov.Qubits), gp)
	}
	return nil
}
