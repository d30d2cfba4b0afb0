// Package circuit holds the gate-level model of a quantum circuit: gates,
// symbolic parameters, binding, a dependency DAG and OpenQASM 2.0 I/O.
package circuit

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

var (
	// ErrTooManyValues is returned when binding more values than parameters.
	ErrTooManyValues = errors.New("more values than parameters")
	// ErrUnboundParameters is returned when a circuit still has symbolic angles.
	ErrUnboundParameters = errors.New("circuit has unbound parameters")
	// ErrQubitRange is returned when a gate references a qubit outside the register.
	ErrQubitRange = errors.New("qubit index out of range")
)

// Gate represents a quantum gate placed on the circuit.
type Gate struct {
	Type    string
	Target  int        // -1 for a barrier spanning all qubits
	Control int        // -1 if not a two-qubit gate
	Params  []float64  // bound angles
	Param   *Parameter // symbolic angle, nil once bound
	Clbit   int        // classical bit written by MEASURE, else -1
	Step    int        // position in program order
}

// Qubits returns the qubits the gate acts on, control first.
func (g Gate) Qubits() []int {
	if g.Control >= 0 {
		return []int{g.Control, g.Target}
	}
	if g.Target >= 0 {
		return []int{g.Target}
	}
	return nil
}

// References reports whether the gate references the given qubit.
// A full barrier references every qubit.
func (g Gate) References(qubit int) bool {
	if g.Type == TypeBarrier && g.Target < 0 {
		return true
	}
	return g.Target == qubit || g.Control == qubit
}

// IsDirective reports whether the gate is a barrier.
func (g Gate) IsDirective() bool {
	return g.Type == TypeBarrier
}

func (g Gate) String() string {
	var sb strings.Builder
	sb.WriteString(QASMName(g.Type))
	if g.Param != nil {
		fmt.Fprintf(&sb, "(%s)", g.Param.Name)
	} else if len(g.Params) > 0 {
		parts := make([]string, len(g.Params))
		for i, p := range g.Params {
			parts[i] = FormatParam(p)
		}
		fmt.Fprintf(&sb, "(%s)", strings.Join(parts, ","))
	}
	switch {
	case g.Type == TypeBarrier:
	case g.Type == TypeMeasure:
		fmt.Fprintf(&sb, " q[%d] -> c[%d]", g.Target, g.Clbit)
	case g.Control >= 0:
		fmt.Fprintf(&sb, " q[%d], q[%d]", g.Control, g.Target)
	default:
		fmt.Fprintf(&sb, " q[%d]", g.Target)
	}
	return sb.String()
}

// Circuit holds the quantum circuit state.
type Circuit struct {
	NumQubits int
	NumClbits int
	Gates     []Gate
	MaxSteps  int

	params []*Parameter
}

// New returns an empty circuit with the given register sizes.
func New(numQubits, numClbits int) *Circuit {
	return &Circuit{NumQubits: numQubits, NumClbits: numClbits}
}

func (c *Circuit) appendGate(g Gate) {
	g.Step = c.MaxSteps
	c.Gates = append(c.Gates, g)
	c.MaxSteps++
}

// AddGate appends a gate to the circuit.
func (c *Circuit) AddGate(gateType string, target int, control ...int) {
	ctrl := -1
	if len(control) > 0 {
		ctrl = control[0]
	}
	c.appendGate(Gate{Type: gateType, Target: target, Control: ctrl, Clbit: -1})
}

// AddParameterizedGate appends a gate with bound angles.
func (c *Circuit) AddParameterizedGate(gateType string, target int, params []float64, control ...int) {
	ctrl := -1
	if len(control) > 0 {
		ctrl = control[0]
	}
	c.appendGate(Gate{
		Type:    gateType,
		Target:  target,
		Control: ctrl,
		Params:  slices.Clone(params),
		Clbit:   -1,
	})
}

// NewParameter creates the next symbolic parameter, named p0, p1, ...
func (c *Circuit) NewParameter() *Parameter {
	p := &Parameter{Name: fmt.Sprintf("p%d", len(c.params)), Index: len(c.params)}
	c.params = append(c.params, p)
	return p
}

// AddSymbolicGate appends a single-angle gate whose angle is the parameter p.
func (c *Circuit) AddSymbolicGate(gateType string, target int, p *Parameter) {
	c.appendGate(Gate{Type: gateType, Target: target, Control: -1, Param: p, Clbit: -1})
}

// AddBarrier appends a barrier spanning all qubits.
func (c *Circuit) AddBarrier() {
	c.appendGate(Gate{Type: TypeBarrier, Target: -1, Control: -1, Clbit: -1})
}

// AddMeasure measures qubit into classical bit clbit.
func (c *Circuit) AddMeasure(qubit, clbit int) {
	if clbit >= c.NumClbits {
		c.NumClbits = clbit + 1
	}
	c.appendGate(Gate{Type: TypeMeasure, Target: qubit, Control: -1, Clbit: clbit})
}

// MeasureAll measures qubit i into classical bit i for every qubit.
func (c *Circuit) MeasureAll() {
	for q := range c.NumQubits {
		c.AddMeasure(q, q)
	}
}

// Append copies a gate onto the end of the circuit, keeping its parameter
// reference.
func (c *Circuit) Append(g Gate) {
	g.Params = slices.Clone(g.Params)
	if g.Type == TypeMeasure && g.Clbit >= c.NumClbits {
		c.NumClbits = g.Clbit + 1
	}
	c.appendGate(g)
}

// Parameters returns the unbound parameters in creation order.
func (c *Circuit) Parameters() []*Parameter {
	return slices.Clone(c.params)
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		NumQubits: c.NumQubits,
		NumClbits: c.NumClbits,
		Gates:     make([]Gate, len(c.Gates)),
		MaxSteps:  c.MaxSteps,
		params:    slices.Clone(c.params),
	}
	for i, g := range c.Gates {
		g.Params = slices.Clone(g.Params)
		out.Gates[i] = g
	}
	return out
}

// CopyEmpty returns a circuit with the same registers and no gates.
func (c *Circuit) CopyEmpty() *Circuit {
	return &Circuit{NumQubits: c.NumQubits, NumClbits: c.NumClbits}
}

// Bind assigns values to the parameters in creation order and returns the
// bound circuit. The receiver is not modified. Parameters beyond len(values)
// stay unbound.
func (c *Circuit) Bind(values []float64) (*Circuit, error) {
	if len(values) > len(c.params) {
		return nil, fmt.Errorf("%w: %d values for %d parameters", ErrTooManyValues, len(values), len(c.params))
	}
	bound := make(map[*Parameter]float64, len(values))
	for i, v := range values {
		bound[c.params[i]] = v
	}
	out := c.Clone()
	for i := range out.Gates {
		g := &out.Gates[i]
		if g.Param == nil {
			continue
		}
		if v, ok := bound[g.Param]; ok {
			g.Params = []float64{v}
			g.Param = nil
		}
	}
	out.params = slices.Clone(c.params[len(values):])
	return out, nil
}

// BindStrict is Bind that also rejects leftover parameters.
func (c *Circuit) BindStrict(values []float64) (*Circuit, error) {
	out, err := c.Bind(values)
	if err != nil {
		return nil, err
	}
	if len(out.params) > 0 {
		return nil, fmt.Errorf("%w: %d of %d left", ErrUnboundParameters, len(out.params), len(c.params))
	}
	return out, nil
}

// Validate checks qubit and classical bit ranges and that every angle is bound.
func (c *Circuit) Validate() error {
	for _, g := range c.Gates {
		for _, q := range g.Qubits() {
			if q < 0 || q >= c.NumQubits {
				return fmt.Errorf("%w: %s on %d-qubit circuit", ErrQubitRange, g, c.NumQubits)
			}
		}
		if g.Type == TypeMeasure && (g.Clbit < 0 || g.Clbit >= c.NumClbits) {
			return fmt.Errorf("%w: clbit %d of %d", ErrQubitRange, g.Clbit, c.NumClbits)
		}
		if g.Param != nil {
			return fmt.Errorf("%w: %s", ErrUnboundParameters, g.Param.Name)
		}
	}
	return nil
}

// RemoveGatesOnQubit removes all gates that reference the given qubit index.
// Full barriers are kept. Parameters no longer used by any gate are dropped
// and the survivors renumbered p0, p1, ... in creation order.
func (c *Circuit) RemoveGatesOnQubit(qubit int) {
	c.Gates = slices.DeleteFunc(c.Gates, func(g Gate) bool {
		return g.Type != TypeBarrier && g.References(qubit)
	})
	c.compact()
}

// compact renumbers gate steps and replaces the used parameters with fresh
// ones, so clones sharing the old parameters keep their names.
func (c *Circuit) compact() {
	used := make(map[*Parameter]bool)
	for _, g := range c.Gates {
		if g.Param != nil {
			used[g.Param] = true
		}
	}
	fresh := make(map[*Parameter]*Parameter, len(used))
	var params []*Parameter
	for _, p := range c.params {
		if !used[p] {
			continue
		}
		np := &Parameter{Name: fmt.Sprintf("p%d", len(params)), Index: len(params)}
		fresh[p] = np
		params = append(params, np)
	}
	c.params = params
	for i := range c.Gates {
		g := &c.Gates[i]
		g.Step = i
		if np, ok := fresh[g.Param]; ok {
			g.Param = np
		}
	}
	c.MaxSteps = len(c.Gates)
}

// Remap rewrites every qubit index through layout (old index -> new index)
// and resizes the register to numQubits.
func (c *Circuit) Remap(layout map[int]int, numQubits int) (*Circuit, error) {
	out := c.Clone()
	out.NumQubits = numQubits
	for i := range out.Gates {
		g := &out.Gates[i]
		if g.Target >= 0 {
			nt, ok := layout[g.Target]
			if !ok {
				return nil, fmt.Errorf("%w: no mapping for qubit %d", ErrQubitRange, g.Target)
			}
			g.Target = nt
		}
		if g.Control >= 0 {
			nc, ok := layout[g.Control]
			if !ok {
				return nil, fmt.Errorf("%w: no mapping for qubit %d", ErrQubitRange, g.Control)
			}
			g.Control = nc
		}
	}
	return out, nil
}

// Size returns the number of non-directive operations.
func (c *Circuit) Size() int {
	n := 0
	for _, g := range c.Gates {
		if !g.IsDirective() {
			n++
		}
	}
	return n
}

// Depth returns the length of the critical path, ignoring barriers.
func (c *Circuit) Depth() int {
	level := make([]int, c.NumQubits)
	depth := 0
	for _, g := range c.Gates {
		if g.IsDirective() {
			continue
		}
		qs := g.Qubits()
		d := 0
		for _, q := range qs {
			d = max(d, level[q])
		}
		d++
		for _, q := range qs {
			level[q] = d
		}
		depth = max(depth, d)
	}
	return depth
}

// CountOps returns the number of operations per QASM gate name.
func (c *Circuit) CountOps() map[string]int {
	ops := make(map[string]int)
	for _, g := range c.Gates {
		ops[QASMName(g.Type)]++
	}
	return ops
}

// TwoQubitCount returns the number of two-qubit gates.
func (c *Circuit) TwoQubitCount() int {
	n := 0
	for _, g := range c.Gates {
		if g.Control >= 0 {
			n++
		}
	}
	return n
}

// ActiveQubits returns the sorted qubits touched by at least one operation.
func (c *Circuit) ActiveQubits() []int {
	seen := make(map[int]bool)
	for _, g := range c.Gates {
		for _, q := range g.Qubits() {
			seen[q] = true
		}
	}
	qs := make([]int, 0, len(seen))
	for q := range seen {
		qs = append(qs, q)
	}
	sort.Ints(qs)
	return qs
}

// FormatOps renders op counts as "cx:12 rz:40" sorted by name.
func FormatOps(ops map[string]int) string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, ops[name])
	}
	return strings.Join(parts, " ")
}
