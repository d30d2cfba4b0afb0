package circuit

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrQASMSyntax is returned for lines the parser does not understand.
var ErrQASMSyntax = errors.New("qasm syntax error")

// Pre-compiled regexps for QASM parsing.
var (
	singleGateRegex      = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\];?$`)
	singleGateParamRegex = regexp.MustCompile(`^(\w+)\s*\(\s*(` + paramPattern + `(?:\s*,\s*` + paramPattern + `)*)\s*\)\s+q\[(\d+)\];?$`)
	twoQubitRegex        = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\],\s*q\[(\d+)\];?$`)
	measureRegex         = regexp.MustCompile(`^measure\s+q\[(\d+)\]\s*->\s*(\w+)\[(\d+)\];?$`)
	qregRegex            = regexp.MustCompile(`qreg\s+(\w+)\[(\d+)\]`)
	cregRegex            = regexp.MustCompile(`creg\s+(\w+)\[(\d+)\]`)
)

// ToQASM generates OpenQASM 2.0 output from the circuit. Unbound parameters
// are written by name; ParseQASM rejects such output.
func (c *Circuit) ToQASM() string {
	numQubits := max(c.NumQubits, 1)
	numClbits := max(c.NumClbits, 1)

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", numQubits)
	fmt.Fprintf(&sb, "creg c[%d];\n\n", numClbits)

	for _, gate := range c.Gates {
		switch {
		case gate.Type == TypeBarrier:
			qubits := make([]string, numQubits)
			for q := range numQubits {
				qubits[q] = fmt.Sprintf("q[%d]", q)
			}
			fmt.Fprintf(&sb, "barrier %s;\n", strings.Join(qubits, ","))
		case gate.Type == TypeMeasure:
			fmt.Fprintf(&sb, "measure q[%d] -> c[%d];\n", gate.Target, gate.Clbit)
		case gate.Control >= 0:
			fmt.Fprintf(&sb, "%s q[%d],q[%d];\n", QASMName(gate.Type), gate.Control, gate.Target)
		case gate.Param != nil:
			fmt.Fprintf(&sb, "%s(%s) q[%d];\n", QASMName(gate.Type), gate.Param.Name, gate.Target)
		case len(gate.Params) > 0:
			parts := make([]string, len(gate.Params))
			for i, p := range gate.Params {
				parts[i] = FormatParam(p)
			}
			fmt.Fprintf(&sb, "%s(%s) q[%d];\n", QASMName(gate.Type), strings.Join(parts, ","), gate.Target)
		default:
			fmt.Fprintf(&sb, "%s q[%d];\n", QASMName(gate.Type), gate.Target)
		}
	}

	return sb.String()
}

// ParseQASM parses OpenQASM 2.0 text into a new circuit. Only the flat gate
// subset written by ToQASM is supported: one qreg, one creg, no custom gates
// and no classical conditions.
func ParseQASM(qasm string) (*Circuit, error) {
	c := &Circuit{}

	for lineNo, line := range strings.Split(qasm, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "OPENQASM") || strings.HasPrefix(line, "include") {
			continue
		}
		if strings.HasPrefix(line, "qreg") {
			if matches := qregRegex.FindStringSubmatch(line); matches != nil {
				n, _ := strconv.Atoi(matches[2])
				c.NumQubits = n
			}
			continue
		}
		if strings.HasPrefix(line, "creg") {
			if matches := cregRegex.FindStringSubmatch(line); matches != nil {
				n, _ := strconv.Atoi(matches[2])
				c.NumClbits = n
			}
			continue
		}
		if strings.HasPrefix(line, "barrier") {
			c.AddBarrier()
			continue
		}

		// Measurement: "measure q[0] -> c[0];"
		if matches := measureRegex.FindStringSubmatch(line); matches != nil {
			qubit, _ := strconv.Atoi(matches[1])
			clbit, _ := strconv.Atoi(matches[3])
			c.AddMeasure(qubit, clbit)
			continue
		}

		// Two-qubit gates: cx, cz, ecr, swap
		if matches := twoQubitRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			if !IsTwoQubit(gateType) {
				return nil, fmt.Errorf("%w: line %d: %q is not a two-qubit gate", ErrQASMSyntax, lineNo+1, matches[1])
			}
			qubit1, _ := strconv.Atoi(matches[2])
			qubit2, _ := strconv.Atoi(matches[3])
			c.AddGate(gateType, qubit2, qubit1)
			continue
		}

		// Single-qubit parameterized gates (RX, RY, RZ, P, U)
		if matches := singleGateParamRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			if gateType == "U3" {
				gateType = TypeU
			}
			params, err := ParseParamList(matches[2])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrQASMSyntax, lineNo+1, err)
			}
			if len(params) != NumParams(gateType) {
				return nil, fmt.Errorf("%w: line %d: %s takes %d angles, got %d",
					ErrQASMSyntax, lineNo+1, matches[1], NumParams(gateType), len(params))
			}
			target, _ := strconv.Atoi(matches[3])
			c.AddParameterizedGate(gateType, target, params)
			continue
		}

		// Single-qubit gate
		if matches := singleGateRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			if !Known(gateType) || IsParameterized(gateType) || IsTwoQubit(gateType) || gateType == TypeMeasure {
				return nil, fmt.Errorf("%w: line %d: unknown gate %q", ErrQASMSyntax, lineNo+1, matches[1])
			}
			target, _ := strconv.Atoi(matches[2])
			c.AddGate(gateType, target)
			continue
		}

		return nil, fmt.Errorf("%w: line %d: %q", ErrQASMSyntax, lineNo+1, line)
	}

	return c, nil
}
