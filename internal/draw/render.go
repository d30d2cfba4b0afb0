// Package draw renders circuits as text diagrams for the terminal.
package draw

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nasscbench/internal/circuit"
)

// Options controls Circuit rendering.
type Options struct {
	Title string
	// Width wraps the diagram into pages no wider than Width characters.
	// Zero disables wrapping.
	Width int
	// Plain disables ANSI styling.
	Plain  bool
	Framed bool
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellGate
	cellControl
	cellTarget
	cellPass
	cellBarrier
)

type cellInfo struct {
	kind      cellKind
	gate      *circuit.Gate
	vertAbove bool
	vertBelow bool
}

// grid places each gate in the first column free on every row it spans.
// Only qubits that carry an operation get a row.
type grid struct {
	qubits []int
	cols   [][]cellInfo
}

func newGrid(c *circuit.Circuit) *grid {
	qubits := c.ActiveQubits()
	if len(qubits) == 0 {
		for q := range c.NumQubits {
			qubits = append(qubits, q)
		}
	}
	rowOf := make(map[int]int, len(qubits))
	for r, q := range qubits {
		rowOf[q] = r
	}
	g := &grid{qubits: qubits}
	next := make([]int, len(qubits))

	for i := range c.Gates {
		gate := &c.Gates[i]
		qs := gate.Qubits()
		lo, hi := 0, len(qubits)-1
		if len(qs) > 0 {
			lo, hi = rowOf[qs[0]], rowOf[qs[0]]
			for _, q := range qs[1:] {
				lo, hi = min(lo, rowOf[q]), max(hi, rowOf[q])
			}
		}
		col := 0
		for r := lo; r <= hi; r++ {
			col = max(col, next[r])
		}
		for len(g.cols) <= col {
			g.cols = append(g.cols, make([]cellInfo, len(qubits)))
		}
		for r := lo; r <= hi; r++ {
			next[r] = col + 1
			info := cellInfo{gate: gate, vertAbove: r > lo, vertBelow: r < hi}
			switch {
			case gate.Type == circuit.TypeBarrier:
				info = cellInfo{kind: cellBarrier, gate: gate}
			case len(qs) == 1:
				info.kind = cellGate
			case qubits[r] == gate.Control:
				info.kind = cellControl
			case qubits[r] == gate.Target:
				info.kind = cellTarget
			default:
				info.kind = cellPass
			}
			g.cols[col][r] = info
		}
	}
	return g
}

type painter struct{ plain bool }

func (p painter) paint(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// controlSymbol returns the wire symbol for the control qubit of a two-qubit gate.
func controlSymbol(gateType string) string {
	if gateType == circuit.TypeSwap {
		return "×"
	}
	return "●"
}

// targetSymbol returns the wire symbol for the target qubit of a two-qubit
// gate, or "" when the target is drawn as a box.
func targetSymbol(gateType string) string {
	switch gateType {
	case circuit.TypeCZ:
		return "●"
	case circuit.TypeSwap:
		return "×"
	case circuit.TypeCX:
		return "⊕"
	}
	return ""
}

func gateLabel(g *circuit.Gate) string {
	if g.Type == circuit.TypeMeasure {
		return fmt.Sprintf("M%d", g.Clbit)
	}
	return circuit.DisplayName(g.Type)
}

// renderCell returns 3 lines (top, mid, bot), each cellW characters wide.
func (p painter) renderCell(info cellInfo) (top, mid, bot string) {
	half := cellW / 2
	emptyRow := strings.Repeat(" ", cellW)
	vertRow := strings.Repeat(" ", half) + "│" + strings.Repeat(" ", cellW-half-1)
	dashL := strings.Repeat("─", half)
	dashR := strings.Repeat("─", cellW-half-1)

	top, bot = emptyRow, emptyRow
	if info.vertAbove {
		top = vertRow
	}
	if info.vertBelow {
		bot = vertRow
	}

	box := func(label string, style lipgloss.Style) {
		margin := (cellW - gateNameW - 2) / 2
		right := cellW - gateNameW - 2 - margin
		edgeL := strings.Repeat("─", gateNameW/2)
		edgeR := strings.Repeat("─", gateNameW-gateNameW/2-1)
		topEdge := strings.Repeat("─", gateNameW)
		if info.vertAbove {
			topEdge = edgeL + "┴" + edgeR
		}
		botEdge := strings.Repeat("─", gateNameW)
		if info.vertBelow {
			botEdge = edgeL + "┬" + edgeR
		}
		top = strings.Repeat(" ", margin) + p.paint(style, "┌"+topEdge+"┐") + strings.Repeat(" ", right)
		mid = strings.Repeat("─", margin) + p.paint(style, "┤"+padCenter(label, gateNameW)+"├") + strings.Repeat("─", right)
		bot = strings.Repeat(" ", margin) + p.paint(style, "└"+botEdge+"┘") + strings.Repeat(" ", right)
	}

	switch info.kind {
	case cellEmpty:
		mid = strings.Repeat("─", cellW)
	case cellBarrier:
		top, bot = vertRow, vertRow
		mid = dashL + p.paint(dimStyle, "│") + dashR
	case cellPass:
		top, bot = vertRow, vertRow
		mid = dashL + "┼" + dashR
	case cellControl:
		mid = dashL + p.paint(twoQubitStyle, controlSymbol(info.gate.Type)) + dashR
	case cellTarget:
		if sym := targetSymbol(info.gate.Type); sym != "" {
			mid = dashL + p.paint(twoQubitStyle, sym) + dashR
		} else {
			box(circuit.DisplayName(info.gate.Type), twoQubitStyle)
		}
	case cellGate:
		style := gateStyle
		if info.gate.Type == circuit.TypeMeasure {
			style = measureStyle
		}
		box(gateLabel(info.gate), style)
	}
	return top, mid, bot
}

// Circuit renders c as a wire diagram. Idle qubits are left out.
func Circuit(c *circuit.Circuit, opts Options) string {
	p := painter{plain: opts.Plain}
	g := newGrid(c)

	perPage := max(len(g.cols), 1)
	if opts.Width > 0 {
		perPage = max((opts.Width-labelW)/cellW, 1)
	}

	var pages []string
	for start := 0; start < len(g.cols) || start == 0; start += perPage {
		end := min(start+perPage, len(g.cols))
		var sb strings.Builder

		header := strings.Repeat(" ", labelW)
		for col := start; col < end; col++ {
			header += p.paint(dimStyle, padCenter(fmt.Sprint(col), cellW))
		}
		sb.WriteString(strings.TrimRight(header, " ") + "\n")

		for r, q := range g.qubits {
			topLine := strings.Repeat(" ", labelW)
			midLine := p.paint(qubitLabelStyle, fmt.Sprintf("%-6s", fmt.Sprintf("q[%d]", q))) + "──"
			botLine := strings.Repeat(" ", labelW)
			for col := start; col < end; col++ {
				top, mid, bot := p.renderCell(g.cols[col][r])
				topLine += top
				midLine += mid
				botLine += bot
			}
			sb.WriteString(topLine + "\n")
			sb.WriteString(midLine + "\n")
			sb.WriteString(botLine + "\n")
		}
		pages = append(pages, strings.TrimRight(sb.String(), "\n"))
		if end >= len(g.cols) {
			break
		}
	}

	out := strings.Join(pages, "\n\n")
	if opts.Title != "" {
		out = p.paint(titleStyle, opts.Title) + "\n\n" + out
	}
	if opts.Framed {
		out = frameStyle.Render(out)
	}
	return out
}

// Columns returns the number of diagram columns c occupies.
func Columns(c *circuit.Circuit) int {
	return len(newGrid(c).cols)
}
