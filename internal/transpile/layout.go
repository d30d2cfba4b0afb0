package transpile

import (
	"math"
	"math/rand/v2"
	"slices"

	"nasscbench/internal/backend"
	"nasscbench/internal/circuit"
)

// Layout is a bijection between virtual and physical qubits. Physical
// qubits without a virtual qubit hold -1.
type Layout struct {
	v2p []int
	p2v []int
}

// NewLayout returns a layout placing virtual qubit i on phys[i].
func NewLayout(phys []int, numPhysical int) *Layout {
	l := &Layout{v2p: slices.Clone(phys), p2v: make([]int, numPhysical)}
	for p := range l.p2v {
		l.p2v[p] = -1
	}
	for v, p := range phys {
		l.p2v[p] = v
	}
	return l
}

// Physical returns the physical qubit holding virtual qubit v.
func (l *Layout) Physical(v int) int {
	return l.v2p[v]
}

// Virtual returns the virtual qubit on physical qubit p, or -1.
func (l *Layout) Virtual(p int) int {
	return l.p2v[p]
}

// Swap exchanges the contents of two physical qubits.
func (l *Layout) Swap(a, b int) {
	va, vb := l.p2v[a], l.p2v[b]
	l.p2v[a], l.p2v[b] = vb, va
	if va >= 0 {
		l.v2p[va] = b
	}
	if vb >= 0 {
		l.v2p[vb] = a
	}
}

// Copy returns an independent copy.
func (l *Layout) Copy() *Layout {
	return &Layout{v2p: slices.Clone(l.v2p), p2v: slices.Clone(l.p2v)}
}

// VirtualToPhysical returns the placement of every virtual qubit.
func (l *Layout) VirtualToPhysical() []int {
	return slices.Clone(l.v2p)
}

// interactionOrder lists the virtual qubits by descending two-qubit gate
// count, ties by index.
func interactionOrder(c *circuit.Circuit) []int {
	degree := make([]int, c.NumQubits)
	for _, g := range c.Gates {
		if g.Control >= 0 {
			degree[g.Control]++
			degree[g.Target]++
		}
	}
	order := make([]int, c.NumQubits)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return degree[b] - degree[a]
	})
	return order
}

// denseLayout picks the connected set of physical qubits with the lowest
// combined two-qubit and readout error, grown greedily from every start
// qubit, and places the most connected virtual qubits on its most connected
// physical qubits.
func denseLayout(c *circuit.Circuit, b *backend.Backend) []int {
	cm := b.Coupling
	n := c.NumQubits
	cost := func(set []int) float64 {
		in := make(map[int]bool, len(set))
		for _, q := range set {
			in[q] = true
		}
		total := 0.0
		for _, q := range set {
			total += b.Props.Qubits[q].ReadoutError()
			for _, nb := range cm.Neighbors(q) {
				if in[nb] && q < nb {
					total += b.TwoQubitError(q, nb)
				}
			}
		}
		// Internal edges count in favour of the set.
		edges := 0
		for _, q := range set {
			for _, nb := range cm.Neighbors(q) {
				if in[nb] {
					edges++
				}
			}
		}
		return total - 0.05*float64(edges/2)
	}

	var best []int
	bestCost := math.Inf(1)
	for start := range cm.Size() {
		set := []int{start}
		in := map[int]bool{start: true}
		for len(set) < n {
			next, nextErr := -1, math.Inf(1)
			for _, q := range set {
				for _, nb := range cm.Neighbors(q) {
					if in[nb] {
						continue
					}
					e := b.TwoQubitError(q, nb) + b.Props.Qubits[nb].ReadoutError()
					if e < nextErr || (e == nextErr && nb < next) {
						next, nextErr = nb, e
					}
				}
			}
			if next < 0 {
				break
			}
			set = append(set, next)
			in[next] = true
		}
		if len(set) < n {
			continue
		}
		if cc := cost(set); cc < bestCost {
			best, bestCost = set, cc
		}
	}

	if best == nil {
		for q := range n {
			best = append(best, q)
		}
	}

	// Most connected physical qubits first.
	inBest := make(map[int]bool, len(best))
	for _, q := range best {
		inBest[q] = true
	}
	internal := func(q int) int {
		d := 0
		for _, nb := range cm.Neighbors(q) {
			if inBest[nb] {
				d++
			}
		}
		return d
	}
	slices.SortStableFunc(best, func(a, b int) int {
		return internal(b) - internal(a)
	})

	phys := make([]int, n)
	for i, v := range interactionOrder(c) {
		phys[v] = best[i]
	}
	return phys
}

// randomLayout places the virtual qubits on a random connected region.
func randomLayout(c *circuit.Circuit, b *backend.Backend, rng *rand.Rand) []int {
	cm := b.Coupling
	n := c.NumQubits
	start := rng.IntN(cm.Size())
	set := []int{start}
	in := map[int]bool{start: true}
	for len(set) < n {
		var frontier []int
		for _, q := range set {
			for _, nb := range cm.Neighbors(q) {
				if !in[nb] && !slices.Contains(frontier, nb) {
					frontier = append(frontier, nb)
				}
			}
		}
		if len(frontier) == 0 {
			for q := range cm.Size() {
				if !in[q] {
					frontier = append(frontier, q)
				}
			}
		}
		next := frontier[rng.IntN(len(frontier))]
		set = append(set, next)
		in[next] = true
	}
	rng.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
	return set[:n]
}
