package transpile

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"nasscbench/internal/backend"
	"nasscbench/internal/circuit"
)

const scoreTol = 1e-10

// Swap units saved when a candidate SWAP merges with an earlier CX.
const (
	blockSaving   = 2.0 / 3.0
	commuteSaving = 1.0 / 3.0
)

// routeResult is the output of one routing sweep over a DAG.
type routeResult struct {
	gates []circuit.Gate
	swaps int
	final *Layout
}

// router inserts SWAPs so every two-qubit gate lands on a coupled pair.
type router struct {
	cfg *Config
	cm  *backend.CouplingMap
}

func newRouter(cfg *Config) *router {
	return &router{cfg: cfg, cm: cfg.Backend.Coupling}
}

// mapGate rewrites a virtual gate onto physical qubits.
func mapGate(g circuit.Gate, l *Layout) circuit.Gate {
	g.Params = slices.Clone(g.Params)
	if g.Target >= 0 {
		g.Target = l.Physical(g.Target)
	}
	if g.Control >= 0 {
		g.Control = l.Physical(g.Control)
	}
	return g
}

func (r *router) executable(g circuit.Gate, l *Layout) bool {
	if g.Control < 0 {
		return true
	}
	return r.cm.Connected(l.Physical(g.Control), l.Physical(g.Target))
}

// route walks the DAG front layer from the given layout, emitting gates on
// physical qubits and SWAPs where no front gate can run.
func (r *router) route(dag *circuit.DAG, start *Layout, rng *rand.Rand) (*routeResult, error) {
	l := start.Copy()
	indeg := dag.InDegrees()
	front := dag.FrontLayer()
	res := &routeResult{}

	decay := make([]float64, r.cm.Size())
	resetDecay := func() {
		for i := range decay {
			decay[i] = 1
		}
	}
	resetDecay()

	// Terminal measurements wait for the final layout so no SWAP lands on a
	// measured qubit.
	var deferred []circuit.Gate
	stall := 0
	sinceReset := 0
	valve := 10 * max(dag.NumQubits, 1)

	applySwap := func(x, y int) {
		l.Swap(x, y)
		res.gates = append(res.gates, circuit.Gate{Type: circuit.TypeSwap, Control: x, Target: y, Clbit: -1})
		res.swaps++
		decay[x] += r.cfg.DecayDelta
		decay[y] += r.cfg.DecayDelta
		sinceReset++
		if r.cfg.DecayReset > 0 && sinceReset%r.cfg.DecayReset == 0 {
			resetDecay()
		}
	}

	for len(front) > 0 {
		progressed := false
		for {
			ran := false
			var next []int
			for _, node := range front {
				g := dag.Gates[node]
				if !r.executable(g, l) {
					next = append(next, node)
					continue
				}
				ran = true
				if g.Type == circuit.TypeMeasure && len(dag.Successors(node)) == 0 {
					deferred = append(deferred, g)
				} else {
					res.gates = append(res.gates, mapGate(g, l))
				}
				for _, s := range dag.Successors(node) {
					indeg[s]--
					if indeg[s] == 0 {
						next = append(next, s)
					}
				}
			}
			front = next
			if !ran {
				break
			}
			progressed = true
		}
		if len(front) == 0 {
			break
		}
		if progressed {
			stall = 0
			resetDecay()
		}

		if stall >= valve {
			n, err := r.forceRoute(dag.Gates[front[0]], l, applySwap)
			if err != nil {
				return nil, err
			}
			stall = 0
			resetDecay()
			if n > 0 {
				continue
			}
		}

		x, y, err := r.bestSwap(dag, front, indeg, l, decay, res.gates, rng)
		if err != nil {
			return nil, err
		}
		applySwap(x, y)
		stall++
	}
	for _, g := range deferred {
		res.gates = append(res.gates, mapGate(g, l))
	}
	res.final = l
	return res, nil
}

// forceRoute walks the virtual qubits of g along a shortest path until they
// are adjacent.
func (r *router) forceRoute(g circuit.Gate, l *Layout, applySwap func(x, y int)) (int, error) {
	path, err := r.cm.ShortestPath(l.Physical(g.Control), l.Physical(g.Target))
	if err != nil {
		return 0, fmt.Errorf("route %s: %w", g, err)
	}
	n := 0
	for i := 0; i+2 < len(path); i++ {
		applySwap(path[i], path[i+1])
		n++
	}
	return n, nil
}

// candidateSwaps lists coupled pairs touching a qubit of a blocked gate.
func (r *router) candidateSwaps(dag *circuit.DAG, front []int, l *Layout) [][2]int {
	seen := make(map[[2]int]bool)
	var out [][2]int
	for _, node := range front {
		g := dag.Gates[node]
		if g.Control < 0 {
			continue
		}
		for _, v := range []int{g.Control, g.Target} {
			p := l.Physical(v)
			for _, nb := range r.cm.Neighbors(p) {
				pair := [2]int{min(p, nb), max(p, nb)}
				if !seen[pair] {
					seen[pair] = true
					out = append(out, pair)
				}
			}
		}
	}
	slices.SortFunc(out, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return out
}

// extendedSet collects up to ExtendedSetSize two-qubit gates that follow
// the front layer.
func (r *router) extendedSet(dag *circuit.DAG, front []int, indeg []int) []int {
	limit := r.cfg.ExtendedSetSize
	if limit == 0 || r.cfg.RoutingMethod == RoutingBasic {
		return nil
	}
	deg := make(map[int]int)
	queue := slices.Clone(front)
	var ext []int
	for len(queue) > 0 && len(ext) < limit {
		node := queue[0]
		queue = queue[1:]
		for _, s := range dag.Successors(node) {
			d, ok := deg[s]
			if !ok {
				d = indeg[s]
			}
			d--
			deg[s] = d
			if d != 0 {
				continue
			}
			queue = append(queue, s)
			if dag.Gates[s].Control >= 0 {
				ext = append(ext, s)
				if len(ext) == limit {
					break
				}
			}
		}
	}
	return ext
}

// distanceSum adds up the coupling distance of the two-qubit gates in nodes
// as if physical qubits x and y were exchanged.
func (r *router) distanceSum(dag *circuit.DAG, nodes []int, l *Layout, x, y int) (float64, int) {
	swapped := func(p int) int {
		switch p {
		case x:
			return y
		case y:
			return x
		}
		return p
	}
	total, count := 0.0, 0
	for _, node := range nodes {
		g := dag.Gates[node]
		if g.Control < 0 {
			continue
		}
		a, b := swapped(l.Physical(g.Control)), swapped(l.Physical(g.Target))
		total += float64(r.cm.Distance(a, b))
		count++
	}
	return total, count
}

// reduction returns the swap units saved by merging a SWAP on (x, y) with
// the CX gates already emitted.
func (r *router) reduction(out []circuit.Gate, x, y int) float64 {
	_, kind := findCancellable(out, len(out), x, y, true)
	switch kind {
	case reduceBlock:
		if r.cfg.EnableFactorBlock {
			return r.cfg.FactorBlock * blockSaving
		}
	case reduceCommute0:
		if r.cfg.EnableFactorCommute0 {
			return r.cfg.FactorCommute0 * commuteSaving
		}
	case reduceCommute1:
		if r.cfg.EnableFactorCommute1 {
			return r.cfg.FactorCommute1 * commuteSaving
		}
	}
	return 0
}

// bestSwap scores every candidate SWAP and picks the cheapest, breaking ties
// with rng.
func (r *router) bestSwap(dag *circuit.DAG, front, indeg []int, l *Layout, decay []float64,
	out []circuit.Gate, rng *rand.Rand) (int, int, error) {
	cands := r.candidateSwaps(dag, front, l)
	if len(cands) == 0 {
		return 0, 0, fmt.Errorf("route: %w: no candidate swaps", backend.ErrNoPath)
	}
	ext := r.extendedSet(dag, front, indeg)

	var best [][2]int
	bestScore := math.Inf(1)
	for _, c := range cands {
		x, y := c[0], c[1]
		hf, nf := r.distanceSum(dag, front, l, x, y)
		var score float64
		switch r.cfg.RoutingMethod {
		case RoutingBasic:
			score = hf
		default:
			score = hf / float64(nf)
			if he, ne := r.distanceSum(dag, ext, l, x, y); ne > 0 {
				score += r.cfg.LookaheadWeight * he / float64(ne)
			}
			score *= max(decay[x], decay[y])
			if r.cfg.nasscEnabled() {
				score -= r.reduction(out, x, y) / float64(nf)
			}
		}
		switch {
		case score < bestScore-scoreTol:
			best, bestScore = [][2]int{c}, score
		case math.Abs(score-bestScore) <= scoreTol:
			best = append(best, c)
		}
	}
	pick := best[rng.IntN(len(best))]
	return pick[0], pick[1], nil
}
