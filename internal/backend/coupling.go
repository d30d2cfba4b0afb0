package backend

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoPath is returned when two physical qubits are not connected.
var ErrNoPath = errors.New("no path between qubits")

// Edge is a directed coupling: the native two-qubit gate runs Control -> Target.
type Edge struct {
	Control int
	Target  int
}

// CouplingMap is the connectivity graph of a device. Each undirected pair
// appears once with its native direction.
type CouplingMap struct {
	numQubits int
	edges     []Edge
	adj       [][]int
	directed  map[[2]int]bool
	dist      [][]int
}

// NewCouplingMap builds a coupling map and precomputes all-pairs distances.
func NewCouplingMap(numQubits int, edges []Edge) (*CouplingMap, error) {
	cm := &CouplingMap{
		numQubits: numQubits,
		adj:       make([][]int, numQubits),
		directed:  make(map[[2]int]bool, len(edges)),
	}
	for _, e := range edges {
		if e.Control < 0 || e.Control >= numQubits || e.Target < 0 || e.Target >= numQubits || e.Control == e.Target {
			return nil, fmt.Errorf("invalid coupling %d->%d on %d qubits", e.Control, e.Target, numQubits)
		}
		if cm.directed[[2]int{e.Control, e.Target}] || cm.directed[[2]int{e.Target, e.Control}] {
			continue
		}
		cm.directed[[2]int{e.Control, e.Target}] = true
		cm.edges = append(cm.edges, e)
		cm.adj[e.Control] = append(cm.adj[e.Control], e.Target)
		cm.adj[e.Target] = append(cm.adj[e.Target], e.Control)
	}
	for q := range cm.adj {
		slices.Sort(cm.adj[q])
	}
	cm.dist = make([][]int, numQubits)
	for q := range numQubits {
		cm.dist[q] = cm.bfs(q)
	}
	return cm, nil
}

func (cm *CouplingMap) bfs(src int) []int {
	dist := make([]int, cm.numQubits)
	for i := range dist {
		dist[i] = -1
	}
	dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		for _, n := range cm.adj[q] {
			if dist[n] < 0 {
				dist[n] = dist[q] + 1
				queue = append(queue, n)
			}
		}
	}
	return dist
}

// Size returns the number of physical qubits.
func (cm *CouplingMap) Size() int {
	return cm.numQubits
}

// Edges returns the directed couplings.
func (cm *CouplingMap) Edges() []Edge {
	return slices.Clone(cm.edges)
}

// Neighbors returns the sorted neighbors of q.
func (cm *CouplingMap) Neighbors(q int) []int {
	return cm.adj[q]
}

// Connected reports whether a and b share a coupling in either direction.
func (cm *CouplingMap) Connected(a, b int) bool {
	return cm.directed[[2]int{a, b}] || cm.directed[[2]int{b, a}]
}

// HasDirected reports whether the native direction of the coupling is a -> b.
func (cm *CouplingMap) HasDirected(a, b int) bool {
	return cm.directed[[2]int{a, b}]
}

// Distance returns the hop count between a and b, or -1 if disconnected.
func (cm *CouplingMap) Distance(a, b int) int {
	return cm.dist[a][b]
}

// ShortestPath returns a shortest path from a to b, both endpoints included.
// Among equal-length paths the one through lower-numbered qubits wins.
func (cm *CouplingMap) ShortestPath(a, b int) ([]int, error) {
	if cm.dist[a][b] < 0 {
		return nil, fmt.Errorf("%w: %d and %d", ErrNoPath, a, b)
	}
	path := []int{a}
	for cur := a; cur != b; {
		for _, n := range cm.adj[cur] {
			if cm.dist[n][b] == cm.dist[cur][b]-1 {
				cur = n
				break
			}
		}
		path = append(path, cur)
	}
	return path, nil
}

// IsConnectedSubset reports whether the qubits induce a connected subgraph.
func (cm *CouplingMap) IsConnectedSubset(qubits []int) bool {
	if len(qubits) == 0 {
		return true
	}
	in := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		in[q] = true
	}
	seen := map[int]bool{qubits[0]: true}
	stack := []int{qubits[0]}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range cm.adj[q] {
			if in[n] && !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return len(seen) == len(in)
}
