package backend

// EagleQubits is the size of the 127-qubit Eagle heavy-hex lattice.
const EagleQubits = 127

// eagleRows are the inclusive qubit ranges of the seven horizontal chains.
var eagleRows = [][2]int{
	{0, 13}, {18, 32}, {37, 51}, {56, 70}, {75, 89}, {94, 108}, {113, 126},
}

// eagleBridges maps each bridge qubit to the chain qubits above and below it.
var eagleBridges = [][3]int{
	{14, 0, 18}, {15, 4, 22}, {16, 8, 26}, {17, 12, 30},
	{33, 20, 39}, {34, 24, 43}, {35, 28, 47}, {36, 32, 51},
	{52, 37, 56}, {53, 41, 60}, {54, 45, 64}, {55, 49, 68},
	{71, 58, 77}, {72, 62, 81}, {73, 66, 85}, {74, 70, 89},
	{90, 75, 94}, {91, 79, 98}, {92, 83, 102}, {93, 87, 106},
	{109, 96, 114}, {110, 100, 118}, {111, 104, 122}, {112, 108, 126},
}

// nativeEdge orients a pair the way the lattice's ECR calibrations run:
// low to high when the index sum is odd, high to low otherwise.
func nativeEdge(a, b int) Edge {
	lo, hi := min(a, b), max(a, b)
	if (lo+hi)%2 == 1 {
		return Edge{Control: lo, Target: hi}
	}
	return Edge{Control: hi, Target: lo}
}

// EagleEdges returns the 144 directed couplings of the Eagle lattice.
func EagleEdges() []Edge {
	var edges []Edge
	for _, row := range eagleRows {
		for q := row[0]; q < row[1]; q++ {
			edges = append(edges, nativeEdge(q, q+1))
		}
	}
	for _, br := range eagleBridges {
		edges = append(edges, nativeEdge(br[1], br[0]), nativeEdge(br[0], br[2]))
	}
	return edges
}
