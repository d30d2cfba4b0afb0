package ansatz

type opKind uint8

const (
	rxPlus opKind = iota
	rxMinus
	rzParam
	cnot
)

// entry is one placement in the column sequence. For cnot, a is the control
// and b the target; single-qubit entries leave b at -1.
type entry struct {
	op   opKind
	a, b int
}

// columns is the reference column sequence between the two barriers, in the
// 9-qubit index space.
var columns = []entry{
	{rxPlus, 0, -1}, {cnot, 0, 1}, {rzParam, 1, -1}, {cnot, 0, 1}, {rxPlus, 1, -1},
	{rxMinus, 0, -1}, {rxPlus, 0, -1}, {cnot, 0, 2}, {rzParam, 2, -1}, {cnot, 0, 2},
	{cnot, 1, 2}, {rxMinus, 0, -1}, {rzParam, 2, -1}, {rxPlus, 0, -1}, {cnot, 0, 4},
	{cnot, 0, 2}, {rzParam, 4, -1}, {rxMinus, 1, -1}, {rxPlus, 2, -1}, {cnot, 0, 4},
	{rxMinus, 0, -1}, {rxPlus, 1, -1}, {rxPlus, 0, -1}, {cnot, 1, 3}, {rzParam, 3, -1},
	{cnot, 0, 6}, {cnot, 1, 3}, {rzParam, 6, -1}, {rxMinus, 1, -1}, {cnot, 2, 3},
	{cnot, 0, 6}, {rxMinus, 0, -1}, {rxPlus, 1, -1}, {rzParam, 3, -1}, {rxPlus, 0, -1},
	{cnot, 1, 4}, {cnot, 2, 3}, {rzParam, 4, -1}, {rxMinus, 2, -1}, {rxPlus, 3, -1},
	{cnot, 0, 7}, {cnot, 1, 4}, {rzParam, 7, -1}, {rxMinus, 1, -1}, {rxPlus, 2, -1},
	{rxPlus, 1, -1}, {cnot, 2, 4}, {cnot, 0, 7}, {rxMinus, 0, -1}, {rzParam, 4, -1},
	{rxPlus, 0, -1}, {cnot, 1, 5}, {cnot, 2, 4}, {rzParam, 5, -1}, {rxMinus, 2, -1},
	{cnot, 3, 4}, {cnot, 0, 8}, {cnot, 1, 5}, {rzParam, 8, -1}, {rxMinus, 1, -1},
	{rxPlus, 2, -1}, {rzParam, 4, -1}, {rxPlus, 1, -1}, {cnot, 2, 5}, {cnot, 3, 4},
	{rzParam, 5, -1}, {cnot, 0, 8}, {rxMinus, 0, -1}, {rxMinus, 3, -1}, {rxPlus, 4, -1},
	{cnot, 1, 6}, {cnot, 2, 5}, {rzParam, 6, -1}, {rxMinus, 2, -1}, {rxPlus, 3, -1},
	{rxPlus, 2, -1}, {cnot, 3, 5}, {cnot, 1, 6}, {rxMinus, 1, -1}, {rzParam, 5, -1},
	{rxPlus, 1, -1}, {cnot, 2, 6}, {cnot, 3, 5}, {rzParam, 6, -1}, {rxMinus, 3, -1},
	{cnot, 4, 5}, {cnot, 1, 7}, {cnot, 2, 6}, {rzParam, 7, -1}, {rxMinus, 2, -1},
	{rxPlus, 3, -1}, {rzParam, 5, -1}, {rxPlus, 2, -1}, {cnot, 3, 6}, {cnot, 4, 5},
	{rzParam, 6, -1}, {cnot, 1, 7}, {rxMinus, 1, -1}, {rxMinus, 4, -1}, {rxPlus, 5, -1},
	{rxPlus, 1, -1}, {cnot, 2, 7}, {cnot, 3, 6}, {rzParam, 7, -1}, {rxMinus, 3, -1},
	{rxPlus, 4, -1}, {rxPlus, 3, -1}, {cnot, 4, 6}, {cnot, 1, 8}, {cnot, 2, 7},
	{rzParam, 8, -1}, {rxMinus, 2, -1}, {rzParam, 6, -1}, {rxPlus, 2, -1}, {cnot, 3, 7},
	{cnot, 4, 6}, {rzParam, 7, -1}, {cnot, 1, 8}, {rxMinus, 1, -1}, {rxMinus, 4, -1},
	{cnot, 5, 6}, {cnot, 2, 8}, {cnot, 3, 7}, {rzParam, 8, -1}, {rxMinus, 3, -1},
	{rxPlus, 4, -1}, {rzParam, 6, -1}, {rxPlus, 3, -1}, {cnot, 4, 7}, {cnot, 5, 6},
	{rzParam, 7, -1}, {cnot, 2, 8}, {rxMinus, 2, -1}, {rxMinus, 5, -1}, {rxPlus, 6, -1},
	{cnot, 3, 8}, {cnot, 4, 7}, {rzParam, 8, -1}, {rxMinus, 4, -1}, {rxPlus, 5, -1},
	{rxPlus, 4, -1}, {cnot, 5, 7}, {cnot, 3, 8}, {rxMinus, 3, -1}, {rzParam, 7, -1},
	{cnot, 4, 8}, {cnot, 5, 7}, {rzParam, 8, -1}, {rxMinus, 5, -1}, {cnot, 6, 7},
	{cnot, 4, 8}, {rxMinus, 4, -1}, {rxPlus, 5, -1}, {rzParam, 7, -1}, {cnot, 5, 8},
	{cnot, 6, 7}, {rzParam, 8, -1}, {rxMinus, 6, -1}, {cnot, 5, 8}, {rxMinus, 5, -1},
	{rxPlus, 6, -1}, {cnot, 6, 8}, {rzParam, 8, -1}, {cnot, 6, 8}, {rxMinus, 6, -1},
}
