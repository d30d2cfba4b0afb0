package transpile

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasscbench/internal/ansatz"
	"nasscbench/internal/backend"
	"nasscbench/internal/circuit"
	"nasscbench/internal/sim"
)

func brisbane(t *testing.T) *backend.Backend {
	t.Helper()
	b, err := backend.FakeBrisbane()
	require.NoError(t, err)
	return b
}

// tangled builds a five-qubit circuit whose interaction graph has a
// triangle, so it cannot be placed on heavy-hex without SWAPs.
func tangled() *circuit.Circuit {
	c := circuit.New(5, 5)
	for q := range 5 {
		c.AddGate(circuit.TypeH, q)
		c.AddParameterizedGate(circuit.TypeRY, q, []float64{0.3 + 0.2*float64(q)})
	}
	c.AddGate(circuit.TypeCX, 4, 0)
	c.AddGate(circuit.TypeCX, 3, 1)
	c.AddGate(circuit.TypeCZ, 0, 2)
	c.AddParameterizedGate(circuit.TypeRZ, 0, []float64{1.1})
	c.AddGate(circuit.TypeSwap, 4, 1)
	c.AddGate(circuit.TypeECR, 0, 3)
	c.AddGate(circuit.TypeCX, 2, 4)
	c.AddParameterizedGate(circuit.TypeRX, 2, []float64{-0.7})
	c.AddGate(circuit.TypeCX, 0, 4)
	c.AddBarrier()
	c.MeasureAll()
	return c
}

func assertSameDistribution(t *testing.T, want, got *circuit.Circuit) {
	t.Helper()
	pw, err := sim.Probabilities(want)
	require.NoError(t, err)
	pg, err := sim.Probabilities(got)
	require.NoError(t, err)
	keys := make(map[string]bool)
	for k := range pw {
		keys[k] = true
	}
	for k := range pg {
		keys[k] = true
	}
	for k := range keys {
		assert.InDelta(t, pw[k], pg[k], 1e-9, "outcome %s", k)
	}
}

func assertNative(t *testing.T, c *circuit.Circuit, b *backend.Backend) {
	t.Helper()
	for _, g := range c.Gates {
		switch {
		case g.IsDirective(), g.Type == circuit.TypeMeasure:
		case g.Control >= 0:
			require.Equal(t, circuit.TypeECR, g.Type, g.String())
			require.True(t, b.Coupling.HasDirected(g.Control, g.Target), g.String())
		default:
			require.True(t, b.SupportsGate(circuit.QASMName(g.Type)), g.String())
		}
	}
}

func TestRunPreservesDistribution(t *testing.T) {
	b := brisbane(t)
	for _, method := range []string{RoutingNASSC, RoutingSabre, RoutingBasic} {
		t.Run(method, func(t *testing.T) {
			cfg := DefaultConfig(b)
			cfg.RoutingMethod = method
			cfg.LayoutTrials = 3
			pm, err := NewPassManager(cfg)
			require.NoError(t, err)

			c := tangled()
			before := c.ToQASM()
			res, err := pm.Run(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, before, c.ToQASM(), "input modified")

			assert.Equal(t, backend.EagleQubits, res.Circuit.NumQubits)
			assert.Greater(t, res.Swaps, 0)
			assert.Len(t, res.InitialLayout, 5)
			assert.Len(t, res.FinalLayout, 5)
			assertNative(t, res.Circuit, b)
			assertSameDistribution(t, c, res.Circuit)
			assert.Equal(t, res.Circuit.TwoQubitCount(), res.TwoQubitGates)
			assert.Equal(t, res.TwoQubitGates, res.Ops["ecr"])
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	b := brisbane(t)
	run := func(seed uint64) *Result {
		cfg := DefaultConfig(b)
		cfg.Seed = seed
		cfg.LayoutTrials = 4
		pm, err := NewPassManager(cfg)
		require.NoError(t, err)
		res, err := pm.Run(context.Background(), tangled())
		require.NoError(t, err)
		return res
	}
	a, c := run(11), run(11)
	assert.Equal(t, a.Circuit.ToQASM(), c.Circuit.ToQASM())
	if diff := cmp.Diff(a.InitialLayout, c.InitialLayout); diff != "" {
		t.Errorf("layout differs between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, a.Swaps, c.Swaps)
}

func TestRunAnsatz(t *testing.T) {
	b := brisbane(t)
	bound, err := ansatz.Reduced().BindStrict(ansatz.OptimalParams())
	require.NoError(t, err)

	pm, err := NewPassManager(DefaultConfig(b))
	require.NoError(t, err)
	res, err := pm.Run(context.Background(), bound)
	require.NoError(t, err)

	assertNative(t, res.Circuit, b)
	assert.Equal(t, 8, res.Circuit.NumClbits)
	assert.Equal(t, 8, res.Ops["measure"])
	// Each logical CX costs one ECR, each SWAP at most three.
	cx := bound.CountOps()["cx"]
	assert.LessOrEqual(t, res.TwoQubitGates, cx+3*res.Swaps)
	assert.Positive(t, res.Depth)
}

func TestRunInitialLayout(t *testing.T) {
	b := brisbane(t)
	cfg := DefaultConfig(b)
	// Qubits 0, 1, 2 sit on a row: the chain needs no SWAP.
	cfg.InitialLayout = []int{0, 1, 2}
	pm, err := NewPassManager(cfg)
	require.NoError(t, err)

	c := circuit.New(3, 3)
	c.AddGate(circuit.TypeH, 0)
	c.AddGate(circuit.TypeCX, 1, 0)
	c.AddGate(circuit.TypeCX, 2, 1)
	c.MeasureAll()
	res, err := pm.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, res.InitialLayout)
	assert.Equal(t, 0, res.Swaps)
	assertSameDistribution(t, c, res.Circuit)

	_, err = pm.Run(context.Background(), circuit.New(2, 0))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRunErrors(t *testing.T) {
	b := brisbane(t)
	pm, err := NewPassManager(DefaultConfig(b))
	require.NoError(t, err)

	c := circuit.New(1, 0)
	c.AddSymbolicGate(circuit.TypeRZ, 0, c.NewParameter())
	_, err = pm.Run(context.Background(), c)
	assert.ErrorIs(t, err, circuit.ErrUnboundParameters)

	_, err = pm.Run(context.Background(), circuit.New(200, 0))
	assert.ErrorIs(t, err, ErrConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pm.Run(ctx, tangled())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslateOnly(t *testing.T) {
	b := brisbane(t)
	pm, err := NewPassManager(DefaultConfig(b))
	require.NoError(t, err)
	c := tangled()
	out, err := pm.TranslateOnly(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 5, out.NumQubits)
	for _, g := range out.Gates {
		if g.Control >= 0 {
			assert.Equal(t, circuit.TypeECR, g.Type)
		}
	}
	assertSameDistribution(t, c, out)
}

func TestConfigValidate(t *testing.T) {
	b := brisbane(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no backend", func(c *Config) { c.Backend = nil }},
		{"routing", func(c *Config) { c.RoutingMethod = "lookahead" }},
		{"level", func(c *Config) { c.Level = 2 }},
		{"basis not on device", func(c *Config) { c.BasisGates = append(c.BasisGates, "cz") }},
		{"basis missing ecr", func(c *Config) { c.BasisGates = []string{"rz", "sx", "x"} }},
		{"negative factor", func(c *Config) { c.FactorCommute1 = -1 }},
		{"no trials", func(c *Config) { c.LayoutTrials = 0 }},
		{"layout out of range", func(c *Config) { c.InitialLayout = []int{0, 127} }},
		{"layout repeats", func(c *Config) { c.InitialLayout = []int{4, 4} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(b)
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfig)
			_, err := NewPassManager(cfg)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
	cfg := DefaultConfig(b)
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.nasscEnabled())
	cfg.RoutingMethod = RoutingSabre
	assert.False(t, cfg.nasscEnabled())
}

func TestSynthesizeZSX(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 2))
	mats := []circuit.Matrix2{
		circuit.Identity2,
		circuit.RZMatrix(0.4),
		circuit.RXMatrix(math.Pi / 2),
		circuit.RXMatrix(math.Pi),
		circuit.RYMatrix(math.Pi),
		circuit.RYMatrix(-math.Pi / 2),
		{{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)}, {complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0)}},
	}
	for range 20 {
		mats = append(mats, circuit.UMatrix(rng.Float64()*math.Pi, rng.Float64()*2*math.Pi, rng.Float64()*2*math.Pi))
	}
	for i, m := range mats {
		run := synthesizeZSX(m, 3)
		assert.LessOrEqual(t, len(run), 5)
		got := circuit.Identity2
		for _, g := range run {
			assert.Equal(t, 3, g.Target)
			assert.Contains(t, []string{circuit.TypeRZ, circuit.TypeSX, circuit.TypeX}, g.Type)
			u, ok := circuit.Unitary(g)
			require.True(t, ok)
			got = u.Mul(got)
		}
		assert.True(t, got.EqualUpToPhase(m, 1e-9), "matrix %d: %v", i, run)
	}
	assert.Empty(t, synthesizeZSX(circuit.Identity2, 0))
	assert.Len(t, synthesizeZSX(circuit.RZMatrix(1), 0), 1)
	if run := synthesizeZSX(circuit.RXMatrix(math.Pi/2), 0); assert.Len(t, run, 1) {
		assert.Equal(t, circuit.TypeSX, run[0].Type)
	}
}

func TestOptimize1q(t *testing.T) {
	c := circuit.New(2, 2)
	c.AddGate(circuit.TypeH, 0)
	c.AddGate(circuit.TypeH, 0)
	c.AddGate(circuit.TypeSX, 1)
	c.AddGate(circuit.TypeH, 1)
	c.AddGate(circuit.TypeCX, 1, 0)
	c.AddParameterizedGate(circuit.TypeRZ, 1, []float64{0.5})
	c.AddGate(circuit.TypeX, 1)
	c.MeasureAll()

	out := optimize1q(c)
	ops := out.CountOps()
	assert.Equal(t, 1, ops["cx"])
	assert.Zero(t, ops["h"])
	// rz·x on qubit 1 is already native and minimal.
	assert.Equal(t, "rz(0.5) q[1]", out.Gates[len(out.Gates)-3].String())
	assertSameDistribution(t, c, out)
}

func TestCancelCX(t *testing.T) {
	build := func(between ...circuit.Gate) *circuit.Circuit {
		c := circuit.New(3, 0)
		c.AddGate(circuit.TypeCX, 1, 0)
		for _, g := range between {
			c.Append(g)
		}
		c.AddGate(circuit.TypeCX, 1, 0)
		return c
	}
	rz := circuit.Gate{Type: circuit.TypeRZ, Target: 0, Control: -1, Params: []float64{0.3}, Clbit: -1}
	rx := circuit.Gate{Type: circuit.TypeRX, Target: 1, Control: -1, Params: []float64{0.3}, Clbit: -1}
	h := circuit.Gate{Type: circuit.TypeH, Target: 1, Control: -1, Clbit: -1}
	sharedCtrl := circuit.Gate{Type: circuit.TypeCX, Control: 0, Target: 2, Clbit: -1}

	tests := []struct {
		name    string
		c       *circuit.Circuit
		commute bool
		removed int
	}{
		{"adjacent", build(), false, 2},
		{"rz on control", build(rz), true, 2},
		{"rz on control without commutation", build(rz), false, 0},
		{"rx on target", build(rx), true, 2},
		{"h on target", build(h), true, 0},
		{"cx sharing control", build(sharedCtrl), true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := tt.c.Clone()
			assert.Equal(t, tt.removed, cancelCX(tt.c, tt.commute))
			assertSameDistribution(t, orig, tt.c)
		})
	}
}

func TestFindCancellable(t *testing.T) {
	c := circuit.New(3, 0)
	c.AddGate(circuit.TypeCX, 1, 0)
	j, kind := findCancellable(c.Gates, len(c.Gates), 1, 0, true)
	assert.Equal(t, 0, j)
	assert.Equal(t, reduceBlock, kind)

	c.AddParameterizedGate(circuit.TypeRZ, 0, []float64{1})
	_, kind = findCancellable(c.Gates, len(c.Gates), 0, 1, true)
	assert.Equal(t, reduceCommute0, kind)
	_, kind = findCancellable(c.Gates, len(c.Gates), 0, 1, false)
	assert.Equal(t, reduceNone, kind)

	c.AddGate(circuit.TypeX, 1)
	j, kind = findCancellable(c.Gates, len(c.Gates), 0, 1, true)
	assert.Equal(t, 0, j)
	assert.Equal(t, reduceCommute1, kind)
	assert.Equal(t, "commute_1", kind.String())

	c.AddGate(circuit.TypeH, 0)
	j, kind = findCancellable(c.Gates, len(c.Gates), 0, 1, true)
	assert.Equal(t, -1, j)
	assert.Equal(t, reduceNone, kind)
}

func TestDecomposeSwapsMergesWithCX(t *testing.T) {
	b := brisbane(t)
	c := circuit.New(2, 0)
	c.AddGate(circuit.TypeCX, 0, 1)
	c.Append(circuit.Gate{Type: circuit.TypeSwap, Control: 0, Target: 1, Clbit: -1})

	out := decomposeSwaps(c, b, true)
	require.Len(t, out.Gates, 4)
	// The first CX of the SWAP repeats the preceding CX(1, 0).
	assert.Equal(t, out.Gates[0].Control, out.Gates[1].Control)
	assert.Equal(t, 2, cancelCX(out, true))
	assert.Equal(t, 2, out.TwoQubitCount())

	// Without a neighbour the outer CX follow the native direction.
	c = circuit.New(2, 0)
	c.Append(circuit.Gate{Type: circuit.TypeSwap, Control: 1, Target: 0, Clbit: -1})
	out = decomposeSwaps(c, b, true)
	e, ok := b.NativeDirection(0, 1)
	require.True(t, ok)
	assert.Equal(t, e.Control, out.Gates[0].Control)
	assert.Equal(t, e.Control, out.Gates[2].Control)
}

func TestTranslateCXDirection(t *testing.T) {
	b := brisbane(t)
	e, ok := b.NativeDirection(0, 1)
	require.True(t, ok)
	for _, dir := range [][2]int{{e.Control, e.Target}, {e.Target, e.Control}} {
		c := circuit.New(2, 2)
		c.AddGate(circuit.TypeH, 0)
		c.AddParameterizedGate(circuit.TypeRY, 1, []float64{0.4})
		c.AddGate(circuit.TypeCX, dir[1], dir[0])
		c.MeasureAll()

		out := optimize1q(translateCX(c, b))
		require.NoError(t, checkMapped(out, b))
		assertSameDistribution(t, c, out)
	}
}

func TestUnroll(t *testing.T) {
	c := circuit.New(2, 2)
	c.AddGate(circuit.TypeH, 0)
	c.AddParameterizedGate(circuit.TypeRY, 1, []float64{0.9})
	c.AddGate(circuit.TypeCZ, 1, 0)
	c.AddGate(circuit.TypeECR, 0, 1)
	c.Append(circuit.Gate{Type: circuit.TypeSwap, Control: 0, Target: 1, Clbit: -1})
	c.MeasureAll()

	out, err := unroll(c)
	require.NoError(t, err)
	for _, g := range out.Gates {
		if g.Control >= 0 {
			assert.Equal(t, circuit.TypeCX, g.Type)
		}
	}
	assert.Equal(t, 5, out.CountOps()["cx"])
	assertSameDistribution(t, c, out)

	c.Append(circuit.Gate{Type: "CCX", Target: 0, Control: -1, Clbit: -1})
	_, err = unroll(c)
	assert.ErrorIs(t, err, ErrUnsupportedGate)
}

func TestLayoutSwap(t *testing.T) {
	l := NewLayout([]int{5, 2}, 8)
	assert.Equal(t, 0, l.Virtual(5))
	assert.Equal(t, -1, l.Virtual(3))
	l.Swap(5, 3)
	assert.Equal(t, 3, l.Physical(0))
	assert.Equal(t, 0, l.Virtual(3))
	assert.Equal(t, -1, l.Virtual(5))
	cp := l.Copy()
	cp.Swap(3, 2)
	assert.Equal(t, []int{3, 2}, l.VirtualToPhysical())
	assert.Equal(t, []int{2, 3}, cp.VirtualToPhysical())
}

func TestDenseLayoutConnected(t *testing.T) {
	b := brisbane(t)
	bound, err := ansatz.Reduced().BindStrict(ansatz.OptimalParams())
	require.NoError(t, err)
	phys := denseLayout(bound, b)
	require.Len(t, phys, 8)
	assert.True(t, b.Coupling.IsConnectedSubset(phys))

	rng := rand.New(rand.NewPCG(1, 1))
	phys = randomLayout(bound, b, rng)
	require.Len(t, phys, 8)
	assert.True(t, b.Coupling.IsConnectedSubset(phys))
}

// line3 is a three-qubit path 0 - 1 - 2 with native direction 0->1, 1->2.
func line3(t *testing.T) *backend.Backend {
	t.Helper()
	cm, err := backend.NewCouplingMap(3, []backend.Edge{{Control: 0, Target: 1}, {Control: 1, Target: 2}})
	require.NoError(t, err)
	return &backend.Backend{Name: "line3", BasisGates: []string{"ecr", "rz", "sx", "x"}, Coupling: cm}
}

func swapPairs(gates []circuit.Gate) [][2]int {
	var out [][2]int
	for _, g := range gates {
		if g.Type == circuit.TypeSwap {
			out = append(out, [2]int{g.Control, g.Target})
		}
	}
	return out
}

// routeLine3 routes ry layer, cx(0,1) cx(0,2) cx(1,2) on line3 from the
// trivial layout and returns the routed gates and the CX count left after
// SWAP decomposition and cancellation.
func routeLine3(t *testing.T, mutate func(*Config)) ([]circuit.Gate, int) {
	t.Helper()
	b := line3(t)
	c := circuit.New(3, 3)
	for q, theta := range []float64{0.3, 0.9, 1.7} {
		c.AddParameterizedGate(circuit.TypeRY, q, []float64{theta})
	}
	c.AddGate(circuit.TypeCX, 1, 0)
	c.AddGate(circuit.TypeCX, 2, 0)
	c.AddGate(circuit.TypeCX, 2, 1)

	cfg := DefaultConfig(b)
	mutate(&cfg)
	rr, err := newRouter(&cfg).route(circuit.NewDAG(c), NewLayout([]int{0, 1, 2}, 3), rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)

	routed := circuit.New(3, 3)
	for _, g := range rr.gates {
		routed.Append(g)
	}
	out := decomposeSwaps(routed, b, true)
	cancelCX(out, true)

	// Virtual qubit v ends on physical rr.final.Physical(v).
	logical := c.Clone()
	for v := range 3 {
		logical.AddMeasure(v, v)
		out.AddMeasure(rr.final.Physical(v), v)
	}
	assertSameDistribution(t, logical, out)
	return rr.gates, out.CountOps()["cx"]
}

func TestNASSCBlockFactorChangesSwapChoice(t *testing.T) {
	sabre, sabreCX := routeLine3(t, func(c *Config) { c.RoutingMethod = RoutingSabre })
	nassc, nasscCX := routeLine3(t, func(c *Config) {})

	// The lookahead favours swapping (1, 2); the block factor makes NASSC
	// swap (0, 1) right after cx(0, 1) so the SWAP absorbs it.
	assert.Equal(t, [][2]int{{1, 2}}, swapPairs(sabre))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, swapPairs(nassc))
	assert.NotEqual(t, sabre, nassc)
	assert.Equal(t, 6, sabreCX)
	assert.Equal(t, 5, nasscCX)
	assert.Less(t, nasscCX, sabreCX)

	// Without the block factor NASSC scores like SABRE.
	plain, _ := routeLine3(t, func(c *Config) { c.EnableFactorBlock = false })
	assert.Equal(t, swapPairs(sabre), swapPairs(plain))
}

func TestCommutationCancellationByLevel(t *testing.T) {
	b := brisbane(t)
	e, ok := b.NativeDirection(0, 1)
	require.True(t, ok)

	c := circuit.New(2, 2)
	c.AddGate(circuit.TypeH, 0)
	c.AddParameterizedGate(circuit.TypeRY, 1, []float64{0.4})
	c.AddGate(circuit.TypeCX, e.Target, e.Control)
	// rz on the control commutes with the CX, so the pair cancels only with
	// commutation analysis.
	c.AddParameterizedGate(circuit.TypeRZ, e.Control, []float64{0.7})
	c.AddGate(circuit.TypeCX, e.Target, e.Control)
	c.MeasureAll()

	ecr := map[int]int{}
	for _, level := range []int{1, 3} {
		cfg := DefaultConfig(b)
		cfg.Level = level
		cfg.InitialLayout = []int{0, 1}
		pm, err := NewPassManager(cfg)
		require.NoError(t, err)
		res, err := pm.Run(context.Background(), c)
		require.NoError(t, err)
		assert.Zero(t, res.Swaps)
		assertNative(t, res.Circuit, b)
		assertSameDistribution(t, c, res.Circuit)
		ecr[level] = res.Ops["ecr"]
	}
	assert.Equal(t, 2, ecr[1])
	assert.Equal(t, 0, ecr[3])
}
