package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasscbench/internal/config"
	"nasscbench/internal/report"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "nasscbench version dev (commit: none, built: unknown)\n", out)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nasscbench.yaml")
	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "shots: 8192")
	assert.Contains(t, out, "method: nassc")
}

func TestBackendCmd(t *testing.T) {
	out, err := execute(t, "backend", "--qubit", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "fake_brisbane (127 qubits, 144 couplings")
	assert.Contains(t, out, "qubit 0")
	assert.Contains(t, out, "ecr")

	_, err = execute(t, "backend", "--qubit", "500")
	assert.Error(t, err)
}

func TestTranspileCmd(t *testing.T) {
	qasm := filepath.Join(t.TempDir(), "mapped.qasm")
	out, err := execute(t, "transpile", "--json", "--layout-trials", "1", "--out", qasm)
	require.NoError(t, err)

	var stats transpileStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, "nassc", stats.Routing)
	assert.Len(t, stats.InitialLayout, 8)
	assert.Zero(t, stats.Ops["cx"])
	assert.Positive(t, stats.TwoQubitGates)

	data, err := os.ReadFile(qasm)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "OPENQASM 2.0;"))
	assert.Contains(t, string(data), "qreg q[127];")
}

func TestTranspileCmdFromQASM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bell.qasm")
	src := "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[2];\ncreg c[2];\nh q[0];\ncx q[0],q[1];\nmeasure q[0] -> c[0];\nmeasure q[1] -> c[1];\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	out, err := execute(t, "transpile", "--qasm", path, "--layout-trials", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "swaps:          0")
	assert.Contains(t, out, "two-qubit:      1 (logical 1)")
}

func TestDrawCmd(t *testing.T) {
	out, err := execute(t, "draw", "--plain", "--width", "0")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "8-qubit circuit\n"))
	assert.Contains(t, out, "q[7]")
	assert.NotContains(t, out, "q[8]")
}

func TestDrawCmdMarginals(t *testing.T) {
	out, err := execute(t, "draw", "--plain", "--width", "0", "--marginals")
	require.NoError(t, err)
	_, marginals, ok := strings.Cut(out, "\nideal marginals\n")
	require.True(t, ok, out)

	lines := strings.Split(strings.TrimSpace(marginals), "\n")
	require.Len(t, lines, 8)
	for i, line := range lines {
		var q int
		var p0, p1 float64
		_, err := fmt.Sscanf(strings.TrimSpace(line), "q[%d]  P(0)=%f  P(1)=%f", &q, &p0, &p1)
		require.NoError(t, err, line)
		assert.Equal(t, i, q)
		assert.InDelta(t, 1, p0+p1, 1e-3)
	}
}

func TestRunCmd(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "top.csv")
	png := filepath.Join(dir, "top.png")
	summary := filepath.Join(dir, "summary.json")
	out, err := execute(t, "run", "--no-tui",
		"--shots", "256", "--trajectories", "4", "--layout-trials", "1",
		"--csv", csv, "--plot", png, "--summary", summary)
	require.NoError(t, err)
	assert.Contains(t, out, "Fidelity analysis complete. Results saved to "+csv+" and "+png)
	assert.Contains(t, out, "transpiled_nassc")

	for _, p := range []string{csv, png} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	s, err := report.ReadSummary(summary)
	require.NoError(t, err)
	assert.Equal(t, 256, s.Shots)
	assert.Contains(t, out, s.RunID)
}

func TestApplyOverrides(t *testing.T) {
	newCmd := func(args ...string) *cobra.Command {
		cmd := newRunCmd(&app{})
		require.NoError(t, cmd.ParseFlags(args))
		return cmd
	}

	cfg := config.Default()
	require.NoError(t, applyOverrides(newCmd("--params", "pi/2, 0.5", "--routing", "sabre", "--seed", "3"), cfg))
	assert.InDeltaSlice(t, []float64{math.Pi / 2, 0.5}, cfg.Circuit.Params, 1e-12)
	assert.Equal(t, "sabre", cfg.Routing.Method)
	assert.Equal(t, uint64(3), cfg.Simulation.Seed)
	// Unset flags leave the configuration alone.
	assert.Equal(t, 8192, cfg.Simulation.Shots)

	assert.ErrorIs(t, applyOverrides(newCmd("--routing", "magic"), config.Default()), config.ErrInvalid)
	assert.Error(t, applyOverrides(newCmd("--params", "one,two"), config.Default()))
}
