package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var counts = map[string]int{
	"00000000": 900,
	"11111111": 1200,
	"10101010": 300,
	"01010101": 300,
	"00001111": 50,
	"11110000": 1,
	"00110011": 300,
}

func TestTopK(t *testing.T) {
	want := []Entry{
		{"11111111", 1200},
		{"00000000", 900},
		{"00110011", 300},
		{"01010101", 300},
		{"10101010", 300},
	}
	if diff := cmp.Diff(want, TopK(counts, 5)); diff != "" {
		t.Errorf("TopK mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, TopK(counts, 0), len(counts))
	assert.Len(t, TopK(map[string]int{"0": 3}, 5), 1)
	assert.Empty(t, TopK(nil, 5))
}

func TestRecordsAndCSV(t *testing.T) {
	rows, err := Records("original", TopK(counts, 2), 8192)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Record{Circuit: "original", Rank: 1, Bitstring: "11111111", Count: 1200, Probability: 1200.0 / 8192}, rows[0])
	assert.Equal(t, 2, rows[1].Rank)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	want := "circuit,rank,bitstring,count,probability\n" +
		"original,1,11111111,1200,0.146484375\n" +
		"original,2,00000000,900,0.10986328125\n"
	assert.Equal(t, want, buf.String())

	_, err = Records("x", nil, 0)
	assert.ErrorIs(t, err, ErrBadShots)
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows, err := Records("transpiled_nassc", TopK(counts, 5), 3051)
	require.NoError(t, err)
	require.NoError(t, WriteCSVFile(path, rows))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(data), "\n"))

	assert.Error(t, WriteCSVFile(filepath.Join(t.TempDir(), "missing", "out.csv"), rows))
}

func TestDistances(t *testing.T) {
	assert.InDelta(t, 1, HellingerFidelity(counts, counts), 1e-12)
	assert.InDelta(t, 0, TotalVariation(counts, counts), 1e-12)

	a := map[string]int{"0": 10}
	b := map[string]int{"1": 5}
	assert.Zero(t, HellingerFidelity(a, b))
	assert.InDelta(t, 1, TotalVariation(a, b), 1e-12)

	// Half the mass in common.
	c := map[string]int{"0": 5, "1": 5}
	assert.InDelta(t, 0.5, HellingerFidelity(a, c), 1e-12)
	assert.InDelta(t, 0.5, TotalVariation(a, c), 1e-12)
	assert.Zero(t, HellingerFidelity(nil, c))
}

func TestSummaryRoundTrip(t *testing.T) {
	s := NewSummary("fake_brisbane", "nassc", 11, 8192)
	s.Circuits = append(s.Circuits, CircuitSummary{Label: "original", Qubits: 8, Top: TopK(counts, 5)})
	s.Compare(counts, counts)

	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, s.WriteJSON(path))
	got, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, s.RunID, got.RunID)
	assert.InDelta(t, 1, got.HellingerFidelity, 1e-12)
	if diff := cmp.Diff(s.Circuits, got.Circuits); diff != "" {
		t.Errorf("circuits changed (-want +got):\n%s", diff)
	}

	require.NoError(t, os.WriteFile(path, []byte(`{"run_id":"nope"}`), 0o644))
	_, err = ReadSummary(path)
	assert.Error(t, err)
}

func TestTablePlain(t *testing.T) {
	rows, err := Records("original", TopK(counts, 2), 8192)
	require.NoError(t, err)
	out := Table(rows, true)
	assert.Contains(t, out, "bitstring")
	assert.Contains(t, out, "11111111")
	assert.Contains(t, out, "0.1465")
	assert.NotContains(t, out, "\x1b[")
	assert.Equal(t, 6, len(strings.Split(out, "\n")))
}

func TestPlotTopK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.png")
	panels := []Panel{
		{Title: "Original Circuit - Top-5 Bitstrings", Entries: TopK(counts, 5), Shots: 8192},
		{Title: "Transpiled Circuit (NASSCSwap) - Top-5 Bitstrings", Shots: 8192},
	}
	require.NoError(t, PlotTopK(path, panels))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))

	pl, err := newBarPlot(panels[0])
	require.NoError(t, err)
	assert.InDelta(t, 1200.0/8192+0.05, pl.Y.Max, 1e-12)
	empty, err := newBarPlot(panels[1])
	require.NoError(t, err)
	assert.InDelta(t, 0.1, empty.Y.Max, 1e-12)

	assert.Error(t, PlotTopK(path, nil))
	assert.ErrorIs(t, PlotTopK(path, []Panel{{Title: "x"}}), ErrBadShots)
}
