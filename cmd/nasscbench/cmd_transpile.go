package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nasscbench/internal/bench"
	"nasscbench/internal/circuit"
	"nasscbench/internal/transpile"
)

// transpileStats is the JSON form of a transpile result.
type transpileStats struct {
	Routing       string         `json:"routing"`
	Swaps         int            `json:"swaps"`
	Depth         int            `json:"depth"`
	Size          int            `json:"size"`
	TwoQubitGates int            `json:"two_qubit_gates"`
	Ops           map[string]int `json:"ops"`
	InitialLayout []int          `json:"initial_layout"`
	FinalLayout   []int          `json:"final_layout"`
	ElapsedMS     float64        `json:"elapsed_ms"`
}

// loadCircuit returns the circuit named by --qasm, or the bound benchmark
// circuit.
func loadCircuit(cmd *cobra.Command, r *bench.Runner) (*circuit.Circuit, error) {
	path, _ := cmd.Flags().GetString("qasm")
	if path == "" {
		return r.BuildCircuit()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuit: %w", err)
	}
	return circuit.ParseQASM(string(data))
}

// transpileCircuit runs the configured pass manager on c.
func transpileCircuit(cmd *cobra.Command, r *bench.Runner, c *circuit.Circuit) (*transpile.Result, error) {
	pm, err := r.PassManager()
	if err != nil {
		return nil, err
	}
	return pm.Run(cmd.Context(), c)
}

func newTranspileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transpile",
		Short: "Transpile the circuit and print routing statistics",
		Long: `Maps the benchmark circuit (or a QASM file) onto the device and reports
SWAP count, depth, gate counts and layouts.

Examples:
  nasscbench transpile
  nasscbench transpile --routing sabre --json
  nasscbench transpile --qasm circuit.qasm --out mapped.qasm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			if err := applyOverrides(cmd, a.cfg); err != nil {
				return err
			}
			r, err := bench.New(a.cfg, bench.WithLogger(a.logger))
			if err != nil {
				return err
			}
			c, err := loadCircuit(cmd, r)
			if err != nil {
				return err
			}
			res, err := transpileCircuit(cmd, r, c)
			if err != nil {
				return err
			}

			if path, _ := cmd.Flags().GetString("out"); path != "" {
				if err := os.WriteFile(path, []byte(res.Circuit.ToQASM()), 0644); err != nil {
					return fmt.Errorf("failed to write QASM: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(transpileStats{
					Routing:       a.cfg.Routing.Method,
					Swaps:         res.Swaps,
					Depth:         res.Depth,
					Size:          res.Size,
					TwoQubitGates: res.TwoQubitGates,
					Ops:           res.Ops,
					InitialLayout: res.InitialLayout,
					FinalLayout:   res.FinalLayout,
					ElapsedMS:     float64(res.Elapsed.Microseconds()) / 1000,
				})
			}

			fmt.Fprintf(out, "routing:        %s (%s)\n", a.cfg.Routing.Method, bench.RoutingLabel(a.cfg.Routing.Method))
			fmt.Fprintf(out, "swaps:          %d\n", res.Swaps)
			fmt.Fprintf(out, "depth:          %d (logical %d)\n", res.Depth, c.Depth())
			fmt.Fprintf(out, "size:           %d (logical %d)\n", res.Size, c.Size())
			fmt.Fprintf(out, "two-qubit:      %d (logical %d)\n", res.TwoQubitGates, c.TwoQubitCount())
			fmt.Fprintf(out, "ops:            %s\n", circuit.FormatOps(res.Ops))
			fmt.Fprintf(out, "initial layout: %v\n", res.InitialLayout)
			fmt.Fprintf(out, "final layout:   %v\n", res.FinalLayout)
			fmt.Fprintf(out, "elapsed:        %s\n", res.Elapsed)
			return nil
		},
	}

	addCircuitFlags(cmd)
	cmd.Flags().String("qasm", "", "Transpile this OpenQASM 2.0 file instead of the benchmark circuit")
	cmd.Flags().String("out", "", "Write the transpiled circuit as OpenQASM 2.0")
	cmd.Flags().Bool("json", false, "Output statistics as JSON")
	return cmd
}
