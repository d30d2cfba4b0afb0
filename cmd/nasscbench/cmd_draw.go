package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nasscbench/internal/bench"
	"nasscbench/internal/draw"
	"nasscbench/internal/sim"
)

func newDrawCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw the circuit as a text diagram",
		Long: `Renders the bound benchmark circuit, or its transpiled form with
--transpiled. Idle device qubits are left out of the transpiled diagram.

Examples:
  nasscbench draw
  nasscbench draw --transpiled --width 160
  nasscbench draw --qasm circuit.qasm --plain
  nasscbench draw --marginals`,
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

			title := fmt.Sprintf("%d-qubit circuit", c.NumQubits)
			if transpiled, _ := cmd.Flags().GetBool("transpiled"); transpiled {
				res, err := transpileCircuit(cmd, r, c)
				if err != nil {
					return err
				}
				c = res.Circuit
				title = fmt.Sprintf("transpiled for %s (%s, %d swaps)", r.Backend().Name,
					bench.RoutingLabel(a.cfg.Routing.Method), res.Swaps)
			}

			width, _ := cmd.Flags().GetInt("width")
			plain, _ := cmd.Flags().GetBool("plain")
			opts := draw.Options{
				Title:  title,
				Width:  width,
				Plain:  plain || !isTerminal(os.Stdout),
				Framed: !plain && isTerminal(os.Stdout),
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, draw.Circuit(c, opts))

			if marginals, _ := cmd.Flags().GetBool("marginals"); marginals {
				state, qubits, err := sim.Statevector(c)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "\nideal marginals")
				for i, qp := range state.QubitProbabilities() {
					fmt.Fprintf(out, "  q[%d]  P(0)=%.4f  P(1)=%.4f\n", qubits[i], qp.Prob0, qp.Prob1)
				}
			}
			return nil
		},
	}

	addCircuitFlags(cmd)
	cmd.Flags().String("qasm", "", "Draw this OpenQASM 2.0 file instead of the benchmark circuit")
	cmd.Flags().Bool("transpiled", false, "Draw the transpiled circuit")
	cmd.Flags().Int("width", 120, "Wrap the diagram at this many columns (0 disables wrapping)")
	cmd.Flags().Bool("plain", false, "Disable colors and the frame")
	cmd.Flags().Bool("marginals", false, "Print the ideal per-qubit measurement probabilities")
	return cmd
}
