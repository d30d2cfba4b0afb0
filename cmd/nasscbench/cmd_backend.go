package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"nasscbench/internal/bench"
	"nasscbench/internal/noise"
)

func newBackendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Show the simulated device and its calibration",
		Long: `Prints the fake Brisbane device: coupling map size, basis gates and
calibration values. Use --qubit to inspect one qubit and its couplings.

Examples:
  nasscbench backend
  nasscbench backend --qubit 14
  nasscbench backend --properties overrides.toml --qubit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			if cmd.Flags().Changed("properties") {
				a.cfg.Backend.PropertiesFile, _ = cmd.Flags().GetString("properties")
			}
			if cmd.Flags().Changed("seed") {
				a.cfg.Backend.Seed, _ = cmd.Flags().GetUint64("seed")
			}
			b, err := bench.NewBackend(a.cfg, a.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, b)
			fmt.Fprintf(out, "calibrated gates: %d\n", b.Props.NumGates())
			fmt.Fprintln(out, noise.FromBackend(b, noise.DefaultOptions()))

			q, _ := cmd.Flags().GetInt("qubit")
			if q < 0 {
				return nil
			}
			if q >= b.NumQubits() {
				return fmt.Errorf("qubit %d out of range [0, %d)", q, b.NumQubits())
			}
			qp := b.Props.Qubits[q]
			fmt.Fprintf(out, "\nqubit %d\n", q)
			fmt.Fprintf(out, "  T1:             %.1f us\n", qp.T1*1e6)
			fmt.Fprintf(out, "  T2:             %.1f us\n", qp.T2*1e6)
			fmt.Fprintf(out, "  readout P(1|0): %.4f\n", qp.ReadoutP01)
			fmt.Fprintf(out, "  readout P(0|1): %.4f\n", qp.ReadoutP10)
			for _, g := range []string{"sx", "x"} {
				if gp, ok := b.Props.Gate(g, q); ok {
					fmt.Fprintf(out, "  %-3s error:      %.2e (%.0f ns)\n", g, gp.Error, gp.Duration*1e9)
				}
			}
			neighbors := slices.Clone(b.Coupling.Neighbors(q))
			slices.Sort(neighbors)
			for _, n := range neighbors {
				e, _ := b.NativeDirection(q, n)
				fmt.Fprintf(out, "  ecr %3d -> %-3d  error %.2e\n", e.Control, e.Target, b.TwoQubitError(q, n))
			}
			return nil
		},
	}

	cmd.Flags().Int("qubit", -1, "Show calibration for this qubit")
	cmd.Flags().String("properties", "", "TOML calibration override file")
	cmd.Flags().Uint64("seed", 2023, "Calibration seed")
	return cmd
}
