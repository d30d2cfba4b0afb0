package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nasscbench/internal/bench"
	"nasscbench/internal/circuit"
	"nasscbench/internal/config"
	"nasscbench/internal/report"
	"nasscbench/internal/ui"
)

// applyOverrides copies the flags the user set onto cfg.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, fn func() error) {
		if err == nil && flags.Changed(name) {
			err = fn()
		}
	}

	set("shots", func() (e error) { cfg.Simulation.Shots, e = flags.GetInt("shots"); return })
	set("seed", func() (e error) { cfg.Simulation.Seed, e = flags.GetUint64("seed"); return })
	set("trajectories", func() (e error) { cfg.Simulation.Trajectories, e = flags.GetInt("trajectories"); return })
	set("workers", func() (e error) { cfg.Simulation.Workers, e = flags.GetInt("workers"); return })
	set("noise", func() (e error) { cfg.Simulation.Noise, e = flags.GetBool("noise"); return })
	set("routing", func() (e error) { cfg.Routing.Method, e = flags.GetString("routing"); return })
	set("routing-seed", func() (e error) { cfg.Routing.Seed, e = flags.GetUint64("routing-seed"); return })
	set("level", func() (e error) { cfg.Routing.Level, e = flags.GetInt("level"); return })
	set("layout-trials", func() (e error) { cfg.Routing.LayoutTrials, e = flags.GetInt("layout-trials"); return })
	set("excise", func() (e error) { cfg.Circuit.Excise, e = flags.GetInt("excise"); return })
	set("original-basis", func() (e error) { cfg.Circuit.OriginalBasis, e = flags.GetBool("original-basis"); return })
	set("properties", func() (e error) { cfg.Backend.PropertiesFile, e = flags.GetString("properties"); return })
	set("csv", func() (e error) { cfg.Output.CSV, e = flags.GetString("csv"); return })
	set("plot", func() (e error) { cfg.Output.Plot, e = flags.GetString("plot"); return })
	set("summary", func() (e error) { cfg.Output.Summary, e = flags.GetString("summary"); return })
	set("top", func() (e error) { cfg.Output.TopK, e = flags.GetInt("top"); return })
	set("params", func() error {
		s, e := flags.GetString("params")
		if e != nil {
			return e
		}
		cfg.Circuit.Params, e = circuit.ParseParamList(s)
		return e
	})
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// addCircuitFlags registers the flags shared by commands that build and
// transpile the circuit.
func addCircuitFlags(cmd *cobra.Command) {
	cmd.Flags().Int("excise", 1, "Reference qubit to remove (-1 keeps all 9)")
	cmd.Flags().String("params", "", "Comma separated parameter values (pi expressions allowed)")
	cmd.Flags().String("routing", "nassc", "Routing method: nassc, sabre, basic")
	cmd.Flags().Uint64("routing-seed", 11, "Transpiler seed")
	cmd.Flags().Int("level", 3, "Optimization level: 1 or 3")
	cmd.Flags().Int("layout-trials", 8, "Number of initial layout candidates")
	cmd.Flags().String("properties", "", "TOML calibration override file")
}

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the fidelity benchmark",
		Long: `Builds and binds the circuit, transpiles it, samples the original and the
transpiled circuit under noise and writes the top bitstrings.

Examples:
  nasscbench run                          # reference benchmark
  nasscbench run --routing sabre --shots 2048
  nasscbench run --no-tui --csv out.csv --plot out.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noTUI, _ := cmd.Flags().GetBool("no-tui")
			interactive := !noTUI && isTerminal(os.Stdout)
			if err := a.setup(interactive); err != nil {
				return err
			}
			if err := applyOverrides(cmd, a.cfg); err != nil {
				return err
			}

			start := func(ctx context.Context, obs bench.Observer) (*bench.Report, error) {
				r, err := bench.New(a.cfg, bench.WithLogger(a.logger), bench.WithObserver(obs))
				if err != nil {
					return nil, err
				}
				return r.Run(ctx)
			}

			var rep *bench.Report
			var err error
			if interactive {
				rep, err = ui.Run(cmd.Context(), "nasscbench", os.Stdout, start)
			} else {
				rep, err = start(cmd.Context(), nil)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.Table(rep.Rows, !interactive))
			fmt.Fprintf(out, "run %s: hellinger fidelity %.4f, total variation %.4f, %d swaps\n",
				rep.Summary.RunID, rep.Summary.HellingerFidelity, rep.Summary.TotalVariation, rep.Transpiled.Swaps)
			if a.cfg.Output.CSV != "" || a.cfg.Output.Plot != "" {
				fmt.Fprintf(out, "Fidelity analysis complete. Results saved to %s and %s\n", a.cfg.Output.CSV, a.cfg.Output.Plot)
			}
			return nil
		},
	}

	addCircuitFlags(cmd)
	cmd.Flags().Int("shots", 8192, "Shots per circuit")
	cmd.Flags().Uint64("seed", 11, "Simulation seed")
	cmd.Flags().Int("trajectories", 512, "Noise trajectories per circuit")
	cmd.Flags().Int("workers", 0, "Concurrent trajectories (0 = GOMAXPROCS)")
	cmd.Flags().Bool("noise", true, "Apply the device noise model")
	cmd.Flags().Bool("original-basis", true, "Translate the original circuit to the device basis before sampling")
	cmd.Flags().String("csv", "", "CSV output path")
	cmd.Flags().String("plot", "", "PNG plot output path")
	cmd.Flags().String("summary", "", "JSON summary output path")
	cmd.Flags().Int("top", 5, "Bitstrings kept per circuit")
	cmd.Flags().Bool("no-tui", false, "Disable the interactive progress view")
	return cmd
}
