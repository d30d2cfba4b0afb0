package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nasscbench/internal/config"
	"nasscbench/internal/logging"
)

// Set by -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	logFile    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// setup loads the configuration and builds the logger. quiet raises the
// stderr log level so it does not draw over an interactive view.
func (a *app) setup(quiet bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	var outputs []string
	switch {
	case a.logFile != "":
		outputs = []string{a.logFile}
	case quiet:
		level = "error"
	}
	logger, err := logging.New(level, outputs...)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) sync() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "nasscbench",
		Short: "Benchmark NASSC routing on a simulated 127-qubit device",
		Long: `nasscbench builds an 8-qubit hardware-efficient circuit, transpiles it
for a fake IBM Brisbane (127-qubit heavy-hex) with the NASSC swap router,
samples the original and transpiled circuits under the device noise model
and exports the top bitstrings to CSV and a PNG plot.

Configuration is read from --config (YAML) and NASSCBENCH_* environment
variables; command-line flags take precedence.`,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.sync()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(a),
		newTranspileCmd(a),
		newDrawCmd(a),
		newBackendCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
