package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hazardsim/loader"
	"github.com/sarchlab/hazardsim/timing/config"
	"github.com/sarchlab/hazardsim/timing/core"
	"github.com/sarchlab/hazardsim/timing/pipeline"
)

// LevelTrace is below Debug and enables per-cycle stall records.
const LevelTrace slog.Level = -8

type globalOptions struct {
	configPath string
	logLevel   string

	profile profiler

	stderr io.Writer
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "hazardsim",
		Short: "Pipeline hazard simulator",
		Long: `hazardsim runs a MIPS instruction stream through a 5-stage in-order
pipeline under the ideal, stall-only and full-forwarding hazard policies
and reports when each instruction completes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(g.stderr, g.logLevel)
			if err != nil {
				return err
			}
			g.logger = logger
			return g.profile.start()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return g.profile.stop()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to timing configuration JSON file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.profile.cpuPath, "cpuprofile", "", "Write a CPU profile to this file")
	rootCmd.PersistentFlags().StringVar(&g.profile.memPath, "memprofile", "", "Write a memory profile to this file")

	rootCmd.AddCommand(newRunCmd(g))
	rootCmd.AddCommand(newCompareCmd(g))
	rootCmd.AddCommand(newChartCmd(g))
	rootCmd.AddCommand(newBenchCmd(g))
	rootCmd.AddCommand(newConfigCmd(g))

	return rootCmd
}

func parseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

func newLogger(w io.Writer, lvl string) (*slog.Logger, error) {
	level, err := parseLevel(lvl)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// loadConfig returns the configuration named by --config, or the defaults.
func (g *globalOptions) loadConfig() (*config.TimingConfig, error) {
	cfg := config.DefaultTimingConfig()
	if g.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(g.configPath)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}
	return cfg, nil
}

// loadProgram loads a program file. A malformed tail is logged and
// dropped; the valid prefix is still simulated.
func (g *globalOptions) loadProgram(path string) (*loader.Program, error) {
	prog, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading program: %w", err)
	}

	if !prog.Complete() {
		g.logger.Warn("input format error, simulating the valid prefix",
			"path", path,
			"line", prog.Invalid.Line,
			"text", prog.Invalid.Text,
			"reason", prog.Invalid.Reason,
			"instructions", len(prog.Instructions))
	}
	g.logger.Info("program loaded", "path", path, "format", prog.Format, "instructions", len(prog.Instructions))

	return prog, nil
}

func (g *globalOptions) newCore(cfg *config.TimingConfig, opts ...core.CoreOption) *core.Core {
	opts = append([]core.CoreOption{core.WithLogger(g.logger)}, opts...)
	return core.NewCore(cfg, opts...)
}

// parsePolicies turns a policy list into kinds. "all" expands to every
// policy; an empty list means the configured one.
func parsePolicies(names []string, cfg *config.TimingConfig) ([]pipeline.PolicyKind, error) {
	if len(names) == 0 {
		kind, err := cfg.PolicyKind()
		if err != nil {
			return nil, err
		}
		return []pipeline.PolicyKind{kind}, nil
	}

	var kinds []pipeline.PolicyKind
	for _, name := range names {
		if strings.EqualFold(name, "all") {
			return pipeline.AllPolicies, nil
		}
		kind, err := pipeline.ParsePolicyKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
