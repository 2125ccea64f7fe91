// Package core provides the top-level hazard simulation model.
// It wires a dependency tracker and a pipeline together for one instruction
// stream and turns the run into a report.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/hazardsim/insts"
	"github.com/sarchlab/hazardsim/report"
	"github.com/sarchlab/hazardsim/timing/config"
	"github.com/sarchlab/hazardsim/timing/deps"
	"github.com/sarchlab/hazardsim/timing/pipeline"
)

// DefaultName is the component name of a core built without WithName.
const DefaultName = "Core"

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithName sets the component name used in log records. The name must
// follow the akita naming convention.
func WithName(name string) CoreOption {
	return func(c *Core) {
		c.name = name
	}
}

// WithLogger sets the logger handed to every pipeline the core builds.
func WithLogger(logger *slog.Logger) CoreOption {
	return func(c *Core) {
		c.logger = logger
	}
}

// WithTrace makes every run keep per-cycle snapshots.
func WithTrace() CoreOption {
	return func(c *Core) {
		c.trace = true
	}
}

// Core runs instruction streams under the configured hazard policies.
type Core struct {
	name   string
	config *config.TimingConfig
	logger *slog.Logger
	trace  bool
}

// NewCore creates a Core. A nil config means DefaultTimingConfig.
func NewCore(cfg *config.TimingConfig, opts ...CoreOption) *Core {
	if cfg == nil {
		cfg = config.DefaultTimingConfig()
	}

	c := &Core{
		name:   DefaultName,
		config: cfg.Clone(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	sim.NameMustBeValid(c.name)

	return c
}

// Name returns the component name.
func (c *Core) Name() string {
	return c.name
}

// Config returns a copy of the configuration.
func (c *Core) Config() *config.TimingConfig {
	return c.config.Clone()
}

// Freq returns the configured clock frequency.
func (c *Core) Freq() sim.Freq {
	return c.config.Freq()
}

// Track records a stream into a new dependency tracker. Recording stops
// at the first instruction whose opcode is unknown.
func (c *Core) Track(prog []*insts.Instruction) *deps.Tracker {
	var opts []deps.TrackerOption
	if c.config.ZeroRegister {
		opts = append(opts, deps.WithZeroRegister())
	}

	tracker := deps.NewTracker(c.config.NumRegisters, opts...)
	for _, inst := range prog {
		if !inst.Valid() {
			break
		}
		tracker.Record(inst)
	}
	return tracker
}

// Run simulates prog under the configured policy.
func (c *Core) Run(prog []*insts.Instruction) (*report.Schedule, error) {
	kind, err := c.config.PolicyKind()
	if err != nil {
		return nil, err
	}
	return c.RunPolicy(prog, kind)
}

// RunPolicy simulates prog under one policy.
func (c *Core) RunPolicy(prog []*insts.Instruction, kind pipeline.PolicyKind) (*report.Schedule, error) {
	policy, err := c.config.NewPolicyOf(kind)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.PipelineOption{
		pipeline.WithLogger(c.logger.With("core", c.name, "policy", policy.Name())),
		pipeline.WithMaxCycles(c.config.MaxCycles),
	}
	if c.trace {
		opts = append(opts, pipeline.WithTrace())
	}

	pipe := pipeline.NewPipeline(c.Track(prog), policy, opts...)
	if err := pipe.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w", policy.Name(), err)
	}

	s := report.FromPipeline(pipe)
	s.SetClock(c.Freq())
	return s, nil
}

// RunPolicies simulates prog under each policy concurrently. Every run has
// its own tracker and pipeline. The schedules come back in the order of
// kinds.
func (c *Core) RunPolicies(
	ctx context.Context,
	prog []*insts.Instruction,
	kinds ...pipeline.PolicyKind,
) ([]*report.Schedule, error) {
	if len(kinds) == 0 {
		kinds = pipeline.AllPolicies
	}

	out := make([]*report.Schedule, len(kinds))
	g, ctx := errgroup.WithContext(ctx)

	for i, kind := range kinds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			s, err := c.RunPolicy(prog, kind)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
