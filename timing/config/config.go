// Package config provides the JSON timing configuration of a hazard
// simulation run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/hazardsim/insts"
	"github.com/sarchlab/hazardsim/timing/pipeline"
)

// StageSchedule is the on-disk form of a pipeline.ValueSchedule. Stages are
// written by name, for example "EXECUTE" or "WB".
type StageSchedule struct {
	Required string `json:"required"`
	Produced string `json:"produced"`
}

// TimingConfig holds the parameters of a simulation run.
type TimingConfig struct {
	// Policy is the hazard policy name: ideal, stall or forward.
	// Default: forward.
	Policy string `json:"policy"`

	// NumRegisters is the size of the architectural register file.
	// Default: 32.
	NumRegisters int `json:"num_registers"`

	// ClockMHz is the clock used to turn cycle counts into time.
	// Default: 1000.
	ClockMHz float64 `json:"clock_mhz"`

	// MaxCycles bounds a run. Zero means unlimited.
	MaxCycles uint64 `json:"max_cycles"`

	// ZeroRegister makes writes to register 0 invisible to the dependency
	// tracker. Default: false.
	ZeroRegister bool `json:"zero_register"`

	// Schedules overrides the value schedule of instruction classes, keyed
	// by class name (ARITHMETIC, MEMORY, CONTROL).
	Schedules map[string]StageSchedule `json:"schedules,omitempty"`
}

// DefaultTimingConfig returns a TimingConfig with default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		Policy:       pipeline.PolicyForward.String(),
		NumRegisters: insts.NumRegisters,
		ClockMHz:     1000,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all values are usable.
func (c *TimingConfig) Validate() error {
	if _, err := pipeline.ParsePolicyKind(c.Policy); err != nil {
		return err
	}
	if c.NumRegisters <= 0 || c.NumRegisters > insts.NumRegisters {
		return fmt.Errorf("num_registers must be between 1 and %d", insts.NumRegisters)
	}
	if c.ClockMHz <= 0 {
		return fmt.Errorf("clock_mhz must be > 0")
	}
	if _, err := c.Overrides(); err != nil {
		return err
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	if c.Schedules != nil {
		clone.Schedules = make(map[string]StageSchedule, len(c.Schedules))
		for k, v := range c.Schedules {
			clone.Schedules[k] = v
		}
	}
	return &clone
}

// PolicyKind returns the configured hazard policy.
func (c *TimingConfig) PolicyKind() (pipeline.PolicyKind, error) {
	return pipeline.ParsePolicyKind(c.Policy)
}

// Freq returns the clock frequency.
func (c *TimingConfig) Freq() sim.Freq {
	return sim.Freq(c.ClockMHz) * sim.MHz
}

// Overrides converts the schedule overrides to pipeline form.
func (c *TimingConfig) Overrides() (map[insts.Class]pipeline.ValueSchedule, error) {
	if len(c.Schedules) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(c.Schedules))
	for name := range c.Schedules {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[insts.Class]pipeline.ValueSchedule, len(names))
	for _, name := range names {
		class, ok := insts.ParseClass(name)
		if !ok {
			return nil, fmt.Errorf("schedules: unknown instruction class %q", name)
		}

		entry := c.Schedules[name]
		required, err := pipeline.ParseStage(entry.Required)
		if err != nil {
			return nil, fmt.Errorf("schedules.%s.required: %w", name, err)
		}
		produced, err := pipeline.ParseStage(entry.Produced)
		if err != nil {
			return nil, fmt.Errorf("schedules.%s.produced: %w", name, err)
		}

		sched := pipeline.ValueSchedule{Required: required, Produced: produced}
		if err := sched.Validate(); err != nil {
			return nil, fmt.Errorf("schedules.%s: %w", name, err)
		}
		out[class] = sched
	}

	return out, nil
}

// NewPolicy builds the configured hazard policy with its overrides.
func (c *TimingConfig) NewPolicy() (pipeline.Policy, error) {
	kind, err := c.PolicyKind()
	if err != nil {
		return nil, err
	}
	return c.NewPolicyOf(kind)
}

// NewPolicyOf builds a policy of the given kind with the configured
// overrides applied.
func (c *TimingConfig) NewPolicyOf(kind pipeline.PolicyKind) (pipeline.Policy, error) {
	overrides, err := c.Overrides()
	if err != nil {
		return nil, err
	}
	return pipeline.NewPolicy(kind, overrides)
}
