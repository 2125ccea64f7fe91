// Package report provides the result of a hazard simulation run and the
// renderers that present it.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/hazardsim/timing/deps"
	"github.com/sarchlab/hazardsim/timing/pipeline"
)

// Schedule is the outcome of running one instruction stream under one
// hazard policy.
type Schedule struct {
	// PipelineType is the label of the policy, e.g. "FORWARDING".
	PipelineType string `json:"pipeline_type"`
	// Instructions holds the text of each instruction in program order.
	Instructions []string `json:"instructions"`
	// Completions holds the retirement cycle of each instruction.
	Completions []uint64 `json:"completions"`
	// Deps is every dependence found in the stream.
	Deps []deps.Dependence `json:"dependences"`
	// TotalCycles is the completion cycle of the last instruction.
	TotalCycles uint64              `json:"total_cycles"`
	Stats       pipeline.Statistics `json:"stats"`
	// ClockMHz is the clock used for SimulatedSeconds. Zero if unknown.
	ClockMHz float64             `json:"clock_mhz,omitempty"`
	Trace    []pipeline.Snapshot `json:"trace,omitempty"`
}

// FromPipeline collects the schedule of a pipeline that has finished
// running.
func FromPipeline(p *pipeline.Pipeline) *Schedule {
	tracker := p.Tracker()

	texts := make([]string, tracker.Len())
	for i, inst := range tracker.Instructions() {
		texts[i] = inst.Text
	}

	return &Schedule{
		PipelineType: p.Policy().Name(),
		Instructions: texts,
		Completions:  p.CompletionTimes(),
		Deps:         tracker.Dependences(),
		TotalCycles:  p.TotalCycles(),
		Stats:        p.Stats(),
		Trace:        p.Trace(),
	}
}

// SetClock records the clock frequency of the run.
func (s *Schedule) SetClock(freq sim.Freq) {
	s.ClockMHz = float64(freq / sim.MHz)
}

// SimulatedSeconds converts TotalCycles to time at the recorded clock.
func (s *Schedule) SimulatedSeconds() float64 {
	if s.ClockMHz <= 0 {
		return 0
	}
	freq := sim.Freq(s.ClockMHz) * sim.MHz
	return float64(s.TotalCycles) / float64(freq)
}

// Len returns the number of instructions.
func (s *Schedule) Len() int {
	return len(s.Instructions)
}

// Dependences returns the dependences of the given kinds, or all of them
// when no kind is given.
func (s *Schedule) Dependences(kinds ...deps.Kind) []deps.Dependence {
	if len(kinds) == 0 {
		return s.Deps
	}

	var out []deps.Dependence
	for _, d := range s.Deps {
		for _, k := range kinds {
			if d.Kind == k {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// DependenceLine formats a dependence the way the text report lists it.
func (s *Schedule) DependenceLine(d deps.Dependence) string {
	return fmt.Sprintf("%v Dependence between instruction %d %s and %d %s",
		d.Kind, d.Earlier, s.Instructions[d.Earlier], d.Later, s.Instructions[d.Later])
}

// WriteJSON writes the schedule as indented JSON.
func (s *Schedule) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	return nil
}

// ReadJSON reads a schedule written by WriteJSON.
func ReadJSON(r io.Reader) (*Schedule, error) {
	var s Schedule
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	return &s, nil
}
