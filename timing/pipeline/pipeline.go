package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sarchlab/hazardsim/insts"
	"github.com/sarchlab/hazardsim/timing/deps"
)

// ErrCycleLimit is returned by Run when the cycle limit is reached before
// every instruction has retired.
var ErrCycleLimit = errors.New("cycle limit reached")

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of instructions retired.
	Instructions uint64 `json:"instructions"`
	// ControlStalls counts instruction-cycles lost to the control-delay slot.
	ControlStalls uint64 `json:"control_stalls"`
	// DataStalls counts instruction-cycles lost waiting for an operand.
	DataStalls uint64 `json:"data_stalls"`
	// StructuralStalls counts instruction-cycles an instruction was held
	// because the stage ahead of it was still occupied.
	StructuralStalls uint64 `json:"structural_stalls"`
	// DataHazards is the number of instructions that stalled for data at
	// least once.
	DataHazards uint64 `json:"data_hazards"`
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Stalls returns the total number of hazard stall cycles.
func (s Statistics) Stalls() uint64 {
	return s.ControlStalls + s.DataStalls
}

// Snapshot records the stage each issued instruction occupied during a cycle.
type Snapshot struct {
	Cycle  uint64  `json:"cycle"`
	Stages []Stage `json:"stages"`
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger that receives per-cycle debug records.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMaxCycles bounds Run. Zero means unbounded.
func WithMaxCycles(n uint64) PipelineOption {
	return func(p *Pipeline) {
		p.maxCycles = n
	}
}

// WithTrace makes the pipeline keep a Snapshot of every cycle.
func WithTrace() PipelineOption {
	return func(p *Pipeline) {
		p.trace = true
	}
}

// Pipeline steps a fixed instruction stream through a 5-stage in-order
// pipeline under one hazard policy.
type Pipeline struct {
	tracker *deps.Tracker
	policy  Policy

	// stages[i] is only meaningful for i < issued.
	stages      []Stage
	completions []uint64
	stalledData []bool
	issued      int
	retired     int
	cycle       uint64

	maxCycles uint64
	trace     bool
	snapshots []Snapshot

	logger *slog.Logger
	stats  Statistics
}

// NewPipeline creates a pipeline over every instruction recorded in
// tracker. The tracker must already hold the whole stream.
func NewPipeline(tracker *deps.Tracker, policy Policy, opts ...PipelineOption) *Pipeline {
	n := tracker.Len()
	p := &Pipeline{
		tracker:     tracker,
		policy:      policy,
		stages:      make([]Stage, n),
		completions: make([]uint64, n),
		stalledData: make([]bool, n),
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Policy returns the hazard policy.
func (p *Pipeline) Policy() Policy {
	return p.policy
}

// Tracker returns the dependency tracker the pipeline reads from.
func (p *Pipeline) Tracker() *deps.Tracker {
	return p.tracker
}

// Len returns the number of instructions in the stream.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Cycle returns the number of cycles simulated so far.
func (p *Pipeline) Cycle() uint64 {
	return p.cycle
}

// Issued returns the number of instructions that have entered FETCH.
func (p *Pipeline) Issued() int {
	return p.issued
}

// Done reports whether every instruction has retired.
func (p *Pipeline) Done() bool {
	return p.retired == len(p.stages)
}

// Stage returns the current stage of instruction i. It panics if i has not
// been issued.
func (p *Pipeline) Stage(i int) Stage {
	if i < 0 || i >= p.issued {
		panic(fmt.Sprintf("instruction %d has not been issued", i))
	}
	return p.stages[i]
}

// Class returns the instruction class of instruction i.
func (p *Pipeline) Class(i int) insts.Class {
	return p.tracker.Instruction(i).Op.Class()
}

// PrevDependence returns the nearest earlier instruction that i reads a
// register from.
func (p *Pipeline) PrevDependence(i int) (int, bool) {
	return p.tracker.MostRecent(i, deps.RAW)
}

// Stats returns the statistics gathered so far.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// CompletionTimes returns the cycle in which each instruction retired.
// Entries for instructions that have not retired are zero.
func (p *Pipeline) CompletionTimes() []uint64 {
	out := make([]uint64, len(p.completions))
	copy(out, p.completions)
	return out
}

// TotalCycles returns the completion cycle of the last instruction, or
// zero for an empty stream.
func (p *Pipeline) TotalCycles() uint64 {
	if len(p.completions) == 0 {
		return 0
	}
	return p.completions[len(p.completions)-1]
}

// Trace returns the per-cycle snapshots. It is empty unless WithTrace was
// given.
func (p *Pipeline) Trace() []Snapshot {
	return p.snapshots
}

// Run ticks the pipeline until every instruction retires.
func (p *Pipeline) Run() error {
	for !p.Done() {
		if p.maxCycles > 0 && p.cycle >= p.maxCycles {
			return fmt.Errorf("%w: %d of %d instructions retired after %d cycles",
				ErrCycleLimit, p.retired, len(p.stages), p.cycle)
		}
		p.Tick()
	}

	p.logger.Debug("pipeline finished",
		"policy", p.policy.Name(),
		"cycles", p.cycle,
		"instructions", p.retired,
		"cpi", p.stats.CPI())

	return nil
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if instructions are still in flight.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.Done(); i++ {
		p.Tick()
	}
	return !p.Done()
}

// Tick executes one pipeline cycle.
//
// A new instruction enters FETCH once its predecessor has left FETCH. Then
// instructions are visited oldest first. Instruction i moves forward one
// stage when the stage ahead is free and the policy reports no hazard.
// The stage ahead is free when i is the oldest instruction, when i is
// about to retire, or when i-1 (already moved this cycle) is more than one
// stage ahead of i.
func (p *Pipeline) Tick() {
	if p.Done() {
		return
	}

	p.cycle++
	p.issue()

	if p.trace {
		p.snapshot()
	}

	for i := p.retired; i < p.issued; i++ {
		if p.stages[i] == StageRetired {
			continue
		}
		p.step(i)
	}

	p.stats.Cycles = p.cycle
}

func (p *Pipeline) issue() {
	if p.issued == len(p.stages) {
		return
	}
	if p.issued > 0 && p.stages[p.issued-1] == StageFetch {
		return
	}

	p.stages[p.issued] = StageFetch
	p.issued++
}

func (p *Pipeline) step(i int) {
	next := p.stages[i] + 1

	if i > 0 && next != StageRetired && p.stages[i-1] <= next {
		p.stats.StructuralStalls++
		return
	}

	if p.policy.ControlHazard(p, i) {
		p.stats.ControlStalls++
		p.logger.Debug("control stall",
			"cycle", p.cycle, "inst", i, "stage", p.stages[i])
		return
	}

	if p.policy.DataHazard(p, i) {
		p.stats.DataStalls++
		if !p.stalledData[i] {
			p.stalledData[i] = true
			p.stats.DataHazards++
		}
		prev, _ := p.PrevDependence(i)
		p.logger.Debug("data stall",
			"cycle", p.cycle, "inst", i, "stage", p.stages[i],
			"producer", prev, "producer_stage", p.stages[prev])
		return
	}

	p.stages[i] = next
	if next == StageRetired {
		p.completions[i] = p.cycle
		p.retired++
		p.stats.Instructions++
	}
}

func (p *Pipeline) snapshot() {
	stages := make([]Stage, p.issued)
	copy(stages, p.stages[:p.issued])
	p.snapshots = append(p.snapshots, Snapshot{Cycle: p.cycle, Stages: stages})
}

// Reset returns the pipeline to cycle zero with nothing issued.
func (p *Pipeline) Reset() {
	for i := range p.stages {
		p.stages[i] = StageFetch
		p.completions[i] = 0
		p.stalledData[i] = false
	}
	p.issued = 0
	p.retired = 0
	p.cycle = 0
	p.snapshots = nil
	p.stats = Statistics{}
}
