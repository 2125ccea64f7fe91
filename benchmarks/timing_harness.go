// Package benchmarks provides the hazard benchmark harness: a set of
// assembly kernels and the machinery to run them under every hazard policy
// and report the results.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sarchlab/hazardsim/insts"
	"github.com/sarchlab/hazardsim/timing/config"
	"github.com/sarchlab/hazardsim/timing/core"
	"github.com/sarchlab/hazardsim/timing/deps"
	"github.com/sarchlab/hazardsim/timing/pipeline"
)

// Version is reported in the JSON metadata.
const Version = "0.3.0"

// BenchmarkResult holds the timing results for one benchmark under one
// policy.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Pipeline is the pipeline type label
	Pipeline string `json:"pipeline"`

	// SimulatedCycles is the completion cycle of the last instruction
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	DataStalls       uint64 `json:"data_stalls"`
	ControlStalls    uint64 `json:"control_stalls"`
	StructuralStalls uint64 `json:"structural_stalls"`

	// DataHazards is the number of instructions that waited for an operand
	DataHazards uint64 `json:"data_hazards"`

	// RAW, WAR and WAW count the dependences in the stream
	RAW int `json:"raw"`
	WAR int `json:"war"`
	WAW int `json:"waw"`

	// Error is set when the benchmark could not be run
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Source is the assembly listing
	Source string
}

// Program assembles the benchmark source.
func (b Benchmark) Program() ([]*insts.Instruction, error) {
	prog, err := insts.NewAssembler().AssembleString(b.Source)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", b.Name, err)
	}
	return prog, nil
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Policies lists the hazard policies each benchmark runs under
	Policies []pipeline.PolicyKind

	// Timing is the simulation configuration (default: DefaultTimingConfig)
	Timing *config.TimingConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives progress records
	Logger *slog.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Policies: pipeline.AllPolicies,
		Timing:   config.DefaultTimingConfig(),
		Output:   os.Stdout,
		Verbose:  false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if len(config.Policies) == 0 {
		config.Policies = pipeline.AllPolicies
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns one result per benchmark and
// policy, benchmark-major.
func (h *Harness) RunAll(ctx context.Context) []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks)*len(h.config.Policies))

	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(ctx, bench)...)
	}

	return results
}

// runBenchmark executes a single benchmark under every policy.
func (h *Harness) runBenchmark(ctx context.Context, bench Benchmark) []BenchmarkResult {
	failed := func(err error) []BenchmarkResult {
		h.config.Logger.Warn("benchmark failed", "benchmark", bench.Name, "err", err)
		out := make([]BenchmarkResult, len(h.config.Policies))
		for i, kind := range h.config.Policies {
			out[i] = BenchmarkResult{
				Name:        bench.Name,
				Description: bench.Description,
				Pipeline:    kind.Label(),
				Error:       err.Error(),
			}
		}
		return out
	}

	prog, err := bench.Program()
	if err != nil {
		return failed(err)
	}

	c := core.NewCore(h.config.Timing, core.WithLogger(h.config.Logger))

	start := time.Now()
	schedules, err := c.RunPolicies(ctx, prog, h.config.Policies...)
	wallTime := time.Since(start)
	if err != nil {
		return failed(err)
	}

	results := make([]BenchmarkResult, len(schedules))
	for i, s := range schedules {
		results[i] = BenchmarkResult{
			Name:                bench.Name,
			Description:         bench.Description,
			Pipeline:            s.PipelineType,
			SimulatedCycles:     s.TotalCycles,
			InstructionsRetired: s.Stats.Instructions,
			CPI:                 s.Stats.CPI(),
			DataStalls:          s.Stats.DataStalls,
			ControlStalls:       s.Stats.ControlStalls,
			StructuralStalls:    s.Stats.StructuralStalls,
			DataHazards:         s.Stats.DataHazards,
			RAW:                 len(s.Dependences(deps.RAW)),
			WAR:                 len(s.Dependences(deps.WAR)),
			WAW:                 len(s.Dependences(deps.WAW)),
			WallTime:            wallTime,
		}
	}

	h.config.Logger.Info("benchmark done", "benchmark", bench.Name, "wall_time", wallTime)

	return results
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Hazard Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s [%s]\n", r.Name, r.Pipeline)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		}
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n\n", r.Error)
			continue
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Data Stalls:          %d\n", r.DataStalls)
		_, _ = fmt.Fprintf(h.config.Output, "  Control Stalls:       %d\n", r.ControlStalls)
		_, _ = fmt.Fprintf(h.config.Output, "  Structural Stalls:    %d\n", r.StructuralStalls)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Dependences ---")
		_, _ = fmt.Fprintf(h.config.Output, "  RAW: %d  WAR: %d  WAW: %d\n", r.RAW, r.WAR, r.WAW)

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		}
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,pipeline,cycles,instructions,cpi,data_stalls,control_stalls,structural_stalls,raw,war,waw")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.Pipeline,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.DataStalls,
			r.ControlStalls,
			r.StructuralStalls,
			r.RAW,
			r.WAR,
			r.WAW,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics per pipeline type
	Summary []ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Config is the timing configuration used
	Config *config.TimingConfig `json:"config"`
}

// ReportSummary contains aggregate statistics for one pipeline type.
type ReportSummary struct {
	Pipeline string `json:"pipeline"`

	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the aggregate cycles per instruction
	AverageCPI float64 `json:"average_cpi"`
}

// Summarize aggregates results per pipeline type, in the harness policy
// order. Failed results are skipped.
func (h *Harness) Summarize(results []BenchmarkResult) []ReportSummary {
	summaries := make([]ReportSummary, len(h.config.Policies))
	index := make(map[string]int, len(h.config.Policies))
	for i, kind := range h.config.Policies {
		summaries[i].Pipeline = kind.Label()
		index[kind.Label()] = i
	}

	for _, r := range results {
		i, ok := index[r.Pipeline]
		if !ok || r.Error != "" {
			continue
		}
		summaries[i].TotalBenchmarks++
		summaries[i].TotalCycles += r.SimulatedCycles
		summaries[i].TotalInstructions += r.InstructionsRetired
	}

	for i := range summaries {
		if summaries[i].TotalInstructions > 0 {
			summaries[i].AverageCPI = float64(summaries[i].TotalCycles) /
				float64(summaries[i].TotalInstructions)
		}
	}

	return summaries
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config:    h.config.Timing,
		},
		Results: results,
		Summary: h.Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
