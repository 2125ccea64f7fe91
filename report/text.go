package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sarchlab/hazardsim/timing/deps"
)

const (
	columnHeader = "i\tcompletion\t\t\t|instruction"
	footer       = "Total time: "
)

// WriteText writes the classic plain-text report: the pipeline type, the
// RAW dependences, one line per instruction with its completion cycle, and
// the total time.
func (s *Schedule) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s:\n", s.PipelineType)
	for _, d := range s.Dependences(deps.RAW) {
		fmt.Fprintln(bw, s.DependenceLine(d))
	}

	fmt.Fprintln(bw, columnHeader)
	for i, text := range s.Instructions {
		fmt.Fprintf(bw, "%d\t%d\t\t\t|%s\n", i, s.Completions[i], text)
	}
	fmt.Fprintf(bw, "%s%d\n\n", footer, s.TotalCycles)

	return bw.Flush()
}

// WriteSummary writes the statistics of several schedules side by side.
func WriteSummary(w io.Writer, schedules ...*Schedule) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%-12s %8s %8s %8s %8s %8s\n",
		"pipeline", "cycles", "insts", "cpi", "data", "control")
	for _, s := range schedules {
		fmt.Fprintf(bw, "%-12s %8d %8d %8.3f %8d %8d\n",
			s.PipelineType, s.TotalCycles, s.Stats.Instructions, s.Stats.CPI(),
			s.Stats.DataStalls, s.Stats.ControlStalls)
	}

	return bw.Flush()
}
