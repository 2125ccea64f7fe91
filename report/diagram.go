package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/hazardsim/timing/pipeline"
)

// ErrNoTrace is returned when a diagram is requested from a schedule that
// was produced without tracing.
var ErrNoTrace = errors.New("schedule has no trace")

// WriteDiagram writes a pipeline occupancy diagram: one row per
// instruction, one column per cycle, each cell holding the stage letter.
// A repeated letter is a stall.
func (s *Schedule) WriteDiagram(w io.Writer) error {
	if len(s.Trace) == 0 && len(s.Instructions) > 0 {
		return ErrNoTrace
	}

	width := 0
	for _, text := range s.Instructions {
		width = max(width, len(text))
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%3s  %-*s |", "", width, "")
	for _, snap := range s.Trace {
		fmt.Fprintf(bw, "%3d", snap.Cycle)
	}
	fmt.Fprintln(bw)

	for i, text := range s.Instructions {
		fmt.Fprintf(bw, "%3d  %-*s |", i, width, text)
		for _, snap := range s.Trace {
			cell := ""
			if i < len(snap.Stages) && snap.Stages[i] != pipeline.StageRetired {
				cell = snap.Stages[i].Short()
			}
			fmt.Fprintf(bw, "%3s", cell)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}
