package report_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/hazardsim/insts"
	"github.com/sarchlab/hazardsim/report"
	"github.com/sarchlab/hazardsim/timing/deps"
	"github.com/sarchlab/hazardsim/timing/pipeline"
)

const addAdd = `
	add $3, $1, $2
	add $4, $3, $5
`

func schedule(src string, kind pipeline.PolicyKind, opts ...pipeline.PipelineOption) *report.Schedule {
	prog, err := insts.NewAssembler().AssembleString(src)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	tracker := deps.NewTracker(insts.NumRegisters)
	for _, inst := range prog {
		tracker.Record(inst)
	}

	pipe := pipeline.NewPipeline(tracker, pipeline.MustNewPolicy(kind), opts...)
	ExpectWithOffset(1, pipe.Run()).To(Succeed())
	return report.FromPipeline(pipe)
}

var _ = Describe("Schedule", func() {
	It("should collect the run", func() {
		s := schedule(addAdd, pipeline.PolicyStall)

		Expect(s.PipelineType).To(Equal("STALL"))
		Expect(s.Instructions).To(Equal([]string{"add\t$3, $1, $2", "add\t$4, $3, $5"}))
		Expect(s.Completions).To(Equal([]uint64{5, 8}))
		Expect(s.TotalCycles).To(Equal(uint64(8)))
		Expect(s.Stats.DataStalls).To(Equal(uint64(2)))
		Expect(s.Dependences(deps.RAW)).To(ConsistOf(
			deps.Dependence{Register: 3, Earlier: 0, Later: 1, Kind: deps.RAW}))
		Expect(s.Dependences(deps.WAR, deps.WAW)).To(BeEmpty())
	})

	It("should convert cycles to seconds at the recorded clock", func() {
		s := schedule(addAdd, pipeline.PolicyForward)
		Expect(s.SimulatedSeconds()).To(BeZero())

		s.SetClock(1 * sim.GHz)
		Expect(s.ClockMHz).To(BeNumerically("~", 1000))
		Expect(s.SimulatedSeconds()).To(BeNumerically("~", 6e-9, 1e-15))
	})

	Describe("WriteText", func() {
		It("should print the classic report", func() {
			var buf bytes.Buffer
			Expect(schedule(addAdd, pipeline.PolicyForward).WriteText(&buf)).To(Succeed())

			Expect(buf.String()).To(Equal(strings.Join([]string{
				"FORWARDING:",
				"RAW Dependence between instruction 0 add\t$3, $1, $2 and 1 add\t$4, $3, $5",
				"i\tcompletion\t\t\t|instruction",
				"0\t5\t\t\t|add\t$3, $1, $2",
				"1\t6\t\t\t|add\t$4, $3, $5",
				"Total time: 6",
				"",
				"",
			}, "\n")))
		})

		It("should report zero for an empty stream", func() {
			var buf bytes.Buffer
			Expect(schedule("", pipeline.PolicyIdeal).WriteText(&buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("IDEAL:"))
			Expect(buf.String()).To(ContainSubstring("Total time: 0"))
		})
	})

	Describe("WriteSummary", func() {
		It("should list every schedule", func() {
			var buf bytes.Buffer
			Expect(report.WriteSummary(&buf,
				schedule(addAdd, pipeline.PolicyStall),
				schedule(addAdd, pipeline.PolicyForward))).To(Succeed())

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(HaveLen(3))
			Expect(lines[1]).To(HavePrefix("STALL"))
			Expect(lines[2]).To(HavePrefix("FORWARDING"))
		})
	})

	Describe("JSON", func() {
		It("should read back what it writes", func() {
			s := schedule(addAdd, pipeline.PolicyStall, pipeline.WithTrace())
			s.SetClock(500 * sim.MHz)

			var buf bytes.Buffer
			Expect(s.WriteJSON(&buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring(`"kind": "RAW"`))
			Expect(buf.String()).To(ContainSubstring(`"FETCH"`))

			back, err := report.ReadJSON(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(back).To(Equal(s))
		})

		It("should fail on garbage", func() {
			_, err := report.ReadJSON(strings.NewReader("{"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Tree", func() {
		It("should hang dependences under their instruction", func() {
			out := schedule(addAdd, pipeline.PolicyStall).Tree().String()

			Expect(out).To(ContainSubstring("STALL (8 cycles)"))
			Expect(out).To(ContainSubstring("1: add\t$4, $3, $5 [cycle 8]"))
			Expect(out).To(ContainSubstring("RAW $3 on 0"))
		})
	})

	Describe("WriteDiagram", func() {
		It("should draw stalls as repeated stages", func() {
			s := schedule(addAdd, pipeline.PolicyStall, pipeline.WithTrace())

			var buf bytes.Buffer
			Expect(s.WriteDiagram(&buf)).To(Succeed())

			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			Expect(lines).To(HaveLen(3))
			Expect(strings.Fields(strings.SplitN(lines[1], "|", 2)[1])).
				To(Equal([]string{"F", "D", "X", "M", "W"}))
			Expect(strings.Fields(strings.SplitN(lines[2], "|", 2)[1])).
				To(Equal([]string{"F", "F", "F", "D", "X", "M", "W"}))
		})

		It("should need a trace", func() {
			var buf bytes.Buffer
			Expect(schedule(addAdd, pipeline.PolicyStall).WriteDiagram(&buf)).
				To(MatchError(report.ErrNoTrace))
		})
	})

	Describe("WriteChart", func() {
		It("should render an HTML page", func() {
			var buf bytes.Buffer
			Expect(report.WriteChart(&buf,
				schedule(addAdd, pipeline.PolicyStall),
				schedule(addAdd, pipeline.PolicyForward))).To(Succeed())

			Expect(buf.String()).To(ContainSubstring("<html"))
			Expect(buf.String()).To(ContainSubstring("FORWARDING"))
		})

		It("should reject mismatched streams", func() {
			var buf bytes.Buffer
			err := report.WriteChart(&buf,
				schedule(addAdd, pipeline.PolicyStall),
				schedule("add $1, $2, $3", pipeline.PolicyStall))
			Expect(err).To(HaveOccurred())
		})

		It("should need at least one schedule", func() {
			Expect(report.WriteChart(&bytes.Buffer{})).To(HaveOccurred())
		})
	})

	Describe("Diff", func() {
		It("should be empty for identical schedules", func() {
			out, err := report.Diff(schedule(addAdd, pipeline.PolicyStall), schedule(addAdd, pipeline.PolicyStall))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeEmpty())
		})

		It("should show what changed between policies", func() {
			out, err := report.Diff(schedule(addAdd, pipeline.PolicyStall), schedule(addAdd, pipeline.PolicyForward))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("pipeline_type"))
			Expect(out).To(ContainSubstring("FORWARDING"))
			Expect(out).To(ContainSubstring("total_cycles"))
		})
	})
})
