package core_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hazardsim/insts"
	"github.com/sarchlab/hazardsim/timing/config"
	"github.com/sarchlab/hazardsim/timing/core"
	"github.com/sarchlab/hazardsim/timing/deps"
	"github.com/sarchlab/hazardsim/timing/pipeline"
)

const program = `
	lw   $8, 0($29)
	add  $9, $8, $8
	beq  $9, $0, skip
	sub  $10, $9, $1
skip:
	sw   $10, 4($29)
`

var _ = Describe("Core", func() {
	var (
		prog []*insts.Instruction
		cfg  *config.TimingConfig
	)

	BeforeEach(func() {
		var err error
		prog, err = insts.NewAssembler().AssembleString(program)
		Expect(err).NotTo(HaveOccurred())
		cfg = config.DefaultTimingConfig()
	})

	It("should default its name and config", func() {
		c := core.NewCore(nil)
		Expect(c.Name()).To(Equal(core.DefaultName))
		Expect(c.Config()).To(Equal(config.DefaultTimingConfig()))
	})

	It("should accept a hierarchical name", func() {
		c := core.NewCore(cfg, core.WithName("Sim.Core"))
		Expect(c.Name()).To(Equal("Sim.Core"))
	})

	It("should reject a malformed name", func() {
		Expect(func() { core.NewCore(cfg, core.WithName("Sim..Core")) }).To(Panic())
	})

	It("should not be affected by later config changes", func() {
		c := core.NewCore(cfg)
		cfg.Policy = "stall"
		Expect(c.Config().Policy).To(Equal("forward"))
	})

	Describe("Run", func() {
		It("should use the configured policy", func() {
			cfg.Policy = "stall"
			s, err := core.NewCore(cfg).Run(prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.PipelineType).To(Equal("STALL"))
			Expect(s.Completions).To(HaveLen(5))
			Expect(s.ClockMHz).To(BeNumerically("~", 1000))
		})

		It("should fail on an unknown policy", func() {
			cfg.Policy = "oracle"
			_, err := core.NewCore(cfg).Run(prog)
			Expect(err).To(MatchError(pipeline.ErrUnknownPolicy))
		})

		It("should fail when the cycle limit is hit", func() {
			cfg.MaxCycles = 4
			_, err := core.NewCore(cfg).RunPolicy(prog, pipeline.PolicyStall)
			Expect(err).To(MatchError(pipeline.ErrCycleLimit))
		})

		It("should record a trace on request", func() {
			s, err := core.NewCore(cfg, core.WithTrace()).RunPolicy(prog, pipeline.PolicyIdeal)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Trace).To(HaveLen(int(s.TotalCycles)))
		})
	})

	Describe("Track", func() {
		It("should stop at the first unknown instruction", func() {
			bad := insts.NewDecoder().Decode(0xFC000000)
			stream := append(append([]*insts.Instruction{}, prog[:2]...), bad, prog[2])

			tracker := core.NewCore(cfg).Track(stream)
			Expect(tracker.Len()).To(Equal(2))
		})

		It("should ignore register 0 when configured", func() {
			src, err := insts.NewAssembler().AssembleString("add $0, $1, $2\nadd $3, $0, $0\n")
			Expect(err).NotTo(HaveOccurred())

			Expect(core.NewCore(cfg).Track(src).Dependences(deps.RAW)).To(HaveLen(1))

			cfg.ZeroRegister = true
			Expect(core.NewCore(cfg).Track(src).Dependences(deps.RAW)).To(BeEmpty())
		})
	})

	Describe("RunPolicies", func() {
		It("should return one schedule per policy in order", func() {
			schedules, err := core.NewCore(cfg).RunPolicies(context.Background(), prog,
				pipeline.PolicyStall, pipeline.PolicyIdeal, pipeline.PolicyForward)
			Expect(err).NotTo(HaveOccurred())
			Expect(schedules).To(HaveLen(3))
			Expect(schedules[0].PipelineType).To(Equal("STALL"))
			Expect(schedules[1].PipelineType).To(Equal("IDEAL"))
			Expect(schedules[2].PipelineType).To(Equal("FORWARDING"))

			Expect(schedules[1].TotalCycles).To(BeNumerically("<=", schedules[2].TotalCycles))
			Expect(schedules[2].TotalCycles).To(BeNumerically("<=", schedules[0].TotalCycles))
		})

		It("should match sequential runs", func() {
			c := core.NewCore(cfg)
			schedules, err := c.RunPolicies(context.Background(), prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(schedules).To(HaveLen(len(pipeline.AllPolicies)))

			for i, kind := range pipeline.AllPolicies {
				s, err := c.RunPolicy(prog, kind)
				Expect(err).NotTo(HaveOccurred())
				Expect(schedules[i]).To(Equal(s))
			}
		})

		It("should honor a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := core.NewCore(cfg).RunPolicies(ctx, prog)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
