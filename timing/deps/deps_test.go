package deps_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hazardsim/insts"
	"github.com/sarchlab/hazardsim/timing/deps"
)

func add(rd, rs, rt uint8) *insts.Instruction {
	return &insts.Instruction{Op: insts.OpADD, Class: insts.ClassArithmetic, Rs: rs, Rt: rt, Rd: rd}
}

func lw(rt, rs uint8) *insts.Instruction {
	return &insts.Instruction{Op: insts.OpLW, Class: insts.ClassMemory, Rs: rs, Rt: rt, Rd: insts.NoReg}
}

func sw(rt, rs uint8) *insts.Instruction {
	return &insts.Instruction{Op: insts.OpSW, Class: insts.ClassMemory, Rs: rs, Rt: rt, Rd: insts.NoReg}
}

func beq(rs, rt uint8) *insts.Instruction {
	return &insts.Instruction{Op: insts.OpBEQ, Class: insts.ClassControl, Rs: rs, Rt: rt, Rd: insts.NoReg}
}

var _ = Describe("Tracker", func() {
	var tracker *deps.Tracker

	BeforeEach(func() {
		tracker = deps.NewTracker(insts.NumRegisters)
	})

	Context("two-instruction streams", func() {
		It("should record RAW when a read follows a write", func() {
			tracker.Record(add(5, 1, 2))
			tracker.Record(add(6, 5, 3))

			Expect(tracker.Dependences()).To(Equal([]deps.Dependence{
				{Register: 5, Earlier: 0, Later: 1, Kind: deps.RAW},
			}))
		})

		It("should record WAR when a write follows a read", func() {
			tracker.Record(add(6, 5, 3))
			tracker.Record(add(5, 1, 2))

			Expect(tracker.Dependences()).To(Equal([]deps.Dependence{
				{Register: 5, Earlier: 0, Later: 1, Kind: deps.WAR},
			}))
		})

		It("should record WAW when two instructions write the same register", func() {
			tracker.Record(add(5, 1, 2))
			tracker.Record(add(5, 3, 4))

			Expect(tracker.Dependences()).To(Equal([]deps.Dependence{
				{Register: 5, Earlier: 0, Later: 1, Kind: deps.WAW},
			}))
		})

		It("should record nothing for read after read", func() {
			tracker.Record(add(5, 1, 2))
			tracker.Record(add(6, 1, 2))

			Expect(tracker.Dependences()).To(BeEmpty())
		})
	})

	Context("MostRecent", func() {
		It("should report none for an instruction without prior accesses", func() {
			tracker.Record(add(5, 1, 2))
			tracker.Record(add(8, 6, 7))

			for _, kind := range []deps.Kind{deps.RAW, deps.WAR, deps.WAW} {
				_, ok := tracker.MostRecent(1, kind)
				Expect(ok).To(BeFalse())
			}
		})

		It("should distinguish a dependence on instruction 0 from none", func() {
			tracker.Record(add(5, 1, 2))
			tracker.Record(add(6, 5, 5))

			prev, ok := tracker.MostRecent(1, deps.RAW)
			Expect(ok).To(BeTrue())
			Expect(prev).To(Equal(0))
		})

		It("should return the nearest producer", func() {
			tracker.Record(add(5, 1, 2)) // 0 writes $5
			tracker.Record(add(6, 1, 2)) // 1 writes $6
			tracker.Record(add(7, 5, 6)) // 2 reads both

			prev, ok := tracker.MostRecent(2, deps.RAW)
			Expect(ok).To(BeTrue())
			Expect(prev).To(Equal(1))
		})

		It("should let a newer write shadow an older one", func() {
			tracker.Record(add(5, 1, 2))
			tracker.Record(add(5, 3, 4))
			tracker.Record(add(6, 5, 0))

			raw := tracker.Dependences(deps.RAW)
			Expect(raw).To(HaveLen(1))
			Expect(raw[0].Earlier).To(Equal(1))
		})

		It("should panic for an unrecorded instruction", func() {
			tracker.Record(add(5, 1, 2))
			Expect(func() { tracker.MostRecent(3, deps.RAW) }).To(Panic())
			Expect(func() { tracker.MostRecent(-1, deps.RAW) }).To(Panic())
		})
	})

	Context("class-dependent operand roles", func() {
		It("should treat the store data register as a read", func() {
			tracker.Record(add(8, 1, 2))
			tracker.Record(sw(8, 29))

			Expect(tracker.Dependences()).To(Equal([]deps.Dependence{
				{Register: 8, Earlier: 0, Later: 1, Kind: deps.RAW},
			}))
		})

		It("should treat the load target as a write", func() {
			tracker.Record(add(3, 8, 1))
			tracker.Record(lw(8, 29))
			tracker.Record(add(4, 8, 8))

			Expect(tracker.Dependences()).To(Equal([]deps.Dependence{
				{Register: 8, Earlier: 0, Later: 1, Kind: deps.WAR},
				{Register: 8, Earlier: 1, Later: 2, Kind: deps.RAW},
			}))
		})

		It("should only read for BEQ", func() {
			tracker.Record(add(1, 2, 3))
			tracker.Record(beq(1, 4))
			tracker.Record(add(4, 5, 6))

			Expect(tracker.Dependences()).To(Equal([]deps.Dependence{
				{Register: 1, Earlier: 0, Later: 1, Kind: deps.RAW},
				{Register: 4, Earlier: 1, Later: 2, Kind: deps.WAR},
			}))
		})
	})

	Context("an instruction reading and writing the same register", func() {
		It("should not depend on itself", func() {
			tracker.Record(add(1, 1, 2))

			Expect(tracker.Dependences()).To(BeEmpty())
			Expect(tracker.Register(1).Access).To(Equal(deps.AccessWrite))
		})

		It("should depend on the earlier writer with RAW and WAW", func() {
			tracker.Record(add(1, 2, 3))
			tracker.Record(add(1, 1, 2))

			Expect(tracker.DependencesOf(1)).To(ConsistOf(
				deps.Dependence{Register: 1, Earlier: 0, Later: 1, Kind: deps.RAW},
				deps.Dependence{Register: 1, Earlier: 0, Later: 1, Kind: deps.WAW},
			))
		})
	})

	Context("WithZeroRegister", func() {
		It("should ignore register 0", func() {
			tracker = deps.NewTracker(insts.NumRegisters, deps.WithZeroRegister())
			tracker.Record(add(0, 1, 2))
			tracker.Record(add(3, 0, 0))

			Expect(tracker.Dependences()).To(BeEmpty())
		})
	})

	It("should filter dependences by kind", func() {
		tracker.Record(add(5, 1, 2))
		tracker.Record(add(1, 5, 2))

		Expect(tracker.Dependences(deps.RAW)).To(HaveLen(1))
		Expect(tracker.Dependences(deps.WAR)).To(HaveLen(1))
		Expect(tracker.Dependences(deps.WAW)).To(BeEmpty())
		Expect(tracker.Dependences(deps.RAW, deps.WAR)).To(HaveLen(2))
	})

	It("should encode kinds by name in JSON", func() {
		data, err := json.Marshal(deps.Dependence{Register: 2, Earlier: 0, Later: 1, Kind: deps.WAW})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"kind":"WAW"`))

		var d deps.Dependence
		Expect(json.Unmarshal(data, &d)).To(Succeed())
		Expect(d.Kind).To(Equal(deps.WAW))
	})
})
