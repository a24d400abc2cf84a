package fixpoint_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ljmartin/timemachine/internal/fixpoint"
)

var allChannels = []fixpoint.Channel{
	fixpoint.Force,
	fixpoint.GradCharge,
	fixpoint.GradSigma,
	fixpoint.GradEpsilon,
	fixpoint.GradOffset,
}

var _ = Describe("codec", func() {
	It("round-trips representable values within one quantum", func() {
		rng := rand.New(rand.NewSource(1))
		for _, c := range allChannels {
			for i := 0; i < 1000; i++ {
				x := (rng.Float64() - 0.5) * 2e5
				got := fixpoint.Decode(fixpoint.Encode(x, c), c)
				Expect(math.Abs(got-x)).To(BeNumerically("<=", fixpoint.Quantum(c)),
					"channel %s value %v", c, x)
			}
		}
	})

	It("rounds to nearest at encode time", func() {
		q := fixpoint.Quantum(fixpoint.Force)
		Expect(fixpoint.Encode(0.4*q, fixpoint.Force)).To(Equal(int64(0)))
		Expect(fixpoint.Encode(0.6*q, fixpoint.Force)).To(Equal(int64(1)))
		Expect(fixpoint.Encode(-0.6*q, fixpoint.Force)).To(Equal(int64(-1)))
	})

	It("keeps channel exponents distinct per parameter kind", func() {
		x := 1.0
		Expect(fixpoint.Encode(x, fixpoint.GradSigma)).To(Equal(2 * fixpoint.Encode(x, fixpoint.GradCharge)))
		Expect(fixpoint.Encode(x, fixpoint.GradEpsilon)).To(Equal(4 * fixpoint.Encode(x, fixpoint.GradCharge)))
		Expect(fixpoint.Encode(x, fixpoint.GradOffset)).To(Equal(fixpoint.Encode(x, fixpoint.Force)))
	})

	It("decodes exactly, without re-rounding", func() {
		v := int64(123456789)
		Expect(fixpoint.Decode(v, fixpoint.Force) * (1 / fixpoint.Quantum(fixpoint.Force))).To(Equal(float64(v)))
	})
})

var _ = Describe("energy accumulation", func() {
	It("sums slots independent of order", func() {
		slots := []int64{12, -7, math.MaxInt64 / 2, -math.MaxInt64 / 3, 99}
		perm := []int64{99, -math.MaxInt64 / 3, 12, math.MaxInt64 / 2, -7}
		Expect(fixpoint.SumEnergy(slots)).To(Equal(fixpoint.SumEnergy(perm)))
	})

	It("matches plain addition while in range", func() {
		slots := []int64{1 << 36, -(3 << 36), 5 << 36}
		total := fixpoint.SumEnergy(slots)
		Expect(fixpoint.Overflowed(total)).To(BeFalse())
		Expect(fixpoint.EnergyToFloat(total)).To(Equal(3.0))
	})

	It("carries across the 64-bit limb", func() {
		total := fixpoint.FromInt64(-2).AddInt64(5)
		Expect(total).To(Equal(fixpoint.FromInt64(3)))
		total = fixpoint.FromInt64(3).AddInt64(-5)
		Expect(total).To(Equal(fixpoint.FromInt64(-2)))
	})

	It("reports overflow at and beyond the int64 boundary", func() {
		Expect(fixpoint.Overflowed(fixpoint.FromInt64(math.MaxInt64))).To(BeTrue())
		Expect(fixpoint.Overflowed(fixpoint.FromInt64(math.MinInt64))).To(BeTrue())
		Expect(fixpoint.Overflowed(fixpoint.FromInt64(math.MaxInt64).AddInt64(math.MaxInt64))).To(BeTrue())
		Expect(fixpoint.Overflowed(fixpoint.FromInt64(math.MinInt64).AddInt64(math.MinInt64))).To(BeTrue())
	})

	It("does not report overflow just below the boundary", func() {
		Expect(fixpoint.Overflowed(fixpoint.FromInt64(math.MaxInt64 - 1))).To(BeFalse())
		Expect(fixpoint.Overflowed(fixpoint.FromInt64(math.MinInt64 + 1))).To(BeFalse())
		near := fixpoint.SumEnergy([]int64{math.MaxInt64 - 10, 9})
		Expect(fixpoint.Overflowed(near)).To(BeFalse())
	})

	It("decodes an overflowed total to NaN", func() {
		over := fixpoint.SumEnergy([]int64{math.MaxInt64 - 1, math.MaxInt64 - 1})
		Expect(fixpoint.Overflowed(over)).To(BeTrue())
		Expect(math.IsNaN(fixpoint.EnergyToFloat(over))).To(BeTrue())
	})

	It("recovers when a transient excursion cancels", func() {
		total := fixpoint.FromInt64(math.MaxInt64 - 1).AddInt64(1000).AddInt64(-2000)
		Expect(fixpoint.Overflowed(total)).To(BeFalse())
		Expect(total).To(Equal(fixpoint.FromInt64(math.MaxInt64 - 1001)))
	})
})
