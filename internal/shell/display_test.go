package shell_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/earther/internal/shell"
)

func ramp(n int) shell.Snapshot {
	s := make(shell.Snapshot, n)
	for i := range s {
		s[i] = float64(i)
	}
	return s
}

var _ = Describe("DisplayConfig", func() {
	Describe("TrimmedRange", func() {
		It("drops outliers from both ends", func() {
			lo, hi := shell.TrimmedRange(ramp(300), shell.OutlierTrim)
			Expect(lo).To(Equal(100.0))
			Expect(hi).To(Equal(200.0))
		})

		It("uses the full range of short snapshots", func() {
			lo, hi := shell.TrimmedRange(shell.Snapshot{5, -1, 3}, shell.OutlierTrim)
			Expect(lo).To(Equal(-1.0))
			Expect(hi).To(Equal(5.0))
		})

		It("sorts numerically", func() {
			lo, hi := shell.TrimmedRange(shell.Snapshot{10, 9, 100}, 0)
			Expect(lo).To(Equal(9.0))
			Expect(hi).To(Equal(100.0))
		})
	})

	Describe("bimodal", func() {
		cfg := shell.DisplayConfig{Mode: shell.ModeBimodal, Min: 0, Max: 10}

		It("colors the midpoint hot", func() {
			Expect(cfg.Color(5)).To(Equal(shell.Hot))
			Expect(cfg.Color(4.9)).To(Equal(shell.Cold))
		})

		It("is transparent at the midpoint and densest at the ends", func() {
			Expect(cfg.MaterialIndex(5)).To(Equal(0))
			Expect(cfg.MaterialIndex(0)).To(Equal(60))
			Expect(cfg.MaterialIndex(10)).To(Equal(60))
		})
	})

	Describe("coverage", func() {
		It("scales fractions directly", func() {
			cfg := shell.DisplayConfig{Mode: shell.ModeCoverage, Units: "frac", BaseColor: shell.White, Min: 0.2, Max: 0.4}
			Expect(cfg.MaterialIndex(0.5)).To(Equal(49))
			Expect(cfg.MaterialIndex(1)).To(Equal(99))
			Expect(cfg.Color(0.5)).To(Equal(shell.White))
		})

		It("scales other units across the range", func() {
			cfg := shell.DisplayConfig{Mode: shell.ModeCoverage, Units: "m", Min: 0, Max: 4}
			Expect(cfg.MaterialIndex(2)).To(Equal(37))
		})
	})

	Describe("increasing", func() {
		cfg := shell.DisplayConfig{Mode: shell.ModeIncreasing, BaseColor: shell.RGB{R: 0.2, G: 0.6, B: 1}, Min: 0, Max: 100}

		It("keeps the base color", func() {
			Expect(cfg.Color(42)).To(Equal(shell.RGB{R: 0.2, G: 0.6, B: 1}))
		})

		It("clamps values outside the range", func() {
			Expect(cfg.MaterialIndex(-50)).To(Equal(0))
			Expect(cfg.MaterialIndex(50)).To(Equal(37))
			Expect(cfg.MaterialIndex(500)).To(Equal(75))
		})
	})

	It("maps degenerate ranges to index 0", func() {
		cfg := shell.DisplayConfig{Mode: shell.ModeIncreasing, Min: 3, Max: 3}
		Expect(cfg.MaterialIndex(3)).To(Equal(0))
		bi := shell.DisplayConfig{Mode: shell.ModeBimodal, Min: 3, Max: 3}
		Expect(bi.MaterialIndex(3)).To(Equal(0))
	})

	It("keeps every mode inside the material table", func() {
		for _, mode := range []shell.Mode{shell.ModeCoverage, shell.ModeIncreasing, shell.ModeBimodal, shell.ModeDefault} {
			cfg := shell.NewDisplayConfig(mode, shell.White, "K", ramp(500))
			for _, v := range []float64{-1e9, 0, 150, 250, 499, 1e9} {
				m := cfg.MaterialIndex(v)
				Expect(m).To(BeNumerically(">=", 0))
				Expect(m).To(BeNumerically("<", shell.MaterialLevels))
			}
		}
	})

	It("parses catalog colors", func() {
		c, err := shell.ParseColor("0xff0000")
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(shell.Hot))

		c, err = shell.ParseColor("#0000ff")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Hex()).To(Equal(uint32(0x0000ff)))

		c, err = shell.ParseColor("")
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(shell.White))

		_, err = shell.ParseColor("blue")
		Expect(err).To(HaveOccurred())
	})

	It("parses display modes", func() {
		Expect(shell.ParseMode("Bimodal")).To(Equal(shell.ModeBimodal))
		Expect(shell.ParseMode("???")).To(Equal(shell.ModeDefault))
	})
})

var _ = Describe("ComputeGroups", func() {
	It("run-length encodes materials in vertex units", func() {
		groups := shell.ComputeGroups([]int{0, 0, 1, 1, 1, 2}, 3)
		Expect(groups).To(Equal([]shell.Group{
			{Start: 0, Count: 6, MaterialIndex: 0},
			{Start: 6, Count: 9, MaterialIndex: 1},
			{Start: 15, Count: 3, MaterialIndex: 2},
		}))
	})

	It("covers every face exactly once", func() {
		materials := []int{4, 4, 7, 7, 4, 0, 0, 0, 9}
		groups := shell.ComputeGroups(materials, 3)
		next := 0
		for _, g := range groups {
			Expect(g.Start).To(Equal(next))
			next += g.Count
		}
		Expect(next).To(Equal(len(materials) * 3))
	})

	It("returns nothing for no faces", func() {
		Expect(shell.ComputeGroups(nil, 3)).To(BeEmpty())
	})
})
