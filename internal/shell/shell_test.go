package shell_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/earther/internal/geo"
	"github.com/san-kum/earther/internal/shell"
)

type frameCounter struct {
	frames []shell.Snapshot
}

func (c *frameCounter) OnFrame(frame shell.Snapshot, materials []int) {
	c.frames = append(c.frames, frame)
}

func newShell(cells, steps int) *shell.Shell {
	opts := shell.DefaultOptions()
	opts.FramesPerSegment = steps
	return shell.New(newGrid(cells), opts)
}

var _ = Describe("Shell", func() {
	var (
		s   *shell.Shell
		obs *frameCounter
	)

	BeforeEach(func() {
		s = newShell(3, 4)
		obs = &frameCounter{}
		s.AddObserver(obs)
		Expect(s.Configure(shell.Variable{RunID: "i-1", Model: "cam", VarName: "TS", Level: shell.FlatLevel, Units: "K"})).To(Succeed())
	})

	Context("fed keyframes directly", func() {
		BeforeEach(func() {
			s.Prepare([]float64{31, 59, 90}, shell.Display{Mode: shell.ModeBimodal, Height: shell.HeightAbove(shell.DefaultHeight)})
		})

		It("does nothing until the first keyframe arrives", func() {
			Expect(s.State()).To(Equal(shell.Loading))
			Expect(s.Tick()).To(BeFalse())
			Expect(s.Shown()).To(Equal(-1))
		})

		It("becomes ready on the first keyframe", func() {
			Expect(s.Ingest(0, shell.Snapshot{0, 5, 10})).To(Succeed())
			Expect(s.State()).To(Equal(shell.Ready))
			Expect(s.DisplayConfig().Min).To(Equal(0.0))
			Expect(s.DisplayConfig().Max).To(Equal(10.0))
			Expect(s.Faces()).To(HaveLen(3 * shell.FacesPerCell))
			Expect(s.Mesh().Vertices).To(HaveLen(3 * geo.CornersPerCell))
			Expect(s.Mesh().Faces).To(HaveLen(3 * shell.FacesPerCell))
			Expect(s.Materials()).To(Equal([]int{60, 0, 60}))
			Expect(s.Groups()).NotTo(BeEmpty())
		})

		It("ticks without painting while no segment is filled", func() {
			Expect(s.Ingest(0, shell.Snapshot{0, 5, 10})).To(Succeed())
			Expect(s.Tick()).To(BeFalse())
			Expect(s.State()).To(Equal(shell.Ready))
			Expect(obs.frames).To(BeEmpty())
		})

		It("cycles over the contiguous frames", func() {
			Expect(s.Ingest(0, shell.Snapshot{0, 5, 10})).To(Succeed())
			Expect(s.Ingest(1, shell.Snapshot{10, 5, 0})).To(Succeed())

			var shown []int
			for i := 0; i < 4; i++ {
				Expect(s.Tick()).To(BeTrue())
				shown = append(shown, s.Shown())
			}
			Expect(shown).To(Equal([]int{0, 1, 2, 0}))
			Expect(s.State()).To(Equal(shell.Animating))
			Expect(s.LastContiguous()).To(Equal(3))
			Expect(obs.frames).To(HaveLen(4))
			Expect(obs.frames[1]).To(Equal(shell.Snapshot{2.5, 5, 7.5}))

			t, ok := s.ShownTime()
			Expect(ok).To(BeTrue())
			Expect(t).To(Equal(31.0))
		})

		It("extends the loop as later segments fill", func() {
			Expect(s.Ingest(0, shell.Snapshot{0, 5, 10})).To(Succeed())
			Expect(s.Ingest(1, shell.Snapshot{10, 5, 0})).To(Succeed())
			s.Tick()
			Expect(s.Ingest(2, shell.Snapshot{0, 5, 10})).To(Succeed())
			s.Tick()
			Expect(s.LastContiguous()).To(Equal(7))
		})

		It("keeps group ranges in step with the painted frame", func() {
			Expect(s.Ingest(0, shell.Snapshot{0, 5, 10})).To(Succeed())
			Expect(s.Ingest(1, shell.Snapshot{0, 5, 10})).To(Succeed())
			Expect(s.Tick()).To(BeTrue())

			total := 0
			for _, g := range s.Groups() {
				Expect(g.MaterialIndex).To(BeNumerically("<", shell.MaterialLevels))
				total += g.Count
			}
			Expect(total).To(Equal(3 * shell.FacesPerCell * shell.VerticesPerFace))
		})

		It("stays loading when the first keyframe does not fit the grid", func() {
			err := s.Ingest(0, shell.Snapshot{1, 2})
			Expect(shell.IsShapeMismatch(err)).To(BeTrue())
			Expect(s.State()).To(Equal(shell.Loading))

			Expect(s.Ingest(0, shell.Snapshot{1, 2, 3})).To(Succeed())
			Expect(s.State()).To(Equal(shell.Ready))
		})
	})

	It("holds the cursor on a single frame", func() {
		one := newShell(3, 1)
		Expect(one.Configure(shell.Variable{Model: "cam", VarName: "TS", Level: shell.FlatLevel})).To(Succeed())
		one.Prepare([]float64{31, 59}, shell.Display{Mode: shell.ModeDefault})
		Expect(one.Ingest(0, shell.Snapshot{1, 2, 3})).To(Succeed())
		Expect(one.Ingest(1, shell.Snapshot{4, 5, 6})).To(Succeed())

		for i := 0; i < 3; i++ {
			Expect(one.Tick()).To(BeTrue())
			Expect(one.Shown()).To(Equal(0))
			Expect(one.Cursor()).To(Equal(0))
		}
	})

	Context("fetching keyframes", func() {
		ctx := context.Background()
		display := shell.Display{Mode: shell.ModeIncreasing, Color: shell.White}

		It("refuses to load before a variable is configured", func() {
			fresh := newShell(3, 4)
			err := fresh.SetDisplay(ctx, &stubFetcher{}, display)
			Expect(errors.Is(err, shell.ErrNotConfigured)).To(BeTrue())
		})

		It("loads every time step in the background", func() {
			f := &stubFetcher{times: []float64{31, 59, 90}, cells: 3}
			Expect(s.SetDisplay(ctx, f, display)).To(Succeed())
			Expect(s.State()).To(Equal(shell.Loading))

			Eventually(func() shell.State {
				s.Tick()
				return s.State()
			}).Should(Equal(shell.Animating))
			Eventually(func() int {
				s.Tick()
				return s.Store().LoadedCount()
			}).Should(Equal(3))
			Expect(s.Times()).To(Equal([]float64{31, 59, 90}))
			s.Discard()
		})

		It("records failed time steps as gaps", func() {
			f := &stubFetcher{
				times:  []float64{31, 59, 90},
				cells:  3,
				failAt: map[float64]error{59: errors.New("status 500")},
			}
			Expect(s.SetDisplay(ctx, f, display)).To(Succeed())

			Eventually(func() bool {
				s.Tick()
				slot, _ := s.Store().Slot(1)
				return slot.Failed
			}).Should(BeTrue())
			Eventually(func() int {
				s.Tick()
				return s.Store().LoadedCount()
			}).Should(Equal(2))
			Expect(s.State()).To(Equal(shell.Ready))
			Expect(s.LastContiguous()).To(Equal(-1))
			s.Discard()
		})

		It("cancels pending fetches when discarded", func() {
			f := &stubFetcher{times: []float64{31, 59, 90}, cells: 3, block: true}
			Expect(s.SetDisplay(ctx, f, display)).To(Succeed())
			Eventually(f.Started).Should(Equal(3))

			s.Discard()
			Eventually(f.Cancelled).Should(Equal(3))
			Expect(s.State()).To(Equal(shell.Discarded))
			Expect(s.Tick()).To(BeFalse())
			Expect(errors.Is(s.Ingest(0, shell.Snapshot{1, 2, 3}), shell.ErrDiscarded)).To(BeTrue())
			Expect(errors.Is(s.Configure(shell.Variable{VarName: "X"}), shell.ErrDiscarded)).To(BeTrue())
		})
	})
})

var _ = Describe("Variable", func() {
	It("keys flat and layered variables", func() {
		Expect(shell.Variable{Model: "cam", VarName: "TS", Level: shell.FlatLevel}.Key()).To(Equal("cam/TS"))
		Expect(shell.Variable{Model: "cam", VarName: "T", Level: 3}.Key()).To(Equal("cam/T@3"))
	})
})

var _ = Describe("Height", func() {
	cell := geo.Cell{Atts: geo.Attributes{StdElev: 1000, HasElevation: true}}

	It("sits just above the terrain on the ground", func() {
		r := shell.HeightGround.Radius(geo.EarthRadius, cell, shell.FlatLevel)
		Expect(r).To(BeNumerically("~", geo.EarthRadius+geo.EarthRadius*0.01+0.1, 1e-9))
	})

	It("stacks levels above a fixed multiple of the radius", func() {
		r := shell.HeightAbove(1.02).Radius(geo.EarthRadius, cell, 3)
		Expect(r).To(BeNumerically("~", geo.EarthRadius*1.023, 1e-9))
	})

	It("parses catalog heights", func() {
		Expect(shell.ParseHeight("ground")).To(Equal(shell.HeightGround))
		Expect(shell.ParseHeight("1.01").Scale).To(Equal(1.01))
		Expect(math.Abs(shell.ParseHeight("").Scale - shell.DefaultHeight)).To(BeNumerically("<", 1e-12))
	})
})
