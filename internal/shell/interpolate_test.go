package shell_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/earther/internal/shell"
)

var _ = Describe("Interpolate", func() {
	It("tweens from a towards b without including b", func() {
		frames, err := shell.Interpolate(shell.Snapshot{0, 0, 0}, shell.Snapshot{10, 10, 10}, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(Equal([]shell.Snapshot{
			{0, 0, 0},
			{2.5, 2.5, 2.5},
			{5, 5, 5},
			{7.5, 7.5, 7.5},
		}))
	})

	It("returns a copy of a as the first frame", func() {
		a := shell.Snapshot{1, 2}
		frames, err := shell.Interpolate(a, shell.Snapshot{3, 4}, 2)
		Expect(err).NotTo(HaveOccurred())
		frames[0][0] = 99
		Expect(a[0]).To(Equal(1.0))
	})

	It("rejects a non-positive step count", func() {
		_, err := shell.Interpolate(shell.Snapshot{1}, shell.Snapshot{2}, 0)
		Expect(errors.Is(err, shell.ErrInvalidStepCount)).To(BeTrue())
	})

	It("rejects snapshots of different shapes", func() {
		_, err := shell.Interpolate(shell.Snapshot{1, 2}, shell.Snapshot{2}, 4)
		Expect(shell.IsShapeMismatch(err)).To(BeTrue())
	})
})

var _ = Describe("FrameSequence", func() {
	It("reports the last frame reachable from frame 0", func() {
		seq := shell.NewFrameSequence(2)
		Expect(seq.LastContiguous()).To(Equal(-1))

		seq.Fill(1, []shell.Snapshot{{2}, {3}})
		Expect(seq.Len()).To(Equal(4))
		Expect(seq.LastContiguous()).To(Equal(-1))
		Expect(seq.At(0)).To(BeNil())

		seq.Fill(0, []shell.Snapshot{{0}, {1}})
		Expect(seq.LastContiguous()).To(Equal(3))
		Expect(seq.At(2)).To(Equal(shell.Snapshot{2}))

		seq.Reset()
		Expect(seq.Len()).To(BeZero())
	})
})
