package shell_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/san-kum/earther/internal/shell"
)

var _ = Describe("KeyframeStore", func() {
	var store *shell.KeyframeStore

	BeforeEach(func() {
		store = shell.NewKeyframeStore(4, 3, zerolog.Nop())
		store.Configure([]float64{31, 59, 90}, shell.FlatLevel)
	})

	It("fills a segment once both ends arrive", func() {
		Expect(store.Ingest(0, filled(3, 0))).To(Succeed())
		Expect(store.SegmentsDone()).To(BeZero())
		Expect(store.Frames().LastContiguous()).To(Equal(-1))

		Expect(store.Ingest(1, filled(3, 10))).To(Succeed())
		Expect(store.SegmentsDone()).To(Equal(1))
		Expect(store.Frames().LastContiguous()).To(Equal(3))
		Expect(store.Frames().At(1)).To(Equal(filled(3, 2.5)))
	})

	It("handles keyframes arriving out of order", func() {
		Expect(store.Ingest(2, filled(3, 20))).To(Succeed())
		Expect(store.Ingest(1, filled(3, 10))).To(Succeed())
		Expect(store.SegmentsDone()).To(Equal(1))
		Expect(store.Frames().LastContiguous()).To(Equal(-1))

		Expect(store.Ingest(0, filled(3, 0))).To(Succeed())
		Expect(store.SegmentsDone()).To(Equal(2))
		Expect(store.Frames().LastContiguous()).To(Equal(7))
		Expect(store.Frames().At(4)).To(Equal(filled(3, 10)))
	})

	It("never redoes a filled segment", func() {
		Expect(store.Ingest(0, filled(3, 0))).To(Succeed())
		Expect(store.Ingest(1, filled(3, 10))).To(Succeed())

		Expect(store.Ingest(1, filled(3, 50))).To(Succeed())
		Expect(store.SegmentsDone()).To(Equal(1))
		Expect(store.Frames().At(2)).To(Equal(filled(3, 5)))
	})

	It("interpolates every pair exactly once across staggered arrivals", func() {
		store.Configure([]float64{31, 59, 90, 120, 151, 181}, shell.FlatLevel)
		fills := map[int]map[*float64]bool{}
		record := func() {
			for seg := 0; seg < 5; seg++ {
				frame := store.Frames().At(seg * 4)
				if frame == nil {
					continue
				}
				if fills[seg] == nil {
					fills[seg] = map[*float64]bool{}
				}
				fills[seg][&frame[0]] = true
			}
		}
		ingest := func(indexes ...int) {
			for _, i := range indexes {
				Expect(store.Ingest(i, filled(3, float64(i*10)))).To(Succeed())
				record()
			}
		}

		ingest(0, 1, 2)
		Expect(store.SegmentsDone()).To(Equal(2))
		Expect(store.Frames().LastContiguous()).To(Equal(7))

		ingest(4, 5)
		Expect(store.SegmentsDone()).To(Equal(3))
		Expect(store.Frames().LastContiguous()).To(Equal(7))

		ingest(3)
		Expect(store.SegmentsDone()).To(Equal(5))
		Expect(store.Frames().LastContiguous()).To(Equal(19))
		Expect(store.Frames().At(14)).To(Equal(filled(3, 35)))

		ingest(0, 1, 2, 3, 4, 5)
		Expect(fills).To(HaveLen(5))
		for seg, seen := range fills {
			Expect(seen).To(HaveLen(1), "segment %d filled more than once", seg)
		}
	})

	It("rejects indexes outside the configured slots", func() {
		err := store.Ingest(3, filled(3, 0))
		Expect(errors.Is(err, shell.ErrSlotOutOfRange)).To(BeTrue())
		Expect(store.LoadedCount()).To(BeZero())
	})

	It("leaves a gap where a keyframe failed", func() {
		Expect(store.Ingest(0, filled(3, 0))).To(Succeed())
		store.Fail(1, errors.New("503"))
		Expect(store.Ingest(2, filled(3, 20))).To(Succeed())

		slot, ok := store.Slot(1)
		Expect(ok).To(BeTrue())
		Expect(slot.Failed).To(BeTrue())
		Expect(store.SegmentsDone()).To(BeZero())
		Expect(store.Frames().LastContiguous()).To(Equal(-1))
	})

	It("skips segments whose snapshots do not match the grid", func() {
		Expect(store.Ingest(0, filled(2, 0))).To(Succeed())
		Expect(store.Ingest(1, filled(2, 10))).To(Succeed())
		Expect(store.SegmentsDone()).To(BeZero())
		Expect(store.Frames().Len()).To(BeZero())
	})

	It("starts over when reconfigured", func() {
		Expect(store.Ingest(0, filled(3, 0))).To(Succeed())
		Expect(store.Ingest(1, filled(3, 10))).To(Succeed())

		store.Configure([]float64{31, 59}, 3)
		Expect(store.Level()).To(Equal(3))
		Expect(store.LoadedCount()).To(BeZero())
		Expect(store.Slots()).To(HaveLen(2))
		Expect(store.Frames().Len()).To(BeZero())
	})
})
