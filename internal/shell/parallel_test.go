package shell_test

import (
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/earther/internal/shell"
)

var _ = Describe("ParallelFor", func() {
	DescribeTable("visits every index exactly once",
		func(n, minChunk int) {
			hits := make([]int32, n)
			shell.ParallelFor(n, minChunk, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i := range hits {
				Expect(hits[i]).To(Equal(int32(1)), "index %d", i)
			}
		},
		Entry("inline", 10, 100),
		Entry("chunked", 10000, 64),
		Entry("uneven", 40962, 4096),
		Entry("zero chunk", 17, 0),
	)

	It("does nothing for an empty range", func() {
		called := false
		shell.ParallelFor(0, 8, func(int, int) { called = true })
		Expect(called).To(BeFalse())
	})
})
