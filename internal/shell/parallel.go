package shell

import (
	"runtime"
	"sync"
)

// paintChunk is the smallest cell range worth handing to its own goroutine.
const paintChunk = 4096

// ParallelFor splits [0, n) into contiguous chunks of at least minChunk and
// runs fn on each concurrently. Small ranges run inline.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if n <= minChunk || workers <= 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
