package compute

import (
	"runtime"
	"sync"
)

var workers = runtime.NumCPU()

// ParallelFor splits [0, n) into contiguous chunks and runs fn on each
// chunk concurrently. Work smaller than minChunk stays on the calling
// goroutine. fn must tolerate concurrent calls on disjoint ranges.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
