// Package parallel splits row-wise work across goroutines. Callers must only
// write to the rows of their own [start, end) range.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which work runs on the caller's
// goroutine. Copying or predicting a few thousand rows is faster than
// scheduling workers for them.
const DefaultThreshold = 4096

// Parallelize divides items into contiguous chunks, one per available CPU,
// and runs fn on each chunk concurrently. It returns when all chunks finish.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > items {
		workers = items
	}
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := start + chunk
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) sequentially when items does not
// exceed threshold and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
