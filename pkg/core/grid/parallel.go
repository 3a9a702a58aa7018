package grid

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the input size below which phases run on the calling
// goroutine.
const parallelThreshold = 4096

// chunksPerWorker oversplits the input so that uneven chunks balance out.
const chunksPerWorker = 4

func resolveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

// chunks splits [0, n) into contiguous ranges for the given worker count.
func chunks(n, workers int) [][2]int {
	if n == 0 {
		return nil
	}
	count := workers * chunksPerWorker
	if count > n {
		count = n
	}
	size := (n + count - 1) / count
	out := make([][2]int, 0, count)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		out = append(out, [2]int{lo, hi})
	}
	return out
}

// forEachChunk runs fn over contiguous chunks of [0, n). Chunk c always
// covers the c-th range returned by chunks, so callers can write results
// into per-chunk slots and concatenate them in order afterwards. The call
// returns after every started chunk has finished.
func forEachChunk(ctx context.Context, n, workers int, fn func(c, lo, hi int) error) error {
	workers = resolveWorkers(workers)
	parts := chunks(n, workers)
	if workers == 1 || n < parallelThreshold {
		for c, r := range parts {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(c, r[0], r[1]); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c, r := range parts {
		c, r := c, r // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(c, r[0], r[1])
		})
	}
	return g.Wait()
}
