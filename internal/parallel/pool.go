// Package parallel provides the fork/join worker pool used by the solver.
//
// Every call blocks until all of its work has finished, so each call is a
// full barrier. The pool holds no goroutines between calls.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool runs data-parallel loops over at most Workers goroutines.
type Pool struct {
	workers int
}

// New returns a pool with the given worker count. A count below one selects
// runtime.NumCPU().
func New(workers int) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers}
}

func (p *Pool) Workers() int { return p.workers }

// For splits [0, n) into contiguous chunks of at least minChunk items and
// runs fn once per chunk.
func (p *Pool) For(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if p.workers <= 1 || n <= minChunk {
		fn(0, n)
		return
	}

	workers := p.workers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
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

// Each runs fn(i) for every i in [0, n), one task per item, with at most
// Workers tasks in flight. With a single worker the items run in order on
// the calling goroutine.
func (p *Pool) Each(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if p.workers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
