// Package parallel provides bounded fan-out of independent calls.
package parallel

import (
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Maximum number of calls in flight.
}

// DefaultConfig returns defaults suited to network-bound calls.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		NumWorkers: 8,
	}
}

// For executes f(i) for i in [0, n) with at most cfg.NumWorkers calls in
// flight, and returns once every call has returned.
//
// Calls may complete in any order; f must write its result to index i of a
// caller-owned slice rather than append.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	workers := min(cfg.NumWorkers, n)
	next := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				f(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		next <- i
	}
	close(next)
	wg.Wait()
}
