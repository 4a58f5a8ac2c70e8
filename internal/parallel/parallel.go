// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config configures parallel processing behavior.
type Config struct {
	// Workers is the number of goroutines. 0 means runtime.GOMAXPROCS(0).
	Workers int

	// GrainSize is the minimum number of items per worker. Smaller jobs
	// run on the calling goroutine.
	GrainSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Workers: 0, GrainSize: 1}
}

var (
	config   = DefaultConfig()
	configMu sync.RWMutex
)

// SetConfig sets the global configuration.
func SetConfig(c Config) {
	configMu.Lock()
	defer configMu.Unlock()
	config = c
}

// GetConfig returns the current configuration.
func GetConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

func workers(c Config) int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// Range calls fn on contiguous half-open sub-ranges that cover [0, n),
// one per worker, and waits for all of them.
func Range(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	c := GetConfig()
	w := workers(c)
	if w == 1 || n <= c.GrainSize*w {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	chunk := (n + w - 1) / w
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(lo, hi)
		}()
	}
	wg.Wait()
}

// For runs fn(i) for i in [0, n).
func For(n int, fn func(i int)) {
	Range(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i)
		}
	})
}

// ForErr runs fn(i) for i in [0, n). A worker stops at its first failure;
// the returned error is the one with the lowest index, so the result does
// not depend on scheduling.
func ForErr(n int, fn func(i int) error) error {
	errs := make([]error, n)
	Range(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if err := fn(i); err != nil {
				errs[i] = err
				return
			}
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
