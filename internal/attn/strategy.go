// Package attn implements scaled dot-product attention with three
// interchangeable strategies: a naive reference, a tiled variant staging
// key/value blocks through scratch memory, and a streaming variant that
// never materializes the score matrix. All three produce identical results
// within floating-point tolerance.
package attn

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"
)

// Strategy computes attention over Q, K, V into out. Buffers are borrowed
// for the duration of one Run call and never retained. Out is fully
// overwritten on success.
type Strategy interface {
	Name() string
	Run(w config.Workload, q, k, v, out []float32) error
	// ScratchBytes estimates the working memory Run allocates beyond the
	// four tensors themselves.
	ScratchBytes(w config.Workload) int64
}

// Options are shared by all strategies.
type Options struct {
	// Workers caps the number of parallel workers. Zero means NumCPU.
	Workers int
	// Causal masks key positions after the query position. Off by default:
	// full bidirectional attention is the baseline contract.
	Causal bool
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// ByName builds a strategy with default tile parameters. "shared" is an
// accepted alias for "tiled", matching the name older analysis tooling
// filters on.
func ByName(name string, opts Options) (Strategy, error) {
	switch name {
	case "naive":
		return NewNaive(opts), nil
	case "tiled", "shared":
		return NewTiled(TiledOptions{Options: opts}), nil
	case "flash":
		return NewFlash(FlashOptions{Options: opts}), nil
	}
	return nil, fmt.Errorf("unknown strategy %q (want naive, tiled or flash)", name)
}

// DefaultSeqLen is the benchmark default sequence length per strategy.
// The cheaper the memory behavior, the longer the default sweep point.
func DefaultSeqLen(name string) int {
	switch name {
	case "tiled":
		return 1024
	case "flash":
		return 2048
	default:
		return 256
	}
}

func checkArgs(w config.Workload, q, k, v, out []float32) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}
	n := w.Elements()
	if len(q) != n || len(k) != n || len(v) != n || len(out) != n {
		return fmt.Errorf("%w: buffer lengths q=%d k=%d v=%d out=%d, want %d",
			ErrDimensionMismatch, len(q), len(k), len(v), len(out), n)
	}
	return nil
}

// parallelFor splits [0, n) into contiguous chunks across workers and blocks
// until all chunks finish.
func parallelFor(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for i := 0; i < n; i += chunk {
		end := i + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(i, end)
	}
	wg.Wait()
}
