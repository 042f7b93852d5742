// Package bench drives timed attention strategy invocations and derives
// throughput and bandwidth metrics from the workload's operation and byte
// counts.
package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/attn"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/logger"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/metrics"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/sysmem"
)

// Options controls one benchmark run.
type Options struct {
	// Warmup invocations are not timed.
	Warmup int
	// Runs is the number of timed invocations; the reported latency is the
	// minimum across them.
	Runs int
	// Seed feeds the reproducible input generator.
	Seed int64
}

func DefaultOptions() Options {
	return Options{Warmup: 2, Runs: 5, Seed: attn.DefaultSeed}
}

// Result is one benchmark record. The three derived metrics all come from
// the minimum observed latency.
type Result struct {
	Strategy      string
	Workload      config.Workload
	LatencyMS     float64
	MeanLatencyMS float64
	TFLOPS        float64
	BandwidthGBps float64
	Intensity     float64
	MemoryBound   bool
}

// Run allocates buffers, fills them reproducibly, invokes the strategy
// (warm-ups first) and derives metrics. Inputs are never mutated by the
// strategy; runs are strictly sequential so timings never overlap.
func Run(s attn.Strategy, w config.Workload, opts Options) (Result, error) {
	if err := w.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", attn.ErrDimensionMismatch, err)
	}
	if opts.Runs <= 0 {
		opts.Runs = 1
	}

	footprint := w.BytesMoved() + s.ScratchBytes(w)
	if !sysmem.Fits(footprint) {
		return Result{}, fmt.Errorf("%w: workload needs %d bytes, %d available",
			attn.ErrAllocationFailure, footprint, sysmem.Available())
	}

	n := w.Elements()
	q := make([]float32, n)
	k := make([]float32, n)
	v := make([]float32, n)
	out := make([]float32, n)
	metrics.RecordAllocation(footprint)
	defer metrics.RecordAllocation(0)

	attn.FillRandom(q, opts.Seed)
	attn.FillRandom(k, opts.Seed+1)
	attn.FillRandom(v, opts.Seed+2)

	for i := 0; i < opts.Warmup; i++ {
		if err := s.Run(w, q, k, v, out); err != nil {
			return Result{}, err
		}
	}

	var minLat, sumLat time.Duration
	for i := 0; i < opts.Runs; i++ {
		start := time.Now()
		if err := s.Run(w, q, k, v, out); err != nil {
			return Result{}, err
		}
		elapsed := time.Since(start)
		sumLat += elapsed
		if i == 0 || elapsed < minLat {
			minLat = elapsed
		}
	}

	seconds := minLat.Seconds()
	r := Result{
		Strategy:      s.Name(),
		Workload:      w,
		LatencyMS:     float64(minLat.Nanoseconds()) / 1e6,
		MeanLatencyMS: float64(sumLat.Nanoseconds()) / float64(opts.Runs) / 1e6,
		TFLOPS:        w.FLOPs() / seconds / 1e12,
		BandwidthGBps: float64(w.BytesMoved()) / seconds / 1e9,
		Intensity:     w.ArithmeticIntensity(),
		MemoryBound:   w.MemoryBound(),
	}

	metrics.RecordRun(r.Strategy, minLat, r.TFLOPS, r.BandwidthGBps)
	logger.Log.Debug("benchmark run complete",
		"strategy", r.Strategy,
		"seq_len", w.SeqLen,
		"latency_ms", r.LatencyMS,
		"tflops", r.TFLOPS,
		"bandwidth_gbps", r.BandwidthGBps,
	)

	return r, nil
}

// SelfTest runs the fast strategy and the reference on identical inputs
// and compares elementwise within the acceptance tolerance.
func SelfTest(fast attn.Strategy, w config.Workload, causal bool, seed int64) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: %v", attn.ErrDimensionMismatch, err)
	}

	footprint := 5*w.TensorBytes() + w.ScoreBytes() + fast.ScratchBytes(w)
	if !sysmem.Fits(footprint) {
		return fmt.Errorf("%w: self-test needs %d bytes, %d available",
			attn.ErrAllocationFailure, footprint, sysmem.Available())
	}

	n := w.Elements()
	q := make([]float32, n)
	k := make([]float32, n)
	v := make([]float32, n)
	attn.FillRandom(q, seed)
	attn.FillRandom(k, seed+1)
	attn.FillRandom(v, seed+2)

	ref := make([]float32, n)
	if err := attn.NewNaive(attn.Options{Causal: causal}).Run(w, q, k, v, ref); err != nil {
		return err
	}

	got := make([]float32, n)
	if err := fast.Run(w, q, k, v, got); err != nil {
		return err
	}

	if err := attn.Compare(ref, got, attn.Tolerance); err != nil {
		metrics.RecordVerificationFailure(fast.Name())
		return fmt.Errorf("strategy %s: %w", fast.Name(), err)
	}
	return nil
}

// Report writes the line-oriented run report. The Latency, Throughput and
// Bandwidth lines are stable for pattern-matching consumers.
func Report(out io.Writer, r Result) {
	bound := "NO"
	if r.MemoryBound {
		bound = "YES"
	}
	fmt.Fprintf(out, "=== %s ===\n", r.Strategy)
	fmt.Fprintf(out, "Workload: batch=%d heads=%d seq_len=%d head_dim=%d\n",
		r.Workload.Batch, r.Workload.Heads, r.Workload.SeqLen, r.Workload.HeadDim)
	fmt.Fprintf(out, "Latency: %.3f ms\n", r.LatencyMS)
	fmt.Fprintf(out, "Throughput: %.4f TFLOPS\n", r.TFLOPS)
	fmt.Fprintf(out, "Bandwidth: %.2f GB/s\n", r.BandwidthGBps)
	fmt.Fprintf(out, "Arithmetic Intensity: %.2f FLOP/byte\n", r.Intensity)
	fmt.Fprintf(out, "Memory-bound: %s\n", bound)
}
