package bench

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/attn"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"
)

func smallWorkload() config.Workload {
	return config.Workload{Batch: 1, Heads: 2, SeqLen: 64, HeadDim: 16}
}

func TestRun_ProducesSaneMetrics(t *testing.T) {
	w := smallWorkload()
	r, err := Run(attn.NewFlash(attn.FlashOptions{}), w, Options{Warmup: 1, Runs: 3, Seed: attn.DefaultSeed})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if r.Strategy != "flash" {
		t.Errorf("Strategy = %q, want flash", r.Strategy)
	}
	if r.LatencyMS <= 0 {
		t.Errorf("LatencyMS = %v, want positive", r.LatencyMS)
	}
	if r.MeanLatencyMS < r.LatencyMS {
		t.Errorf("mean latency %v below min latency %v", r.MeanLatencyMS, r.LatencyMS)
	}
	if r.TFLOPS <= 0 || r.BandwidthGBps <= 0 {
		t.Errorf("derived metrics not positive: %v TFLOPS, %v GB/s", r.TFLOPS, r.BandwidthGBps)
	}
	if got, want := r.Intensity, w.ArithmeticIntensity(); got != want {
		t.Errorf("Intensity = %v, want %v", got, want)
	}
}

// TestRun_BandwidthBound: the reported bandwidth is derived from the
// minimum latency, so it can never exceed bytes moved divided by that
// latency. A violation would mean the timer was misused.
func TestRun_BandwidthBound(t *testing.T) {
	w := smallWorkload()
	r, err := Run(attn.NewNaive(attn.Options{}), w, Options{Runs: 4, Seed: attn.DefaultSeed})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	peak := float64(w.BytesMoved()) / (r.LatencyMS / 1e3) / 1e9
	if r.BandwidthGBps > peak*(1+1e-9) {
		t.Errorf("bandwidth %v GB/s exceeds peak %v GB/s for min latency", r.BandwidthGBps, peak)
	}
	if math.Abs(r.BandwidthGBps-peak) > peak*1e-6 {
		t.Errorf("bandwidth %v GB/s should be derived from min latency (peak %v)", r.BandwidthGBps, peak)
	}
}

func TestRun_RejectsInvalidWorkload(t *testing.T) {
	w := config.Workload{Batch: 1, Heads: 0, SeqLen: 64, HeadDim: 16}
	_, err := Run(attn.NewNaive(attn.Options{}), w, DefaultOptions())
	if !errors.Is(err, attn.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestRun_RejectsOversizedWorkload(t *testing.T) {
	// ~34 TB of tensors: must be rejected before any allocation.
	w := config.Workload{Batch: 1 << 24, HeadDim: 128, Heads: 8, SeqLen: 4096}
	_, err := Run(attn.NewFlash(attn.FlashOptions{}), w, DefaultOptions())
	if !errors.Is(err, attn.ErrAllocationFailure) {
		t.Errorf("got %v, want ErrAllocationFailure", err)
	}
}

func TestSelfTest_FastStrategiesPass(t *testing.T) {
	w := smallWorkload()
	for _, name := range []string{"tiled", "flash"} {
		for _, causal := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/causal=%v", name, causal), func(t *testing.T) {
				s, err := attn.ByName(name, attn.Options{Causal: causal})
				if err != nil {
					t.Fatal(err)
				}
				if err := SelfTest(s, w, causal, attn.DefaultSeed); err != nil {
					t.Errorf("self-test failed: %v", err)
				}
			})
		}
	}
}

// mismatchStrategy deliberately writes garbage to exercise the failure path.
type mismatchStrategy struct{ attn.Strategy }

func (m mismatchStrategy) Run(w config.Workload, q, k, v, out []float32) error {
	if err := m.Strategy.Run(w, q, k, v, out); err != nil {
		return err
	}
	out[0] += 1.0
	return nil
}

func (m mismatchStrategy) Name() string { return "broken" }

func TestSelfTest_DetectsMismatch(t *testing.T) {
	w := smallWorkload()
	s := mismatchStrategy{Strategy: attn.NewFlash(attn.FlashOptions{})}
	err := SelfTest(s, w, false, attn.DefaultSeed)
	if !errors.Is(err, attn.ErrNumericalMismatch) {
		t.Errorf("got %v, want ErrNumericalMismatch", err)
	}
}

func TestReport_Format(t *testing.T) {
	r := Result{
		Strategy:      "tiled",
		Workload:      smallWorkload(),
		LatencyMS:     12.345,
		MeanLatencyMS: 13.0,
		TFLOPS:        1.5,
		BandwidthGBps: 123.45,
		Intensity:     8.0,
		MemoryBound:   true,
	}

	var sb strings.Builder
	Report(&sb, r)
	got := sb.String()

	for _, pattern := range []string{
		`Latency: [0-9]+\.[0-9]+`,
		`Throughput: [0-9]+\.[0-9]+`,
		`Bandwidth: [0-9]+\.[0-9]+`,
		`Memory-bound: YES`,
	} {
		if !regexp.MustCompile(pattern).MatchString(got) {
			t.Errorf("report missing %q:\n%s", pattern, got)
		}
	}
}

func BenchmarkNaive_256(b *testing.B)  { benchmarkStrategy(b, "naive", 256) }
func BenchmarkTiled_256(b *testing.B)  { benchmarkStrategy(b, "tiled", 256) }
func BenchmarkFlash_256(b *testing.B)  { benchmarkStrategy(b, "flash", 256) }
func BenchmarkFlash_1024(b *testing.B) { benchmarkStrategy(b, "flash", 1024) }

func benchmarkStrategy(b *testing.B, name string, seqLen int) {
	w := config.Workload{Batch: 1, Heads: 8, SeqLen: seqLen, HeadDim: 64}
	s, err := attn.ByName(name, attn.Options{})
	if err != nil {
		b.Fatal(err)
	}

	n := w.Elements()
	q := make([]float32, n)
	k := make([]float32, n)
	v := make([]float32, n)
	out := make([]float32, n)
	attn.FillRandom(q, attn.DefaultSeed)
	attn.FillRandom(k, attn.DefaultSeed+1)
	attn.FillRandom(v, attn.DefaultSeed+2)

	// Warmup
	if err := s.Run(w, q, k, v, out); err != nil {
		b.Fatal(err)
	}

	b.SetBytes(w.BytesMoved())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Run(w, q, k, v, out); err != nil {
			b.Fatal(err)
		}
	}
}
