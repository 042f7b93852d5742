package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/attn"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/bench"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/logger"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/monitoring"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/results"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/sysmem"
)

var (
	strategyName = flag.String("strategy", "naive", "Attention strategy: naive, tiled or flash")
	batchSize    = flag.Int("batch", 1, "Batch size")
	numHeads     = flag.Int("heads", 8, "Number of attention heads")
	seqLen       = flag.Int("seq", 0, "Sequence length (0 = strategy default)")
	headDim      = flag.Int("dim", 64, "Head dimension")
	causal       = flag.Bool("causal", false, "Apply causal masking")
	workers      = flag.Int("workers", 0, "Worker count (0 = NumCPU)")
	queryBlock   = flag.Int("qblock", 0, "Tiled: query rows per block (0 = default)")
	keyBlock     = flag.Int("kblock", 0, "Tiled: key/value rows per tile (0 = default)")
	flashBlock   = flag.Int("block", 0, "Flash: key/value rows per step (0 = default)")
	selfTest     = flag.Bool("test", false, "Verify the strategy against the naive reference and exit")
	warmup       = flag.Int("warmup", 2, "Untimed warmup runs")
	runs         = flag.Int("runs", 5, "Timed runs (minimum latency is reported)")
	seed         = flag.Int64("seed", attn.DefaultSeed, "Input generator seed")
	csvPath      = flag.String("csv", "", "Append the result to this CSV file")
	arrowPath    = flag.String("arrow", "", "Write the result to this Arrow IPC file")
	publishAddr  = flag.String("publish", "", "Publish the result to this Arrow Flight address")
	metricsAddr  = flag.String("metrics", "", "Serve health and Prometheus metrics on this address")
	logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat    = flag.String("log-format", "console", "Log format: console or json")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	sl := *seqLen
	if sl == 0 {
		sl = attn.DefaultSeqLen(*strategyName)
	}
	w := config.Workload{Batch: *batchSize, Heads: *numHeads, SeqLen: sl, HeadDim: *headDim}

	strategy, err := buildStrategy()
	if err != nil {
		logger.Log.Fatal("Invalid strategy", "error", err)
	}

	logger.Log.Info("Attention benchmark",
		"strategy", strategy.Name(),
		"batch", w.Batch, "heads", w.Heads, "seq_len", w.SeqLen, "head_dim", w.HeadDim,
		"causal", *causal,
		"resident_bytes", w.ResidentBytes(strategy.Name() == "flash"),
		"cpu_features", strings.Join(sysmem.CPUSummary(), ","))

	if *selfTest {
		if err := bench.SelfTest(strategy, w, *causal, *seed); err != nil {
			logger.Log.Fatal("Self-test failed", "strategy", strategy.Name(), "error", err)
		}
		fmt.Printf("Self-test PASSED: %s matches reference within %g\n", strategy.Name(), attn.Tolerance)
		return
	}

	var hm *monitoring.HealthMonitor
	if *metricsAddr != "" {
		hm = monitoring.NewHealthMonitor()
		go func() {
			if err := hm.Start(*metricsAddr); err != nil {
				logger.Log.Error("Monitoring server stopped", "error", err)
			}
		}()
	}

	r, err := bench.Run(strategy, w, bench.Options{Warmup: *warmup, Runs: *runs, Seed: *seed})
	if err != nil {
		logger.Log.Fatal("Benchmark failed", "strategy", strategy.Name(), "error", err)
	}
	if hm != nil {
		hm.RecordRun(r.Strategy, r.LatencyMS)
	}

	bench.Report(os.Stdout, r)

	if err := persist([]bench.Result{r}); err != nil {
		logger.Log.Fatal("Persisting results failed", "error", err)
	}
}

func buildStrategy() (attn.Strategy, error) {
	opts := attn.Options{Workers: *workers, Causal: *causal}
	switch *strategyName {
	case "tiled":
		return attn.NewTiled(attn.TiledOptions{
			Options:    opts,
			QueryBlock: *queryBlock,
			KeyBlock:   *keyBlock,
		}), nil
	case "flash":
		return attn.NewFlash(attn.FlashOptions{Options: opts, BlockSize: *flashBlock}), nil
	default:
		return attn.ByName(*strategyName, opts)
	}
}

// persist fans the results out to every sink the user asked for.
func persist(rows []bench.Result) error {
	if *csvPath != "" {
		w, err := results.OpenCSV(*csvPath)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if err := w.Append(r); err != nil {
				w.Close()
				return err
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
		logger.Log.Info("Results appended", "path", *csvPath, "rows", len(rows))
	}

	if *arrowPath != "" {
		w := results.NewArrowWriter(*arrowPath)
		for _, r := range rows {
			w.Append(r)
		}
		if err := w.Close(); err != nil {
			return err
		}
		logger.Log.Info("Arrow file written", "path", *arrowPath, "rows", len(rows))
	}

	if *publishAddr != "" {
		p := results.NewPublisher(*publishAddr)
		if err := p.Connect(); err != nil {
			return err
		}
		defer p.Close()
		if err := p.Publish(context.Background(), rows); err != nil {
			return err
		}
		logger.Log.Info("Results published", "addr", *publishAddr, "rows", len(rows))
	}

	return nil
}
