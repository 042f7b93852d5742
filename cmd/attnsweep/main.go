package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/attn"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/bench"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/logger"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/monitoring"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/results"
)

var (
	strategies  = flag.String("strategies", "naive,tiled,flash", "Comma-separated strategies to sweep")
	seqLens     = flag.String("seqs", "128,256,512,1024,2048", "Comma-separated sequence lengths")
	batchSize   = flag.Int("batch", 1, "Batch size")
	numHeads    = flag.Int("heads", 8, "Number of attention heads")
	headDim     = flag.Int("dim", 64, "Head dimension")
	causal      = flag.Bool("causal", false, "Apply causal masking")
	warmup      = flag.Int("warmup", 2, "Untimed warmup runs per point")
	runs        = flag.Int("runs", 3, "Timed runs per point")
	seed        = flag.Int64("seed", attn.DefaultSeed, "Input generator seed")
	csvPath     = flag.String("csv", "", "Append all results to this CSV file")
	arrowPath   = flag.String("arrow", "", "Write all results to this Arrow IPC file")
	publishAddr = flag.String("publish", "", "Publish all results to this Arrow Flight address")
	metricsAddr = flag.String("metrics", "", "Serve health and Prometheus metrics on this address")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat   = flag.String("log-format", "console", "Log format: console or json")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	names := splitList(*strategies)
	seqs, err := parseInts(*seqLens)
	if err != nil {
		logger.Log.Fatal("Invalid -seqs", "error", err)
	}
	if len(names) == 0 || len(seqs) == 0 {
		logger.Log.Fatal("Nothing to sweep", "strategies", *strategies, "seqs", *seqLens)
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

	opts := bench.Options{Warmup: *warmup, Runs: *runs, Seed: *seed}
	var rows []bench.Result

	for _, name := range names {
		strategy, err := attn.ByName(name, attn.Options{Causal: *causal})
		if err != nil {
			logger.Log.Fatal("Invalid strategy", "error", err)
		}
		for _, sl := range seqs {
			w := config.Workload{Batch: *batchSize, Heads: *numHeads, SeqLen: sl, HeadDim: *headDim}
			r, err := bench.Run(strategy, w, opts)
			if errors.Is(err, attn.ErrAllocationFailure) {
				logger.Log.Warn("Skipping point, workload too large",
					"strategy", name, "seq_len", sl, "error", err)
				continue
			}
			if err != nil {
				logger.Log.Fatal("Benchmark failed", "strategy", name, "seq_len", sl, "error", err)
			}
			if hm != nil {
				hm.RecordRun(r.Strategy, r.LatencyMS)
			}
			bench.Report(os.Stdout, r)
			fmt.Println()
			rows = append(rows, r)
		}
	}

	printSummary(rows)

	if err := persist(rows); err != nil {
		logger.Log.Fatal("Persisting results failed", "error", err)
	}
}

// printSummary lists the best-latency point per strategy across the sweep.
func printSummary(rows []bench.Result) {
	best := map[string]bench.Result{}
	for _, r := range rows {
		if cur, ok := best[r.Strategy]; !ok || r.LatencyMS < cur.LatencyMS {
			best[r.Strategy] = r
		}
	}

	fmt.Println("=== Sweep summary (best latency per strategy) ===")
	for _, name := range []string{"naive", "tiled", "flash"} {
		r, ok := best[name]
		if !ok {
			continue
		}
		fmt.Printf("%-6s seq_len=%-5d %8.3f ms  %8.4f TFLOPS  %8.2f GB/s\n",
			r.Strategy, r.Workload.SeqLen, r.LatencyMS, r.TFLOPS, r.BandwidthGBps)
	}
}

func persist(rows []bench.Result) error {
	if len(rows) == 0 {
		return nil
	}

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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}
