// Package results persists benchmark records: an append-only CSV file,
// an optional Arrow IPC file, and an optional Arrow Flight publisher.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/bench"
)

// csvColumns is the record schema, one row per run: strategy name, the four
// workload dimensions and the three measured metrics.
var csvColumns = []string{
	"attention_type", "batch_size", "num_heads", "seq_len", "head_dim",
	"time_ms", "tflops", "bandwidth_gbps",
}

// CSVWriter appends benchmark rows to a CSV file, writing the header only
// when the file is new or empty.
type CSVWriter struct {
	f *os.File
	w *csv.Writer
}

func OpenCSV(path string) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results csv: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat results csv: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvColumns); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}
	return &CSVWriter{f: f, w: w}, nil
}

func (c *CSVWriter) Append(r bench.Result) error {
	row := []string{
		r.Strategy,
		strconv.Itoa(r.Workload.Batch),
		strconv.Itoa(r.Workload.Heads),
		strconv.Itoa(r.Workload.SeqLen),
		strconv.Itoa(r.Workload.HeadDim),
		strconv.FormatFloat(r.LatencyMS, 'f', 3, 64),
		strconv.FormatFloat(r.TFLOPS, 'f', 4, 64),
		strconv.FormatFloat(r.BandwidthGBps, 'f', 2, 64),
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("append csv row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}
