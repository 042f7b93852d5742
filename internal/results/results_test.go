package results

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/attn"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/bench"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"
)

func sampleResult(strategy string, seqLen int) bench.Result {
	return bench.Result{
		Strategy:      strategy,
		Workload:      config.Workload{Batch: 1, Heads: 8, SeqLen: seqLen, HeadDim: 64},
		LatencyMS:     12.345,
		MeanLatencyMS: 13.0,
		TFLOPS:        1.2345,
		BandwidthGBps: 45.67,
	}
}

func TestCSVWriterHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	w, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV() error = %v", err)
	}
	if err := w.Append(sampleResult("naive", 256)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen and append: the header must not be duplicated.
	w, err = OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV() reopen error = %v", err)
	}
	if err := w.Append(sampleResult("flash", 2048)); err != nil {
		t.Fatalf("Append() after reopen error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), data)
	}
	wantHeader := "attention_type,batch_size,num_heads,seq_len,head_dim,time_ms,tflops,bandwidth_gbps"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	if !strings.HasPrefix(lines[1], "naive,1,8,256,64,12.345,") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "flash,1,8,2048,64,") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestArrowWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.arrow")

	w := NewArrowWriter(path)
	w.Append(sampleResult("naive", 256))
	w.Append(sampleResult("tiled", 1024))
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f)
	if err != nil {
		t.Fatalf("NewFileReader() error = %v", err)
	}
	defer r.Close()

	if !r.Schema().Equal(Schema()) {
		t.Errorf("schema mismatch: got %v", r.Schema())
	}
	if r.NumRecords() != 1 {
		t.Fatalf("NumRecords() = %d, want 1", r.NumRecords())
	}
	rec, err := r.Record(0)
	if err != nil {
		t.Fatalf("Record(0) error = %v", err)
	}
	if rec.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", rec.NumRows())
	}
	names := rec.Column(0).(*array.String)
	if names.Value(0) != "naive" || names.Value(1) != "tiled" {
		t.Errorf("attention_type column = [%s %s]", names.Value(0), names.Value(1))
	}
	seqs := rec.Column(3).(*array.Int32)
	if seqs.Value(1) != 1024 {
		t.Errorf("seq_len[1] = %d, want 1024", seqs.Value(1))
	}
}

func TestPublisherRequiresConnect(t *testing.T) {
	p := NewPublisher("localhost:3000")
	err := p.Publish(context.Background(), []bench.Result{sampleResult("naive", 256)})
	if !errors.Is(err, attn.ErrDeviceOperation) {
		t.Errorf("Publish() error = %v, want ErrDeviceOperation", err)
	}
}

func TestPublisherUnreachableServer(t *testing.T) {
	p := NewPublisher("localhost:1")
	if err := p.Connect(); err != nil {
		// Dial is lazy; an immediate error is also acceptable.
		if !errors.Is(err, attn.ErrDeviceOperation) {
			t.Fatalf("Connect() error = %v, want ErrDeviceOperation", err)
		}
		return
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := p.Publish(ctx, []bench.Result{sampleResult("naive", 256)}); err == nil {
		t.Error("Publish() to unreachable server succeeded, want error")
	}
}
