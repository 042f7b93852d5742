package results

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/bench"
)

// Schema returns the Arrow schema for benchmark records. It mirrors the CSV
// column layout so downstream tooling can read either format interchangeably.
func Schema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "attention_type", Type: arrow.BinaryTypes.String},
		{Name: "batch_size", Type: arrow.PrimitiveTypes.Int32},
		{Name: "num_heads", Type: arrow.PrimitiveTypes.Int32},
		{Name: "seq_len", Type: arrow.PrimitiveTypes.Int32},
		{Name: "head_dim", Type: arrow.PrimitiveTypes.Int32},
		{Name: "time_ms", Type: arrow.PrimitiveTypes.Float64},
		{Name: "tflops", Type: arrow.PrimitiveTypes.Float64},
		{Name: "bandwidth_gbps", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
}

// buildRecord converts benchmark results into a single Arrow record batch.
// The caller owns the returned record and must Release it.
func buildRecord(rows []bench.Result) arrow.Record {
	bld := array.NewRecordBuilder(memory.NewGoAllocator(), Schema())
	defer bld.Release()

	for _, r := range rows {
		bld.Field(0).(*array.StringBuilder).Append(r.Strategy)
		bld.Field(1).(*array.Int32Builder).Append(int32(r.Workload.Batch))
		bld.Field(2).(*array.Int32Builder).Append(int32(r.Workload.Heads))
		bld.Field(3).(*array.Int32Builder).Append(int32(r.Workload.SeqLen))
		bld.Field(4).(*array.Int32Builder).Append(int32(r.Workload.HeadDim))
		bld.Field(5).(*array.Float64Builder).Append(r.LatencyMS)
		bld.Field(6).(*array.Float64Builder).Append(r.TFLOPS)
		bld.Field(7).(*array.Float64Builder).Append(r.BandwidthGBps)
	}
	return bld.NewRecord()
}

// ArrowWriter buffers benchmark rows and writes them as a single record
// batch in Arrow IPC file format on Close.
type ArrowWriter struct {
	path string
	rows []bench.Result
}

func NewArrowWriter(path string) *ArrowWriter {
	return &ArrowWriter{path: path}
}

func (a *ArrowWriter) Append(r bench.Result) {
	a.rows = append(a.rows, r)
}

func (a *ArrowWriter) Close() error {
	f, err := os.Create(a.path)
	if err != nil {
		return fmt.Errorf("create arrow file: %w", err)
	}

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(Schema()))
	if err != nil {
		f.Close()
		return fmt.Errorf("open arrow writer: %w", err)
	}

	rec := buildRecord(a.rows)
	werr := w.Write(rec)
	rec.Release()
	if werr != nil {
		w.Close()
		f.Close()
		return fmt.Errorf("write arrow record: %w", werr)
	}

	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close arrow writer: %w", err)
	}
	return f.Close()
}
