package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("flash"))

	RecordRun("flash", 5*time.Millisecond, 1.5, 120.0)

	if got := testutil.ToFloat64(RunsTotal.WithLabelValues("flash")); got != before+1 {
		t.Errorf("RunsTotal = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(Throughput.WithLabelValues("flash")); got != 1.5 {
		t.Errorf("Throughput gauge = %v, want 1.5", got)
	}
	if got := testutil.ToFloat64(Bandwidth.WithLabelValues("flash")); got != 120.0 {
		t.Errorf("Bandwidth gauge = %v, want 120.0", got)
	}
}

func TestRecordAllocation(t *testing.T) {
	RecordAllocation(1024 * 1024)
	if got := testutil.ToFloat64(AllocatedBytes); got != 1024*1024 {
		t.Errorf("AllocatedBytes = %v, want %v", got, 1024*1024)
	}
	RecordAllocation(0)
}

func TestRecordVerificationFailure(t *testing.T) {
	before := testutil.ToFloat64(VerificationFailures.WithLabelValues("tiled"))
	RecordVerificationFailure("tiled")
	if got := testutil.ToFloat64(VerificationFailures.WithLabelValues("tiled")); got != before+1 {
		t.Errorf("VerificationFailures = %v, want %v", got, before+1)
	}
}
