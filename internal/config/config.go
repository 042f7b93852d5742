// Package config describes attention benchmark workloads: problem
// dimensions plus the sizes and operation counts derived from them.
package config

import (
	"fmt"
	"math"
)

const (
	// MaxSeqLen bounds the sequence length accepted by any strategy.
	MaxSeqLen = 4096
	// MaxHeadDim bounds the per-head channel dimension.
	MaxHeadDim = 128

	elemSize = 4 // float32
)

// Workload describes one attention problem. Q, K, V and Output all have
// Batch*Heads*SeqLen*HeadDim float32 elements, stored row-major with batch
// outermost and head_dim innermost.
type Workload struct {
	Batch   int
	Heads   int
	SeqLen  int
	HeadDim int
}

func Default() Workload {
	return Workload{
		Batch:   1,
		Heads:   8,
		SeqLen:  256,
		HeadDim: 64,
	}
}

func (w Workload) Validate() error {
	if w.Batch <= 0 {
		return fmt.Errorf("invalid batch: %d (must be positive)", w.Batch)
	}
	if w.Heads <= 0 {
		return fmt.Errorf("invalid heads: %d (must be positive)", w.Heads)
	}
	if w.SeqLen <= 0 {
		return fmt.Errorf("invalid seq_len: %d (must be positive)", w.SeqLen)
	}
	if w.SeqLen > MaxSeqLen {
		return fmt.Errorf("invalid seq_len: %d (must be <= %d)", w.SeqLen, MaxSeqLen)
	}
	if w.HeadDim <= 0 {
		return fmt.Errorf("invalid head_dim: %d (must be positive)", w.HeadDim)
	}
	if w.HeadDim > MaxHeadDim {
		return fmt.Errorf("invalid head_dim: %d (must be <= %d)", w.HeadDim, MaxHeadDim)
	}
	return nil
}

// Scale is the attention score scale factor, 1/sqrt(head_dim).
func (w Workload) Scale() float32 {
	return float32(1.0 / math.Sqrt(float64(w.HeadDim)))
}

// Elements is the element count of each of Q, K, V and Output.
func (w Workload) Elements() int {
	return w.Batch * w.Heads * w.SeqLen * w.HeadDim
}

// TensorBytes is the byte size of each of Q, K, V and Output.
func (w Workload) TensorBytes() int64 {
	return int64(w.Batch) * int64(w.Heads) * int64(w.SeqLen) * int64(w.HeadDim) * elemSize
}

// ScoreElements is the element count of the full score matrix. Only the
// reference strategy materializes it; the streaming strategy never does.
func (w Workload) ScoreElements() int64 {
	return int64(w.Batch) * int64(w.Heads) * int64(w.SeqLen) * int64(w.SeqLen)
}

// ScoreBytes is the byte size of the full score matrix.
func (w Workload) ScoreBytes() int64 {
	return w.ScoreElements() * elemSize
}

// FLOPs counts one multiply-add pass for the scores and one for the
// value-weighted sum: 2 * batch * heads * seq_len^2 * head_dim. The softmax
// itself is not counted.
func (w Workload) FLOPs() float64 {
	return 2 * float64(w.Batch) * float64(w.Heads) *
		float64(w.SeqLen) * float64(w.SeqLen) * float64(w.HeadDim)
}

// BytesMoved is the minimum slow-memory traffic of one invocation: reading
// Q, K and V once plus writing Output once.
func (w Workload) BytesMoved() int64 {
	return 4 * w.TensorBytes()
}

// ArithmeticIntensity is FLOPs per byte moved. Values below the
// MemoryBoundThreshold classify the workload as memory-bound.
func (w Workload) ArithmeticIntensity() float64 {
	return w.FLOPs() / float64(w.BytesMoved())
}

// MemoryBoundThreshold is the arithmetic intensity below which a workload
// counts as memory-bound.
const MemoryBoundThreshold = 10.0

func (w Workload) MemoryBound() bool {
	return w.ArithmeticIntensity() < MemoryBoundThreshold
}

// ResidentBytes estimates the peak resident footprint of one invocation:
// the four tensors plus, for strategies that materialize the score matrix,
// the score matrix itself.
func (w Workload) ResidentBytes(streaming bool) int64 {
	n := 4 * w.TensorBytes()
	if !streaming {
		n += w.ScoreBytes()
	}
	return n
}
