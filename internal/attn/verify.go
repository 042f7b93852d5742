package attn

import (
	"fmt"
	"math"
)

// Tolerance is the absolute elementwise acceptance bound when comparing a
// fast strategy against the reference.
const Tolerance = 1e-3

// Compare checks got against ref elementwise and reports the first
// offending index with both values. NaN always fails.
func Compare(ref, got []float32, tol float32) error {
	if len(ref) != len(got) {
		return fmt.Errorf("%w: length ref=%d got=%d", ErrDimensionMismatch, len(ref), len(got))
	}
	for i := range ref {
		diff := float32(math.Abs(float64(ref[i] - got[i])))
		if diff > tol || math.IsNaN(float64(got[i])) {
			return fmt.Errorf("%w at index %d: ref=%f got=%f diff=%f",
				ErrNumericalMismatch, i, ref[i], got[i], diff)
		}
	}
	return nil
}
