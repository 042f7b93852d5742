package attn

import "errors"

// Error kinds surfaced by strategies and the benchmark driver. Nothing is
// retried: a failed invocation leaves no partial state to resume from.
var (
	// ErrDimensionMismatch marks a workload or buffer that violates an
	// invariant. Rejected before any computation starts.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrAllocationFailure marks a workload too large for available memory.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrNumericalMismatch marks a self-test comparison exceeding tolerance.
	ErrNumericalMismatch = errors.New("numerical mismatch")

	// ErrDeviceOperation marks a failure of an underlying primitive.
	ErrDeviceOperation = errors.New("device operation failure")
)
