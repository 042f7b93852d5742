// Package sysmem probes host memory and CPU capabilities so the benchmark
// driver can reject workloads that would not fit before touching them.
package sysmem

// Total returns total host memory in bytes.
func Total() int64 {
	return totalMemory()
}

// Available returns an estimate of memory currently available for
// allocation, in bytes.
func Available() int64 {
	return availableMemory()
}

// Fits reports whether a footprint of n bytes can be allocated.
func Fits(n int64) bool {
	return n <= Available()
}
