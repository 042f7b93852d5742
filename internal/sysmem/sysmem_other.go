//go:build !linux

package sysmem

// Without a syscall probe, assume a conservative default.
func totalMemory() int64 {
	return fallbackMemory
}

func availableMemory() int64 {
	return fallbackMemory / 2
}
