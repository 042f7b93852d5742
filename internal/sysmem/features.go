package sysmem

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

const fallbackMemory = 16 * 1024 * 1024 * 1024

// CPUSummary lists the SIMD extensions relevant to float32 kernels, for
// the benchmark report header.
func CPUSummary() []string {
	var feats []string
	switch runtime.GOARCH {
	case "amd64":
		if cpu.X86.HasAVX {
			feats = append(feats, "avx")
		}
		if cpu.X86.HasAVX2 {
			feats = append(feats, "avx2")
		}
		if cpu.X86.HasAVX512F {
			feats = append(feats, "avx512f")
		}
		if cpu.X86.HasFMA {
			feats = append(feats, "fma")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			feats = append(feats, "asimd")
		}
		if cpu.ARM64.HasSVE {
			feats = append(feats, "sve")
		}
	}
	if len(feats) == 0 {
		feats = []string{"generic"}
	}
	return feats
}
