//go:build linux

package sysmem

import "golang.org/x/sys/unix"

func totalMemory() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return fallbackMemory
	}
	return int64(info.Totalram) * int64(info.Unit)
}

func availableMemory() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return fallbackMemory
	}
	return (int64(info.Freeram) + int64(info.Bufferram)) * int64(info.Unit)
}
