//go:build linux

package hint

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// defaultShards returns the number of CPUs in this process's affinity mask.
func defaultShards() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		if n := set.Count(); n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}
