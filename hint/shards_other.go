//go:build !linux

package hint

import "runtime"

// defaultShards returns the number of logical CPUs.
func defaultShards() int {
	return runtime.NumCPU()
}
