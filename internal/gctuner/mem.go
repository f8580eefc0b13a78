package gctuner

import "runtime"

var memStats runtime.MemStats

// readMemoryInuse returns the number of bytes the Go heap currently has
// allocated, per runtime.MemStats.Alloc.
func readMemoryInuse() uint64 {
	runtime.ReadMemStats(&memStats)
	return memStats.Alloc
}
