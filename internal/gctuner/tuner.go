// Package gctuner dynamically adjusts GOGC in response to live heap
// size: as allocated memory climbs toward a configured threshold, the
// GC percentage falls (more frequent, cheaper collections, guarding
// against OOM); as usage drops back below half the threshold, GOGC
// rises again (rarer collections while there's headroom).
package gctuner

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"sync/atomic"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/mem"
)

var (
	maxGCPercent     uint32 = 500
	minGCPercent     uint32 = 50
	defaultGCPercent uint32 = 100
)

func init() {
	gogcEnv := os.Getenv("GOGC")
	gogc, err := strconv.ParseInt(gogcEnv, 10, 32)
	if err != nil {
		return
	}
	if gogc > 0 {
		defaultGCPercent = uint32(gogc)
	}
}

// SetMemoryThreshold enables or updates dynamic GOGC tuning against a
// soft memory ceiling in bytes. Once enabled, GOGC no longer tracks the
// GOGC environment variable; a threshold of 0 disables tuning and
// restores the runtime's default behavior.
func SetMemoryThreshold(threshold uint64) {
	if threshold <= 0 && globalTuner != nil {
		globalTuner.stop()
		globalTuner = nil
		debug.SetGCPercent(int(defaultGCPercent))
		return
	}
	if globalTuner == nil {
		globalTuner = newTuner(threshold)
		return
	}
	globalTuner.setThreshold(threshold)
}

// CurrentGCPercent reports the GOGC value the tuner last installed, or
// the startup default if tuning was never enabled.
func CurrentGCPercent() uint32 {
	if globalTuner == nil {
		return defaultGCPercent
	}
	return globalTuner.getGCPercent()
}

// MaxGCPercent returns the ceiling the tuner will never exceed.
func MaxGCPercent() uint32 {
	return atomic.LoadUint32(&maxGCPercent)
}

// SetMaxGCPercent changes the ceiling, returning its previous value.
func SetMaxGCPercent(percent uint32) uint32 {
	return atomic.SwapUint32(&maxGCPercent, percent)
}

// MinGCPercent returns the floor the tuner will never go below.
func MinGCPercent() uint32 {
	return atomic.LoadUint32(&minGCPercent)
}

// SetMinGCPercent changes the floor, returning its previous value.
func SetMinGCPercent(percent uint32) uint32 {
	return atomic.SwapUint32(&minGCPercent, percent)
}

var globalTuner *tuner = nil

// A heap that hasn't yet reached threshold can grow further before GC
// needs to get more aggressive:
//
//	_______________  <- limit: host/cgroup hard memory ceiling
//	|               |
//	|---------------| <- threshold: GOGC rises while gc_trigger < threshold
//	|               |
//	|---------------| <- gc_trigger = heap_live + heap_live*GOGC/100
//	|               |
//	|---------------|
//	|   heap_live   |
//	|_______________|
//
// The runtime only collects when gc_trigger is reached, and gc_trigger
// is a function of GOGC and heap_live, so adjusting GOGC as heap_live
// moves is how this package steers collection frequency.
type tuner struct {
	finalizer *finalizer
	gcPercent uint32
	threshold uint64
}

// tuning recomputes and installs a new GOGC value from current heap
// usage; the runtime guarantees finalizer calls are serialized, so no
// extra synchronization is needed here.
func (t *tuner) tuning() {
	inuse := readMemoryInuse()
	threshold := t.getThreshold()
	if threshold <= 0 {
		return
	}
	t.setGCPercent(calcGCPercent(inuse, threshold))
}

// calcGCPercent solves gcPercent from threshold = inuse + inuse*gcPercent/100.
// When threshold < inuse*2, gcPercent comes out under 100 (GC runs more
// eagerly to head off OOM); when threshold > inuse*2, it comes out over
// 100 (GC runs less often since there's headroom).
func calcGCPercent(inuse, threshold uint64) uint32 {
	if inuse == 0 || threshold == 0 {
		return defaultGCPercent
	}
	if threshold <= inuse {
		return minGCPercent
	}

	gcPercent := uint32(math.Floor(float64(threshold-inuse) / float64(inuse) * 100))
	if gcPercent < minGCPercent {
		return minGCPercent
	} else if gcPercent > maxGCPercent {
		return maxGCPercent
	}
	return gcPercent
}

func newTuner(threshold uint64) *tuner {
	t := &tuner{
		gcPercent: defaultGCPercent,
		threshold: threshold,
	}
	t.finalizer = newFinalizer(t.tuning)
	return t
}

func (t *tuner) stop() {
	t.finalizer.stop()
}

func (t *tuner) setThreshold(threshold uint64) {
	atomic.StoreUint64(&t.threshold, threshold)
}

func (t *tuner) getThreshold() uint64 {
	return atomic.LoadUint64(&t.threshold)
}

func (t *tuner) setGCPercent(percent uint32) uint32 {
	atomic.StoreUint32(&t.gcPercent, percent)
	return uint32(debug.SetGCPercent(int(percent)))
}

func (t *tuner) getGCPercent() uint32 {
	return atomic.LoadUint32(&t.gcPercent)
}

// SetMemoryThresholdFromHuman parses a human-readable size ("512MiB",
// "2GB", ...) and enables tuning against it.
func SetMemoryThresholdFromHuman(threshold string) {
	parsed, err := units.FromHumanSize(threshold)
	if err != nil {
		fmt.Println("gctuner: parse threshold:", err)
		return
	}
	SetMemoryThreshold(uint64(parsed))
}

// SetMemoryThresholdAuto enables tuning against 70% of the detected
// memory ceiling: the cgroup limit when isContainer is true, otherwise
// total host memory.
func SetMemoryThresholdAuto(isContainer bool) {
	var (
		threshold uint64
		err       error
	)
	if isContainer {
		threshold, err = getCGroupMemoryLimit()
	} else {
		threshold, err = getNormalMemoryLimit()
	}
	if err != nil {
		fmt.Println("gctuner: get memory limit:", err)
		return
	}
	SetMemoryThreshold(uint64(float64(threshold) * 0.7))
}

const cgroupMemLimitPath = "/sys/fs/cgroup/memory/memory.limit_in_bytes"

func getCGroupMemoryLimit() (uint64, error) {
	usage, err := readUint(cgroupMemLimitPath)
	if err != nil {
		return 0, err
	}
	machineMemory, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	// A cgroup limit can exceed the machine's actual memory; clamp to
	// whichever is smaller.
	limit := uint64(math.Min(float64(usage), float64(machineMemory.Total)))
	return limit, nil
}

func getNormalMemoryLimit() (uint64, error) {
	machineMemory, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return machineMemory.Total, nil
}

// parseUint parses s as an unsigned integer, treating an out-of-range
// negative value as 0 rather than erroring — some cgroup files report
// "unlimited" as a huge negative number.
// Adapted from https://github.com/containerd/cgroups/blob/318312a373405e5e91134d8063d04d59768a1bff/utils.go#L251
func parseUint(s string, base, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(s, base, bitSize)
	if err != nil {
		intValue, intErr := strconv.ParseInt(s, base, bitSize)
		if intErr == nil && intValue < 0 {
			return 0, nil
		} else if intErr != nil && errors.Is(intErr.(*strconv.NumError).Err, strconv.ErrRange) && intValue < 0 {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

func readUint(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return parseUint(string(bytes.TrimSpace(data)), 10, 64)
}
