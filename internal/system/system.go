package system

import (
	"fmt"
	"runtime"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// FilesPerWorker is what one style worker holds open at once: the temp
// artifact being written.
const FilesPerWorker = 1

// ReservedFiles covers stdio, the font, the stats log and server sockets.
const ReservedFiles = 256

// OpenFilesNeeded is the descriptor budget for a pool of workers.
func OpenFilesNeeded(workers int) uint64 {
	if workers < 1 {
		workers = 1
	}
	return uint64(workers*FilesPerWorker) + ReservedFiles
}

// RaiseOpenFilesLimit lifts the soft RLIMIT_NOFILE to need, capped by the
// hard limit. A limit that is already high enough is left alone. Returns the
// soft limit in effect afterwards.
func RaiseOpenFilesLimit(need uint64) (uint64, error) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, fmt.Errorf("getrlimit: %w", err)
	}
	if uint64(rLimit.Cur) >= need {
		return uint64(rLimit.Cur), nil
	}

	target := need
	if target > uint64(rLimit.Max) {
		target = uint64(rLimit.Max)
	}
	rLimit.Cur = target
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, fmt.Errorf("setrlimit %d: %w", target, err)
	}
	return target, nil
}

// RecommendedWorkers sizes the style worker pool: one worker per logical
// core, but never more than half of the available memory can hold when each
// worker keeps bytesPerWorker alive. Always at least 1.
func RecommendedWorkers(bytesPerWorker uint64) int {
	workers, err := cpu.Counts(true)
	if err != nil || workers <= 0 {
		workers = runtime.NumCPU()
	}

	if bytesPerWorker > 0 {
		if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
			byMemory := int(vm.Available / 2 / bytesPerWorker)
			if byMemory < workers {
				workers = byMemory
			}
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}

// FrameBytes is the size of one RGBA canvas.
func FrameBytes(width, height int) uint64 {
	return uint64(width) * uint64(height) * 4
}
