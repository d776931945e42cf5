//go:build unix

package rlimit

import (
	"fmt"
	"syscall"
)

// LimitMemory caps the process's virtual address space to maxMB
// megabytes. maxMB <= 0 is a no-op (no limit requested).
//
// The original tool passed its --maxmem value straight to setrlimit
// without converting megabytes to bytes, which would cap the address
// space at a few hundred bytes and abort immediately; this converts
// explicitly.
func LimitMemory(maxMB int) error {
	if maxMB <= 0 {
		return nil
	}
	limit := uint64(maxMB) * bytesPerMB
	rlimit := syscall.Rlimit{Cur: limit, Max: limit}
	if err := syscall.Setrlimit(syscall.RLIMIT_AS, &rlimit); err != nil {
		return fmt.Errorf("rlimit: setting RLIMIT_AS to %d MB: %w", maxMB, err)
	}
	return nil
}

// LimitTime caps the process's accumulated CPU time to maxMinutes
// minutes. maxMinutes <= 0 is a no-op.
func LimitTime(maxMinutes int) error {
	if maxMinutes <= 0 {
		return nil
	}
	var cur syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_CPU, &cur); err != nil {
		return fmt.Errorf("rlimit: reading RLIMIT_CPU: %w", err)
	}
	seconds := uint64(maxMinutes) * 60
	rlimit := syscall.Rlimit{Cur: seconds, Max: cur.Max}
	if err := syscall.Setrlimit(syscall.RLIMIT_CPU, &rlimit); err != nil {
		return fmt.Errorf("rlimit: setting RLIMIT_CPU to %d min: %w", maxMinutes, err)
	}
	return nil
}
