//go:build !unix

package rlimit

// LimitMemory is a no-op on platforms without POSIX rlimits.
func LimitMemory(maxMB int) error { return nil }

// LimitTime is a no-op on platforms without POSIX rlimits.
func LimitTime(maxMinutes int) error { return nil }
