// Package rlimit enforces the host-level resource limits the CLI
// exposes as --maxmem/--maxtime, mirroring the original tool's use of
// the POSIX resource module: RLIMIT_AS caps the process's address
// space, RLIMIT_CPU caps accumulated CPU time. The actual syscalls are
// only available on unix platforms; see rlimit_unix.go and
// rlimit_other.go.
package rlimit

const bytesPerMB = 1024 * 1024
