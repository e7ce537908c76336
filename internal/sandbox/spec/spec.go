// Package spec defines the process execution specification and limits.
package spec

import "time"

// ResourceLimit describes the hard bounds enforced around one process.
type ResourceLimit struct {
	WallTime  time.Duration
	MemoryMB  int64
	MinFreeMB int64 // working-directory free space required before spawning
}

// ProcSpec describes one bounded child process.
type ProcSpec struct {
	Command string
	Args    []string
	WorkDir string
	Env     []string
	// Input is written to the child's stdin and the pipe closed.
	Input  string
	Limits ResourceLimit
}

// MergeLimits overlays the non-zero fields of override onto base.
func MergeLimits(base, override ResourceLimit) ResourceLimit {
	if override.WallTime > 0 {
		base.WallTime = override.WallTime
	}
	if override.MemoryMB > 0 {
		base.MemoryMB = override.MemoryMB
	}
	if override.MinFreeMB > 0 {
		base.MinFreeMB = override.MinFreeMB
	}
	return base
}
