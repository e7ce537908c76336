// Package result defines raw run results and classified execution outcomes.
package result

// TerminationReason is the single deterministic classification of one
// execution request.
type TerminationReason string

const (
	ReasonCompleted      TerminationReason = "Completed"
	ReasonCompileFailed  TerminationReason = "CompileFailed"
	ReasonTimedOut       TerminationReason = "TimedOut"
	ReasonMemoryExceeded TerminationReason = "MemoryExceeded"
	ReasonDiskExceeded   TerminationReason = "DiskExceeded"
	ReasonSpawnFailed    TerminationReason = "SpawnFailed"
)

// RunResult captures raw data from one bounded child process.
type RunResult struct {
	ExitCode   int
	Signal     string
	Stdout     string
	Stderr     string
	WallTimeMs int64
	// PeakMemoryKB is the observed resident peak, from the resource
	// monitor or post-exit accounting; 0 when unavailable.
	PeakMemoryKB int64

	// Attribution flags. Each is set only by the watcher that actually
	// acted; an abnormal exit with no flag set stays a plain non-zero exit.
	TimedOut       bool
	MemoryExceeded bool
	DiskExceeded   bool
}

// ExecutionOutcome is the caller-facing result of one request.
type ExecutionOutcome struct {
	Stdout     string            `json:"stdout"`
	Stderr     string            `json:"stderr"`
	ExitCode   int               `json:"exitCode"`
	Reason     TerminationReason `json:"terminationReason"`
	Warnings   []string          `json:"warnings,omitempty"`
	WallTimeMs int64             `json:"wallTimeMs"`
}
