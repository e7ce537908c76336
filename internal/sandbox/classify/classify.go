// Package classify maps raw run results to one termination reason.
package classify

import "github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/result"

// Classify maps a raw run result to exactly one termination reason,
// always carrying the captured output through unchanged.
//
// Precedence: disk > timeout > memory > completed. The flags are set
// only by the watcher that actually acted, so an abnormal signal exit
// with no flag — including a death caused by the kernel memory backstop
// alone — is reported as a plain non-zero Completed exit rather than
// guessed to be a memory violation.
func Classify(res result.RunResult) result.ExecutionOutcome {
	outcome := result.ExecutionOutcome{
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ExitCode:   res.ExitCode,
		WallTimeMs: res.WallTimeMs,
	}

	switch {
	case res.DiskExceeded:
		outcome.Reason = result.ReasonDiskExceeded
	case res.TimedOut:
		outcome.Reason = result.ReasonTimedOut
	case res.MemoryExceeded:
		outcome.Reason = result.ReasonMemoryExceeded
	default:
		outcome.Reason = result.ReasonCompleted
	}
	return outcome
}
