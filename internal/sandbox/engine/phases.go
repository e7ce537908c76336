package engine

import "context"

// Phase is one state of the per-request execution state machine.
type Phase string

const (
	PhaseQueued    Phase = "Queued"
	PhaseStaging   Phase = "Staging"
	PhaseCompiling Phase = "Compiling"
	PhaseRunning   Phase = "Running"
	PhaseCleanup   Phase = "Cleanup"
)

// PhaseReporter observes state machine transitions, e.g. for progress
// display in an editor panel.
type PhaseReporter interface {
	ReportPhase(ctx context.Context, phase Phase)
}

// NoopPhaseReporter discards all transitions.
type NoopPhaseReporter struct{}

func (NoopPhaseReporter) ReportPhase(ctx context.Context, phase Phase) {}
