package classify_test

import (
	"testing"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/classify"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/result"
)

func TestClassifyPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  result.RunResult
		want result.TerminationReason
	}{
		{
			name: "clean exit",
			res:  result.RunResult{ExitCode: 0},
			want: result.ReasonCompleted,
		},
		{
			name: "non-zero exit stays completed",
			res:  result.RunResult{ExitCode: 3},
			want: result.ReasonCompleted,
		},
		{
			name: "timeout",
			res:  result.RunResult{ExitCode: -1, Signal: "killed", TimedOut: true},
			want: result.ReasonTimedOut,
		},
		{
			name: "memory",
			res:  result.RunResult{ExitCode: -1, MemoryExceeded: true},
			want: result.ReasonMemoryExceeded,
		},
		{
			name: "disk",
			res:  result.RunResult{DiskExceeded: true},
			want: result.ReasonDiskExceeded,
		},
		{
			name: "disk beats timeout",
			res:  result.RunResult{DiskExceeded: true, TimedOut: true},
			want: result.ReasonDiskExceeded,
		},
		{
			name: "timeout beats memory",
			res:  result.RunResult{TimedOut: true, MemoryExceeded: true},
			want: result.ReasonTimedOut,
		},
		{
			// A signal death with no attribution flag is not guessed to be
			// a limit violation.
			name: "unattributed signal death",
			res:  result.RunResult{ExitCode: -1, Signal: "segmentation fault"},
			want: result.ReasonCompleted,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classify.Classify(tt.res)
			if got.Reason != tt.want {
				t.Fatalf("reason = %s, want %s", got.Reason, tt.want)
			}
		})
	}
}

func TestClassifyCarriesOutputThrough(t *testing.T) {
	t.Parallel()

	res := result.RunResult{
		ExitCode:   7,
		Stdout:     "partial output",
		Stderr:     "some diagnostics",
		WallTimeMs: 123,
		TimedOut:   true,
	}
	got := classify.Classify(res)
	if got.Stdout != res.Stdout || got.Stderr != res.Stderr {
		t.Fatalf("output not carried through: %+v", got)
	}
	if got.ExitCode != 7 || got.WallTimeMs != 123 {
		t.Fatalf("exit code and wall time not carried through: %+v", got)
	}
}
