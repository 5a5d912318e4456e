package taskexec

import "time"

// ExecutionOutcome summarizes a completed (or aborted) task invocation.
type ExecutionOutcome struct {
	StartTime        time.Time
	EndTime          time.Time
	ExecutedTasks    []string
	ExecutedCommands int
}

// Duration reports the wall-clock time consumed by the invocation.
func (outcome ExecutionOutcome) Duration() time.Duration {
	if outcome.EndTime.Before(outcome.StartTime) {
		return 0
	}
	return outcome.EndTime.Sub(outcome.StartTime)
}
