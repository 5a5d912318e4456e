package taskrunner

import (
	"fmt"
	"strings"
	"time"

	"github.com/jagreehal/makex/internal/taskexec"
)

const durationRounding = 10 * time.Millisecond

// RenderSummaryLine returns the summary printed after multi-task runs.
// Single-task invocations stay silent so task output owns the stream.
func RenderSummaryLine(outcome taskexec.ExecutionOutcome) string {
	if len(outcome.ExecutedTasks) <= 1 {
		return ""
	}

	parts := []string{fmt.Sprintf("Summary: total.tasks=%d", len(outcome.ExecutedTasks))}
	parts = append(parts, fmt.Sprintf("commands=%d", outcome.ExecutedCommands))

	duration := outcome.Duration()
	parts = append(parts, fmt.Sprintf("duration_human=%s", duration.Round(durationRounding).String()))
	parts = append(parts, fmt.Sprintf("duration_ms=%d", duration.Milliseconds()))

	return strings.Join(parts, " ")
}
