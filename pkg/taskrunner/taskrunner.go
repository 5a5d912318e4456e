package taskrunner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jagreehal/makex/internal/taskexec"
)

// Executor runs named registry tasks with prerequisite ordering.
type Executor interface {
	Run(executionContext context.Context, taskNames []string) (taskexec.ExecutionOutcome, error)
}

// Factory constructs an Executor given task execution dependencies.
type Factory func(taskexec.Dependencies) Executor

// Resolve returns either the provided factory result or the default task
// executor, wrapped so completed runs print a summary line.
func Resolve(factory Factory, dependencies taskexec.Dependencies) (Executor, error) {
	var base Executor
	if factory != nil {
		base = factory(dependencies)
	}
	if base == nil {
		defaultExecutor, executorError := taskexec.NewExecutor(dependencies)
		if executorError != nil {
			return nil, executorError
		}
		base = defaultExecutor
	}
	return summaryExecutor{
		delegate:     base,
		dependencies: dependencies,
	}, nil
}

type summaryExecutor struct {
	delegate     Executor
	dependencies taskexec.Dependencies
}

func (executor summaryExecutor) Run(executionContext context.Context, taskNames []string) (taskexec.ExecutionOutcome, error) {
	outcome, runError := executor.delegate.Run(executionContext, taskNames)
	executor.printSummary(outcome)
	return outcome, runError
}

func (executor summaryExecutor) printSummary(outcome taskexec.ExecutionOutcome) {
	writer := executor.summaryWriter()
	if writer == nil {
		return
	}

	summary := RenderSummaryLine(outcome)
	if len(strings.TrimSpace(summary)) == 0 {
		return
	}
	fmt.Fprintln(writer, summary)
}

func (executor summaryExecutor) summaryWriter() io.Writer {
	if executor.dependencies.Output != nil {
		return executor.dependencies.Output
	}
	return nil
}
