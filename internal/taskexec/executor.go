package taskexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jagreehal/makex/internal/execshell"
	"github.com/jagreehal/makex/internal/registry"
)

const (
	registryNotConfiguredMessageConstant = "task executor registry not configured"
	executorNotConfiguredMessageConstant = "task executor command executor not configured"
	taskStartMessageConstant             = "task starting"
	taskCompletedMessageConstant         = "task completed"
	taskCompositeMessageConstant         = "composite task sequenced"
	taskSkippedMessageConstant           = "task already executed"
	taskNameFieldConstant                = "task"
	prerequisiteCountFieldConstant       = "prerequisite_count"
	taskFailureErrorTemplateConstant     = "task %q failed: %w"
	prerequisiteFailureTemplateConstant  = "prerequisite %q of task %q failed: %w"
	dryRunCommandMessageTemplateConstant = "DRY-RUN %s: %s\n"
	humanTaskStartTemplateConstant       = "Task %s starting"
	humanTaskCompletedTemplateConstant   = "Task %s completed"
)

var (
	// ErrRegistryNotConfigured indicates the registry dependency was missing.
	ErrRegistryNotConfigured = errors.New(registryNotConfiguredMessageConstant)
	// ErrCommandExecutorNotConfigured indicates the command executor dependency was missing.
	ErrCommandExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// CommandExecutor runs a single shell command to completion.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Dependencies describes the collaborators required by the task executor.
type Dependencies struct {
	Registry             *registry.Registry
	CommandExecutor      CommandExecutor
	Logger               *zap.Logger
	Output               io.Writer
	DryRun               bool
	HumanReadableLogging bool
}

// Executor resolves task names against the registry and runs prerequisite
// chains depth-first with fail-fast, at-most-once semantics.
type Executor struct {
	dependencies Dependencies
}

// NewExecutor constructs an Executor after validating its dependencies.
func NewExecutor(dependencies Dependencies) (*Executor, error) {
	if dependencies.Registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	if dependencies.CommandExecutor == nil && !dependencies.DryRun {
		return nil, ErrCommandExecutorNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}
	return &Executor{dependencies: dependencies}, nil
}

// Run executes the named tasks in order, sharing a single at-most-once set
// across the invocation. The first failure aborts the remaining chain.
func (executor *Executor) Run(executionContext context.Context, taskNames []string) (ExecutionOutcome, error) {
	outcome := ExecutionOutcome{StartTime: time.Now()}
	alreadyRun := make(map[string]struct{})

	for _, taskName := range taskNames {
		if runError := executor.runTask(executionContext, taskName, alreadyRun, &outcome); runError != nil {
			outcome.EndTime = time.Now()
			return outcome, runError
		}
	}

	outcome.EndTime = time.Now()
	return outcome, nil
}

func (executor *Executor) runTask(executionContext context.Context, taskName string, alreadyRun map[string]struct{}, outcome *ExecutionOutcome) error {
	definition, lookupError := executor.dependencies.Registry.Lookup(taskName)
	if lookupError != nil {
		return lookupError
	}

	if _, executed := alreadyRun[definition.Name]; executed {
		executor.dependencies.Logger.Debug(taskSkippedMessageConstant, zap.String(taskNameFieldConstant, definition.Name))
		return nil
	}

	executor.logTaskStart(definition)

	for _, prerequisiteName := range definition.Prerequisites {
		if prerequisiteError := executor.runTask(executionContext, prerequisiteName, alreadyRun, outcome); prerequisiteError != nil {
			var notFoundError registry.TaskNotFoundError
			if errors.As(prerequisiteError, &notFoundError) {
				return prerequisiteError
			}
			return fmt.Errorf(prerequisiteFailureTemplateConstant, prerequisiteName, definition.Name, prerequisiteError)
		}
	}

	if executionError := executor.executeCommand(executionContext, definition, outcome); executionError != nil {
		return fmt.Errorf(taskFailureErrorTemplateConstant, definition.Name, executionError)
	}

	alreadyRun[definition.Name] = struct{}{}
	outcome.ExecutedTasks = append(outcome.ExecutedTasks, definition.Name)
	executor.logTaskCompleted(definition)
	return nil
}

func (executor *Executor) executeCommand(executionContext context.Context, definition registry.TaskDefinition, outcome *ExecutionOutcome) error {
	if definition.IsComposite() {
		executor.dependencies.Logger.Debug(taskCompositeMessageConstant, zap.String(taskNameFieldConstant, definition.Name))
		return nil
	}

	command, commandError := buildShellCommand(definition)
	if commandError != nil {
		return commandError
	}

	if executor.dependencies.DryRun {
		fmt.Fprintf(executor.dependencies.Output, dryRunCommandMessageTemplateConstant, definition.Name, command.DisplayName())
		outcome.ExecutedCommands++
		return nil
	}

	if _, executionError := executor.dependencies.CommandExecutor.Execute(executionContext, command); executionError != nil {
		return executionError
	}
	outcome.ExecutedCommands++
	return nil
}

func buildShellCommand(definition registry.TaskDefinition) (execshell.ShellCommand, error) {
	command := execshell.ShellCommand{
		Details: execshell.CommandDetails{
			WorkingDirectory:     definition.WorkingDirectory,
			EnvironmentVariables: definition.Environment,
		},
	}

	if definition.DirectExecution {
		arguments, splitError := execshell.SplitCommandArguments(definition.Command)
		if splitError != nil {
			return execshell.ShellCommand{}, splitError
		}
		command.Arguments = arguments
		return command, nil
	}

	command.Script = definition.Command
	return command, nil
}

func (executor *Executor) logTaskStart(definition registry.TaskDefinition) {
	if executor.dependencies.HumanReadableLogging {
		executor.dependencies.Logger.Info(fmt.Sprintf(humanTaskStartTemplateConstant, definition.Name))
		return
	}
	executor.dependencies.Logger.Info(taskStartMessageConstant,
		zap.String(taskNameFieldConstant, definition.Name),
		zap.Int(prerequisiteCountFieldConstant, len(definition.Prerequisites)),
	)
}

func (executor *Executor) logTaskCompleted(definition registry.TaskDefinition) {
	if executor.dependencies.HumanReadableLogging {
		executor.dependencies.Logger.Info(fmt.Sprintf(humanTaskCompletedTemplateConstant, definition.Name))
		return
	}
	executor.dependencies.Logger.Info(taskCompletedMessageConstant, zap.String(taskNameFieldConstant, definition.Name))
}
