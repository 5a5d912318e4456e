package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandMissingMessageConstant             = "shell command not provided"
	commandStartMessageConstant               = "command execution starting"
	commandSuccessMessageConstant             = "command execution completed"
	commandFailureMessageConstant             = "command returned non-zero status"
	commandRunnerErrorMessageConstant         = "command execution error"
	commandScriptFieldNameConstant            = "command"
	commandArgumentsFieldNameConstant         = "arguments"
	workingDirectoryFieldNameConstant         = "working_directory"
	exitCodeFieldNameConstant                 = "exit_code"
	humanStartMessageTemplateConstant         = "Running %s"
	humanSuccessMessageTemplateConstant       = "Completed %s"
	humanFailureMessageTemplateConstant       = "%s exited with code %d"
	humanRunnerErrorMessageTemplateConstant   = "Unable to run %s: %v"
)

// CommandDetails describes command invocation properties.
type CommandDetails struct {
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// ShellCommand represents a fully qualified command invocation. Script is
// interpreted by the system shell; Arguments bypass the shell and execute the
// first entry directly.
type ShellCommand struct {
	Script    string
	Arguments []string
	Details   CommandDetails
}

// DisplayName returns the command text used for logging and error messages.
func (command ShellCommand) DisplayName() string {
	if len(command.Arguments) > 0 {
		return strings.Join(command.Arguments, " ")
	}
	return strings.TrimSpace(command.Script)
}

func (command ShellCommand) isEmpty() bool {
	return len(command.Arguments) == 0 && len(strings.TrimSpace(command.Script)) == 0
}

// ExecutionResult captures observable command results.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ShellExecutor orchestrates running shell commands with logging.
type ShellExecutor struct {
	commandRunner        CommandRunner
	logger               *zap.Logger
	humanReadableLogging bool
}

var (
	// ErrLoggerNotConfigured indicates the logger dependency was missing.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the command runner dependency was missing.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrCommandMissing indicates neither a script nor arguments were provided.
	ErrCommandMissing = errors.New(commandMissingMessageConstant)
)

// CommandFailedError provides details about commands exiting with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

const commandFailureErrorMessageTemplateConstant = "command %q exited with code %d"

// Error describes the failure in a readable format.
func (commandError CommandFailedError) Error() string {
	baseMessage := fmt.Sprintf(commandFailureErrorMessageTemplateConstant, commandError.Command.DisplayName(), commandError.Result.ExitCode)

	detail := strings.TrimSpace(commandError.Result.StandardError)
	if len(detail) == 0 {
		detail = strings.TrimSpace(commandError.Result.StandardOutput)
	}
	if len(detail) > 0 {
		lines := strings.Split(detail, "\n")
		maxLines := 3
		if len(lines) > maxLines {
			lines = lines[:maxLines]
		}
		normalized := make([]string, 0, len(lines))
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			normalized = append(normalized, trimmed)
		}
		if len(normalized) > 0 {
			baseMessage = fmt.Sprintf("%s: %s", baseMessage, strings.Join(normalized, " | "))
		}
	}

	return baseMessage
}

// CommandExecutionError wraps unexpected execution failures from the runner.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

const commandExecutionErrorMessageTemplateConstant = "command %q execution failed"

// Error describes the underlying runner failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorMessageTemplateConstant, executionError.Command.DisplayName())
}

// Unwrap exposes the underlying error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// NewShellExecutor builds an executor for the provided runner and logger.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		commandRunner:        commandRunner,
		logger:               logger,
		humanReadableLogging: humanReadableLogging,
	}, nil
}

// Execute runs the provided shell command and logs lifecycle events.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if command.isEmpty() {
		return ExecutionResult{}, ErrCommandMissing
	}

	if executor.humanReadableLogging {
		executor.logger.Info(fmt.Sprintf(humanStartMessageTemplateConstant, command.DisplayName()))
	} else {
		executor.logger.Info(commandStartMessageConstant,
			zap.String(commandScriptFieldNameConstant, command.Script),
			zap.Strings(commandArgumentsFieldNameConstant, command.Arguments),
			zap.String(workingDirectoryFieldNameConstant, command.Details.WorkingDirectory),
		)
	}

	executionResult, runnerError := executor.commandRunner.Run(executionContext, command)
	if runnerError != nil {
		if executor.humanReadableLogging {
			executor.logger.Error(fmt.Sprintf(humanRunnerErrorMessageTemplateConstant, command.DisplayName(), runnerError))
		} else {
			executor.logger.Error(commandRunnerErrorMessageConstant,
				zap.String(commandScriptFieldNameConstant, command.DisplayName()),
				zap.Error(runnerError),
			)
		}
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runnerError}
	}

	if executionResult.ExitCode != 0 {
		if executor.humanReadableLogging {
			executor.logger.Warn(fmt.Sprintf(humanFailureMessageTemplateConstant, command.DisplayName(), executionResult.ExitCode))
		} else {
			executor.logger.Warn(commandFailureMessageConstant,
				zap.String(commandScriptFieldNameConstant, command.DisplayName()),
				zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
			)
		}
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	if executor.humanReadableLogging {
		executor.logger.Info(fmt.Sprintf(humanSuccessMessageTemplateConstant, command.DisplayName()))
	} else {
		executor.logger.Info(commandSuccessMessageConstant,
			zap.String(commandScriptFieldNameConstant, command.DisplayName()),
			zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
		)
	}
	return executionResult, nil
}
