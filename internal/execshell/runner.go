package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"

	shellquote "github.com/kballard/go-shellquote"
)

const (
	posixShellExecutableConstant      = "/bin/sh"
	posixShellCommandFlagConstant     = "-c"
	windowsShellExecutableConstant    = "cmd"
	windowsShellCommandFlagConstant   = "/C"
	commandStartErrorTemplateConstant = "unable to start command %q: %w"
	commandSplitErrorTemplateConstant = "unable to split command %q: %w"
	environmentEntryTemplateConstant  = "%s=%s"
)

// OSCommandRunner executes shell commands against the operating system.
// Child process output is forwarded to the configured writers; when
// CaptureOutput is set the streams are additionally recorded on the result.
type OSCommandRunner struct {
	Output        io.Writer
	Errors        io.Writer
	CaptureOutput bool
}

// Run executes the command and reports its exit status.
func (runner OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if command.isEmpty() {
		return ExecutionResult{}, ErrCommandMissing
	}

	executableCommand := runner.buildCommand(executionContext, command)
	executableCommand.Dir = command.Details.WorkingDirectory
	executableCommand.Env = buildEnvironment(command.Details.EnvironmentVariables)
	executableCommand.Stdin = os.Stdin

	outputWriter := runner.Output
	if outputWriter == nil {
		outputWriter = os.Stdout
	}
	errorWriter := runner.Errors
	if errorWriter == nil {
		errorWriter = os.Stderr
	}

	var capturedOutput bytes.Buffer
	var capturedErrors bytes.Buffer
	if runner.CaptureOutput {
		executableCommand.Stdout = io.MultiWriter(outputWriter, &capturedOutput)
		executableCommand.Stderr = io.MultiWriter(errorWriter, &capturedErrors)
	} else {
		executableCommand.Stdout = outputWriter
		executableCommand.Stderr = errorWriter
	}

	runError := executableCommand.Run()

	result := ExecutionResult{
		StandardOutput: capturedOutput.String(),
		StandardError:  capturedErrors.String(),
	}

	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}

	return result, fmt.Errorf(commandStartErrorTemplateConstant, command.DisplayName(), runError)
}

func (runner OSCommandRunner) buildCommand(executionContext context.Context, command ShellCommand) *exec.Cmd {
	if len(command.Arguments) > 0 {
		return exec.CommandContext(executionContext, command.Arguments[0], command.Arguments[1:]...) // #nosec G204
	}
	if runtime.GOOS == "windows" {
		return exec.CommandContext(executionContext, windowsShellExecutableConstant, windowsShellCommandFlagConstant, command.Script) // #nosec G204
	}
	return exec.CommandContext(executionContext, posixShellExecutableConstant, posixShellCommandFlagConstant, command.Script) // #nosec G204
}

// SplitCommandArguments splits a command string into argv form without shell
// interpretation, honoring quoting and escaping.
func SplitCommandArguments(commandText string) ([]string, error) {
	arguments, splitError := shellquote.Split(commandText)
	if splitError != nil {
		return nil, fmt.Errorf(commandSplitErrorTemplateConstant, commandText, splitError)
	}
	return arguments, nil
}

func buildEnvironment(environmentVariables map[string]string) []string {
	if len(environmentVariables) == 0 {
		return nil
	}

	names := make([]string, 0, len(environmentVariables))
	for name := range environmentVariables {
		names = append(names, name)
	}
	sort.Strings(names)

	environment := os.Environ()
	for _, name := range names {
		environment = append(environment, fmt.Sprintf(environmentEntryTemplateConstant, name, environmentVariables[name]))
	}
	return environment
}
