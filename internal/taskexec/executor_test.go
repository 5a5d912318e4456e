package taskexec_test

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jagreehal/makex/internal/execshell"
	"github.com/jagreehal/makex/internal/registry"
	"github.com/jagreehal/makex/internal/taskexec"
)

const (
	taskANameConstant         = "A"
	taskBNameConstant         = "B"
	taskACommandConstant      = "echo A"
	taskBCommandConstant      = "echo B"
	lintTaskNameConstant      = "lint"
	typeCheckTaskNameConstant = "type-check"
	testTaskNameConstant      = "test"
	verifyTaskNameConstant    = "verify-examples"
	qualityTaskNameConstant   = "quality"
	lintCommandConstant       = "ruff check src tests"
	typeCheckCommandConstant  = "mypy src"
	testCommandConstant       = "pytest tests/unit"
	verifyCommandConstant     = "./scripts/verify_examples.sh"
	unknownTaskNameConstant   = "deploy"
	failingExitCodeConstant   = 1
)

type recordingCommandExecutor struct {
	executedScripts []string
	failingScript   string
	runnerFailure   error
}

func (executorDouble *recordingCommandExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executorDouble.executedScripts = append(executorDouble.executedScripts, command.DisplayName())

	if executorDouble.runnerFailure != nil && command.DisplayName() == executorDouble.failingScript {
		return execshell.ExecutionResult{}, execshell.CommandExecutionError{Command: command, Cause: executorDouble.runnerFailure}
	}
	if command.DisplayName() == executorDouble.failingScript {
		result := execshell.ExecutionResult{ExitCode: failingExitCodeConstant}
		return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: command, Result: result}
	}
	return execshell.ExecutionResult{}, nil
}

func buildDependencyChainRegistry(testInstance *testing.T) *registry.Registry {
	testInstance.Helper()

	builtRegistry, registryError := registry.NewRegistry([]registry.TaskDefinition{
		{Name: taskBNameConstant, Command: taskBCommandConstant},
		{Name: taskANameConstant, Command: taskACommandConstant, Prerequisites: []string{taskBNameConstant}},
	})
	require.NoError(testInstance, registryError)
	return builtRegistry
}

func buildQualityRegistry(testInstance *testing.T) *registry.Registry {
	testInstance.Helper()

	builtRegistry, registryError := registry.NewRegistry([]registry.TaskDefinition{
		{Name: lintTaskNameConstant, Command: lintCommandConstant},
		{Name: typeCheckTaskNameConstant, Command: typeCheckCommandConstant},
		{Name: testTaskNameConstant, Command: testCommandConstant},
		{Name: verifyTaskNameConstant, Command: verifyCommandConstant},
		{
			Name: qualityTaskNameConstant,
			Prerequisites: []string{
				lintTaskNameConstant,
				typeCheckTaskNameConstant,
				testTaskNameConstant,
				verifyTaskNameConstant,
			},
		},
	})
	require.NoError(testInstance, registryError)
	return builtRegistry
}

func TestNewExecutorValidation(testInstance *testing.T) {
	validRegistry := buildDependencyChainRegistry(testInstance)

	testCases := []struct {
		name          string
		dependencies  taskexec.Dependencies
		expectedError error
	}{
		{
			name:          "missing_registry",
			dependencies:  taskexec.Dependencies{CommandExecutor: &recordingCommandExecutor{}},
			expectedError: taskexec.ErrRegistryNotConfigured,
		},
		{
			name:          "missing_command_executor",
			dependencies:  taskexec.Dependencies{Registry: validRegistry},
			expectedError: taskexec.ErrCommandExecutorNotConfigured,
		},
		{
			name:         "dry_run_without_command_executor",
			dependencies: taskexec.Dependencies{Registry: validRegistry, DryRun: true},
		},
		{
			name:         "complete_dependencies",
			dependencies: taskexec.Dependencies{Registry: validRegistry, CommandExecutor: &recordingCommandExecutor{}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			executor, executorError := taskexec.NewExecutor(testCase.dependencies)
			if testCase.expectedError != nil {
				require.Nil(subtest, executor)
				require.ErrorIs(subtest, executorError, testCase.expectedError)
				return
			}
			require.NoError(subtest, executorError)
			require.NotNil(subtest, executor)
		})
	}
}

func TestRunExecutesPrerequisitesBeforeTask(testInstance *testing.T) {
	commandExecutor := &recordingCommandExecutor{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildDependencyChainRegistry(testInstance),
		CommandExecutor: commandExecutor,
		Logger:          zap.NewNop(),
	})
	require.NoError(testInstance, executorError)

	outcome, runError := executor.Run(context.Background(), []string{taskANameConstant})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{taskBCommandConstant, taskACommandConstant}, commandExecutor.executedScripts)
	require.Equal(testInstance, []string{taskBNameConstant, taskANameConstant}, outcome.ExecutedTasks)
	require.Equal(testInstance, 2, outcome.ExecutedCommands)
}

func TestRunExecutesRequestedTaskWithoutPrerequisites(testInstance *testing.T) {
	commandExecutor := &recordingCommandExecutor{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildDependencyChainRegistry(testInstance),
		CommandExecutor: commandExecutor,
	})
	require.NoError(testInstance, executorError)

	outcome, runError := executor.Run(context.Background(), []string{taskBNameConstant})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{taskBCommandConstant}, commandExecutor.executedScripts)
	require.Equal(testInstance, []string{taskBNameConstant}, outcome.ExecutedTasks)
}

func TestRunQualityOrderingAndAtMostOnce(testInstance *testing.T) {
	commandExecutor := &recordingCommandExecutor{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildQualityRegistry(testInstance),
		CommandExecutor: commandExecutor,
	})
	require.NoError(testInstance, executorError)

	outcome, runError := executor.Run(context.Background(), []string{qualityTaskNameConstant, lintTaskNameConstant})
	require.NoError(testInstance, runError)

	expectedCommands := []string{lintCommandConstant, typeCheckCommandConstant, testCommandConstant, verifyCommandConstant}
	require.Equal(testInstance, expectedCommands, commandExecutor.executedScripts)

	expectedTasks := []string{
		lintTaskNameConstant,
		typeCheckTaskNameConstant,
		testTaskNameConstant,
		verifyTaskNameConstant,
		qualityTaskNameConstant,
	}
	require.Equal(testInstance, expectedTasks, outcome.ExecutedTasks)
	require.Equal(testInstance, 4, outcome.ExecutedCommands)
}

func TestRunFailFastAbortsRemainingChain(testInstance *testing.T) {
	commandExecutor := &recordingCommandExecutor{failingScript: typeCheckCommandConstant}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildQualityRegistry(testInstance),
		CommandExecutor: commandExecutor,
	})
	require.NoError(testInstance, executorError)

	outcome, runError := executor.Run(context.Background(), []string{qualityTaskNameConstant})
	require.Error(testInstance, runError)

	var commandFailure execshell.CommandFailedError
	require.True(testInstance, errors.As(runError, &commandFailure))
	require.Equal(testInstance, failingExitCodeConstant, commandFailure.Result.ExitCode)

	require.Equal(testInstance, []string{lintCommandConstant, typeCheckCommandConstant}, commandExecutor.executedScripts)
	require.Equal(testInstance, []string{lintTaskNameConstant}, outcome.ExecutedTasks)
}

func TestRunRunnerFailurePropagates(testInstance *testing.T) {
	runnerFailure := errors.New("executable not found")
	commandExecutor := &recordingCommandExecutor{failingScript: lintCommandConstant, runnerFailure: runnerFailure}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildQualityRegistry(testInstance),
		CommandExecutor: commandExecutor,
	})
	require.NoError(testInstance, executorError)

	_, runError := executor.Run(context.Background(), []string{lintTaskNameConstant})
	require.Error(testInstance, runError)
	require.ErrorIs(testInstance, runError, runnerFailure)
}

func TestRunUnknownTaskExecutesNothing(testInstance *testing.T) {
	commandExecutor := &recordingCommandExecutor{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildQualityRegistry(testInstance),
		CommandExecutor: commandExecutor,
	})
	require.NoError(testInstance, executorError)

	outcome, runError := executor.Run(context.Background(), []string{unknownTaskNameConstant})
	require.Error(testInstance, runError)

	var notFoundError registry.TaskNotFoundError
	require.True(testInstance, errors.As(runError, &notFoundError))
	require.Equal(testInstance, unknownTaskNameConstant, notFoundError.TaskName)
	require.Empty(testInstance, commandExecutor.executedScripts)
	require.Empty(testInstance, outcome.ExecutedTasks)
}

func TestRunUnknownPrerequisiteReportedAsNotFound(testInstance *testing.T) {
	builtRegistry, registryError := registry.NewRegistry([]registry.TaskDefinition{
		{Name: lintTaskNameConstant, Command: lintCommandConstant},
	})
	require.NoError(testInstance, registryError)

	commandExecutor := &recordingCommandExecutor{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        builtRegistry,
		CommandExecutor: commandExecutor,
	})
	require.NoError(testInstance, executorError)

	_, runError := executor.Run(context.Background(), []string{unknownTaskNameConstant, lintTaskNameConstant})
	require.Error(testInstance, runError)

	var notFoundError registry.TaskNotFoundError
	require.True(testInstance, errors.As(runError, &notFoundError))
	require.Empty(testInstance, commandExecutor.executedScripts)
}

func TestRunCompositeTaskSequencesWithoutCommand(testInstance *testing.T) {
	commandExecutor := &recordingCommandExecutor{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildQualityRegistry(testInstance),
		CommandExecutor: commandExecutor,
	})
	require.NoError(testInstance, executorError)

	outcome, runError := executor.Run(context.Background(), []string{qualityTaskNameConstant})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 4, outcome.ExecutedCommands)
	require.Len(testInstance, outcome.ExecutedTasks, 5)
	require.NotContains(testInstance, commandExecutor.executedScripts, "")
}

func TestRunRepeatedRequestRunsAgain(testInstance *testing.T) {
	commandExecutor := &recordingCommandExecutor{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildDependencyChainRegistry(testInstance),
		CommandExecutor: commandExecutor,
	})
	require.NoError(testInstance, executorError)

	_, firstRunError := executor.Run(context.Background(), []string{taskANameConstant})
	require.NoError(testInstance, firstRunError)
	_, secondRunError := executor.Run(context.Background(), []string{taskANameConstant})
	require.NoError(testInstance, secondRunError)

	expectedScripts := []string{taskBCommandConstant, taskACommandConstant, taskBCommandConstant, taskACommandConstant}
	require.Equal(testInstance, expectedScripts, commandExecutor.executedScripts)
}

func TestRunDryRunPrintsWithoutExecuting(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry: buildDependencyChainRegistry(testInstance),
		Output:   outputBuffer,
		DryRun:   true,
	})
	require.NoError(testInstance, executorError)

	outcome, runError := executor.Run(context.Background(), []string{taskANameConstant})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 2, outcome.ExecutedCommands)
	require.Contains(testInstance, outputBuffer.String(), "DRY-RUN "+taskBNameConstant+": "+taskBCommandConstant)
	require.Contains(testInstance, outputBuffer.String(), "DRY-RUN "+taskANameConstant+": "+taskACommandConstant)
}

func TestRunDirectExecutionSplitsArguments(testInstance *testing.T) {
	builtRegistry, registryError := registry.NewRegistry([]registry.TaskDefinition{
		{Name: lintTaskNameConstant, Command: `ruff check "src dir" tests`, DirectExecution: true},
	})
	require.NoError(testInstance, registryError)

	captured := &capturingCommandExecutor{}
	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        builtRegistry,
		CommandExecutor: captured,
	})
	require.NoError(testInstance, executorError)

	_, runError := executor.Run(context.Background(), []string{lintTaskNameConstant})
	require.NoError(testInstance, runError)
	require.Len(testInstance, captured.commands, 1)
	require.Equal(testInstance, []string{"ruff", "check", "src dir", "tests"}, captured.commands[0].Arguments)
	require.Empty(testInstance, captured.commands[0].Script)
}

type capturingCommandExecutor struct {
	commands []execshell.ShellCommand
}

func (executorDouble *capturingCommandExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executorDouble.commands = append(executorDouble.commands, command)
	return execshell.ExecutionResult{}, nil
}

func TestRunForwardsOutputInPrerequisiteOrder(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("shell scripts in this test target POSIX sh")
	}

	outputBuffer := &bytes.Buffer{}
	shellExecutor, shellError := execshell.NewShellExecutor(
		zap.NewNop(),
		execshell.OSCommandRunner{Output: outputBuffer, Errors: &bytes.Buffer{}},
		false,
	)
	require.NoError(testInstance, shellError)

	executor, executorError := taskexec.NewExecutor(taskexec.Dependencies{
		Registry:        buildDependencyChainRegistry(testInstance),
		CommandExecutor: shellExecutor,
	})
	require.NoError(testInstance, executorError)

	_, runError := executor.Run(context.Background(), []string{taskANameConstant})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, "B\nA\n", outputBuffer.String())
}
