package cli

import (
	"errors"
	"strings"
	"syscall"

	"github.com/jagreehal/makex/internal/execshell"
	"github.com/jagreehal/makex/internal/registry"
)

const (
	genericFailureExitCodeConstant    = 1
	definitionFailureExitCodeConstant = 2
	stderrSyncErrorFragmentConstant   = "sync /dev/stderr"
)

// ExitCode maps an execution error to the process exit status. Command
// failures propagate the child exit code; malformed registries and unknown
// task names use a distinct status so callers can tell them apart from
// command failures.
func ExitCode(executionError error) int {
	if executionError == nil {
		return 0
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) && commandFailure.Result.ExitCode != 0 {
		return commandFailure.Result.ExitCode
	}

	var taskNotFound registry.TaskNotFoundError
	if errors.As(executionError, &taskNotFound) || registry.IsDefinitionError(executionError) {
		return definitionFailureExitCodeConstant
	}

	return genericFailureExitCodeConstant
}

// syncRelevant filters the sync errors stderr reports on terminals and pipes.
func syncRelevant(syncError error) bool {
	if syncError == nil {
		return false
	}
	if errors.Is(syncError, syscall.EINVAL) || errors.Is(syncError, syscall.ENOTTY) || errors.Is(syncError, syscall.EBADF) {
		return false
	}
	return !strings.Contains(syncError.Error(), stderrSyncErrorFragmentConstant)
}
