package flags

import (
	"github.com/spf13/cobra"

	"github.com/jagreehal/makex/internal/utils"
)

// Standardized execution flag names shared across commands.
const (
	DryRunFlagName  = "dry-run"
	DryRunFlagUsage = "Print the commands tasks would run without executing them"
)

// BindExecutionFlags registers the shared execution flags on the command.
func BindExecutionFlags(command *cobra.Command) {
	if command == nil {
		return
	}
	command.PersistentFlags().Bool(DryRunFlagName, false, DryRunFlagUsage)
}

// CollectExecutionFlags inspects the command's flags to produce execution flag values.
func CollectExecutionFlags(command *cobra.Command) utils.ExecutionFlags {
	executionFlags := utils.ExecutionFlags{}
	if command == nil {
		return executionFlags
	}

	if dryRunValue, dryRunChanged, dryRunError := BoolFlag(command, DryRunFlagName); dryRunError == nil {
		executionFlags.DryRun = dryRunValue
		executionFlags.DryRunSet = dryRunChanged
	}

	return executionFlags
}

// ResolveExecutionFlags returns execution flags from context or flag values.
func ResolveExecutionFlags(command *cobra.Command) (utils.ExecutionFlags, bool) {
	contextAccessor := utils.NewCommandContextAccessor()
	if command != nil {
		if contextFlags, available := contextAccessor.ExecutionFlags(command.Context()); available {
			return contextFlags, true
		}
	}

	executionFlags := CollectExecutionFlags(command)
	return executionFlags, executionFlags.DryRunSet
}
