package run

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jagreehal/makex/internal/execshell"
	"github.com/jagreehal/makex/internal/registry"
	"github.com/jagreehal/makex/internal/taskexec"
	flagutils "github.com/jagreehal/makex/internal/utils/flags"
	"github.com/jagreehal/makex/pkg/taskrunner"
)

const (
	commandUseConstant                   = "run <task> [task...]"
	commandShortDescriptionConstant      = "Run one or more named tasks with their prerequisites"
	commandLongDescriptionConstant       = "run resolves each named task against the registry, executes prerequisites first in declared order, and stops at the first failing command. Each task runs at most once per invocation."
	commandExampleConstant               = "makex run quality\n  makex run lint test"
	taskNameRequiredMessageConstant      = "task name required; run 'makex list' to see available tasks"
	registryNotConfiguredMessageConstant = "task registry not configured"
)

// LoggerProvider supplies the logger shared with the root application.
type LoggerProvider func() *zap.Logger

// CommandConfiguration captures the resolved settings for the run command.
type CommandConfiguration struct {
	Registry *registry.Registry
	DryRun   bool
}

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	ExecutorFactory              taskrunner.Factory
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		Example:       commandExampleConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		return errors.New(taskNameRequiredMessageConstant)
	}

	configuration := builder.resolveConfiguration()
	if configuration.Registry == nil {
		return errors.New(registryNotConfiguredMessageConstant)
	}

	dryRun := configuration.DryRun
	if executionFlags, flagsAvailable := flagutils.ResolveExecutionFlags(command); flagsAvailable && executionFlags.DryRunSet {
		dryRun = executionFlags.DryRun
	}

	logger := builder.resolveLogger()
	humanReadableLogging := builder.humanReadableLoggingEnabled()

	commandRunner := execshell.OSCommandRunner{
		Output: command.OutOrStdout(),
		Errors: command.ErrOrStderr(),
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if executorError != nil {
		return executorError
	}

	dependencies := taskexec.Dependencies{
		Registry:             configuration.Registry,
		CommandExecutor:      shellExecutor,
		Logger:               logger,
		Output:               command.OutOrStdout(),
		DryRun:               dryRun,
		HumanReadableLogging: humanReadableLogging,
	}

	executor, resolveError := taskrunner.Resolve(builder.ExecutorFactory, dependencies)
	if resolveError != nil {
		return resolveError
	}

	_, runError := executor.Run(command.Context(), arguments)
	return runError
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) humanReadableLoggingEnabled() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}
