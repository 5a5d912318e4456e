package utils

import (
	"context"
	"strings"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	executionFlagsContextKeyConstant        = commandContextKey("executionFlags")
	logLevelContextKeyConstant              = commandContextKey("logLevel")
)

type commandContextKey string

// ExecutionFlags captures standardized execution modifiers derived from CLI flags.
type ExecutionFlags struct {
	DryRun    bool
	DryRunSet bool
}

// CommandContextAccessor reads and writes standardized command context values.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath stores the active configuration file path in the context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	trimmedPath := strings.TrimSpace(configurationFilePath)
	if len(trimmedPath) == 0 {
		return parentContext
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, trimmedPath)
}

// ConfigurationFilePath extracts the configuration file path from the context.
func (accessor CommandContextAccessor) ConfigurationFilePath(candidateContext context.Context) (string, bool) {
	if candidateContext == nil {
		return "", false
	}
	value, ok := candidateContext.Value(configurationFilePathContextKeyConstant).(string)
	if !ok || len(strings.TrimSpace(value)) == 0 {
		return "", false
	}
	return value, true
}

// WithExecutionFlags stores execution flag values in the context.
func (accessor CommandContextAccessor) WithExecutionFlags(parentContext context.Context, flags ExecutionFlags) context.Context {
	return context.WithValue(parentContext, executionFlagsContextKeyConstant, flags)
}

// ExecutionFlags extracts execution flag values from the context.
func (accessor CommandContextAccessor) ExecutionFlags(candidateContext context.Context) (ExecutionFlags, bool) {
	if candidateContext == nil {
		return ExecutionFlags{}, false
	}
	flags, ok := candidateContext.Value(executionFlagsContextKeyConstant).(ExecutionFlags)
	return flags, ok
}

// WithLogLevel stores the active log level in the context.
func (accessor CommandContextAccessor) WithLogLevel(parentContext context.Context, logLevel string) context.Context {
	trimmedLevel := strings.TrimSpace(logLevel)
	if len(trimmedLevel) == 0 {
		return parentContext
	}
	return context.WithValue(parentContext, logLevelContextKeyConstant, trimmedLevel)
}

// LogLevel extracts the active log level from the context.
func (accessor CommandContextAccessor) LogLevel(candidateContext context.Context) (string, bool) {
	if candidateContext == nil {
		return "", false
	}
	value, ok := candidateContext.Value(logLevelContextKeyConstant).(string)
	if !ok || len(strings.TrimSpace(value)) == 0 {
		return "", false
	}
	return value, true
}
