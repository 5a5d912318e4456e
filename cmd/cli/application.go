package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	runcmd "github.com/jagreehal/makex/cmd/cli/run"
	"github.com/jagreehal/makex/internal/envfile"
	"github.com/jagreehal/makex/internal/registry"
	"github.com/jagreehal/makex/internal/utils"
	flagutils "github.com/jagreehal/makex/internal/utils/flags"
	"github.com/jagreehal/makex/internal/version"
)

const (
	applicationNameConstant                            = "makex"
	applicationUsageConstant                           = applicationNameConstant + " <task>"
	applicationShortDescriptionConstant                = "Command-line runner for named development tasks"
	applicationLongDescriptionConstant                 = "makex maps task names to shell commands with declared prerequisite ordering. Requesting a task runs its prerequisites first, fail-fast, forwarding command output and propagating exit status."
	configFileFlagNameConstant                         = "config"
	configFileFlagUsageConstant                        = "Optional path to a configuration file (YAML or JSON)."
	tasksFileFlagNameConstant                          = "tasks-file"
	tasksFileFlagUsageConstant                         = "Optional path to a standalone YAML task file replacing the configured registry."
	logLevelFlagNameConstant                           = "log-level"
	logLevelFlagUsageConstant                          = "Override the configured log level."
	logFormatFlagNameConstant                          = "log-format"
	logFormatFlagUsageConstant                         = "Override the configured log format (structured or console)."
	environmentFileFlagNameConstant                    = "env-file"
	environmentFileFlagUsageConstant                   = "Load environment variables from the file before running tasks. Repeatable."
	versionFlagNameConstant                            = "version"
	versionFlagUsageConstant                           = "Print the application version and exit"
	versionOutputTemplateConstant                      = "makex version: %s\n"
	versionCommandUseNameConstant                      = "version"
	versionCommandShortDescriptionConstant             = "Print the makex version"
	versionCommandLongDescriptionConstant              = "version prints the current makex release identifier."
	listCommandUseNameConstant                         = "list"
	listCommandAliasConstant                           = "ls"
	listCommandShortDescriptionConstant                = "List registered tasks"
	listCommandLongDescriptionConstant                 = "list prints every registered task with its prerequisites and description."
	runCommandAliasConstant                            = "r"
	commonConfigurationKeyConstant                     = "common"
	commonLogLevelConfigKeyConstant                    = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant                   = commonConfigurationKeyConstant + ".log_format"
	commonDryRunConfigKeyConstant                      = commonConfigurationKeyConstant + ".dry_run"
	environmentPrefixConstant                          = "MAKEX"
	configurationNameConstant                          = "config"
	configurationTypeConstant                          = "yaml"
	defaultConfigurationSearchPathConstant             = "."
	userConfigurationDirectoryNameConstant             = ".makex"
	configurationSearchPathEnvironmentVariableConstant = "MAKEX_CONFIG_SEARCH_PATH"
	xdgConfigHomeEnvironmentVariableConstant           = "XDG_CONFIG_HOME"
	configurationLoadErrorTemplateConstant             = "unable to load configuration: %w"
	registryBuildErrorTemplateConstant                 = "unable to build task registry: %w"
	tasksFileLoadErrorTemplateConstant                 = "unable to load task file: %w"
	loggerCreationErrorTemplateConstant                = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant                    = "unable to flush logger: %w"
	taskNameRequiredMessageConstant                    = "task name required; run 'makex list' to see available tasks"
	listTaskLineTemplateConstant                       = "%-18s %s\n"
	listPrerequisitesSuffixTemplateConstant            = "%s (prerequisites: %s)"
	runCommandNotConfiguredMessageConstant             = "run command not configured"
	registryNotInitializedMessageConstant              = "task registry not initialized"
)

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	runCommand             *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	taskRegistry           *registry.Registry
	configurationFilePath  string
	tasksFilePath          string
	logLevelFlagValue      string
	logFormatFlagValue     string
	environmentFilePaths   []string
	commandContextAccessor utils.CommandContextAccessor
	versionFlag            bool
	versionResolver        func() string
	exitFunction           func(int)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}
	application.versionResolver = func() string {
		return version.Detect(version.Dependencies{})
	}
	application.exitFunction = os.Exit

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		application.resolveConfigurationSearchPaths(),
	)

	embeddedConfigurationData, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	application.configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationData, embeddedConfigurationType)

	cobraCommand := &cobra.Command{
		Use:           applicationUsageConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if initializationError := application.initializeConfiguration(command); initializationError != nil {
				return initializationError
			}

			versionRequested := application.versionFlag
			if command != nil {
				if flagValue, flagChanged, flagError := flagutils.BoolFlag(command, versionFlagNameConstant); flagError == nil && flagChanged {
					versionRequested = flagValue
				}
			}

			if versionRequested {
				application.printVersion(command)
				application.exitFunction(0)
			}

			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.tasksFilePath, tasksFileFlagNameConstant, "", tasksFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringArrayVar(&application.environmentFilePaths, environmentFileFlagNameConstant, nil, environmentFileFlagUsageConstant)
	cobraCommand.PersistentFlags().BoolVar(&application.versionFlag, versionFlagNameConstant, false, versionFlagUsageConstant)

	flagutils.BindExecutionFlags(cobraCommand)

	versionCommand := &cobra.Command{
		Use:           versionCommandUseNameConstant,
		Short:         versionCommandShortDescriptionConstant,
		Long:          versionCommandLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			application.printVersion(command)
			return nil
		},
	}
	cobraCommand.AddCommand(versionCommand)

	listCommand := &cobra.Command{
		Use:           listCommandUseNameConstant,
		Aliases:       []string{listCommandAliasConstant},
		Short:         listCommandShortDescriptionConstant,
		Long:          listCommandLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.printTaskList(command)
		},
	}
	cobraCommand.AddCommand(listCommand)

	runBuilder := runcmd.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider:        application.runCommandConfiguration,
	}
	runCommand, runBuildError := runBuilder.Build()
	if runBuildError == nil {
		runCommand.Aliases = append(runCommand.Aliases, runCommandAliasConstant)
		cobraCommand.AddCommand(runCommand)
		application.runCommand = runCommand
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	application.rootCommand.SetArgs(os.Args[1:])

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// RootCommand exposes the assembled root command for tests.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// ConfigFileUsed returns the configuration file path used during initialization.
func (application *Application) ConfigFileUsed() string {
	return application.configurationMetadata.ConfigFileUsed
}

// Registry exposes the validated task registry once configuration has loaded.
func (application *Application) Registry() *registry.Registry {
	return application.taskRegistry
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errors.New(taskNameRequiredMessageConstant)
	}

	if application.runCommand == nil {
		return errors.New(runCommandNotConfiguredMessageConstant)
	}

	application.runCommand.SetContext(command.Context())
	return application.runCommand.RunE(application.runCommand, arguments)
}

func (application *Application) runCommandConfiguration() runcmd.CommandConfiguration {
	return runcmd.CommandConfiguration{
		Registry: application.taskRegistry,
		DryRun:   application.configuration.Common.DryRun,
	}
}

func (application *Application) printVersion(command *cobra.Command) {
	if command != nil {
		fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, application.versionResolver())
		return
	}
	fmt.Printf(versionOutputTemplateConstant, application.versionResolver())
}

func (application *Application) printTaskList(command *cobra.Command) error {
	if application.taskRegistry == nil {
		return errors.New(registryNotInitializedMessageConstant)
	}

	for _, taskName := range application.taskRegistry.TaskNames() {
		definition, lookupError := application.taskRegistry.Lookup(taskName)
		if lookupError != nil {
			return lookupError
		}

		description := definition.Description
		if len(definition.Prerequisites) > 0 {
			description = fmt.Sprintf(listPrerequisitesSuffixTemplateConstant, description, strings.Join(definition.Prerequisites, ", "))
		}
		fmt.Fprintf(command.OutOrStdout(), listTaskLineTemplateConstant, definition.Name, strings.TrimSpace(description))
	}
	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) resolveConfigurationSearchPaths() []string {
	overrideValue := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentVariableConstant))
	if len(overrideValue) == 0 {
		defaultSearchPaths := []string{defaultConfigurationSearchPathConstant}
		userConfigurationDirectoryPaths := application.resolveUserConfigurationDirectoryPaths()
		if len(userConfigurationDirectoryPaths) > 0 {
			defaultSearchPaths = append(defaultSearchPaths, userConfigurationDirectoryPaths...)
		}

		return defaultSearchPaths
	}

	overridePaths := strings.FieldsFunc(overrideValue, func(candidate rune) bool {
		return candidate == os.PathListSeparator
	})

	cleanedPaths := make([]string, 0, len(overridePaths))
	for _, pathCandidate := range overridePaths {
		trimmedCandidate := strings.TrimSpace(pathCandidate)
		if len(trimmedCandidate) == 0 {
			continue
		}
		cleanedPaths = append(cleanedPaths, trimmedCandidate)
	}

	if len(cleanedPaths) == 0 {
		return []string{defaultConfigurationSearchPathConstant}
	}

	return cleanedPaths
}

func (application *Application) resolveUserConfigurationDirectoryPaths() []string {
	userConfigurationDirectoryPaths := make([]string, 0, 3)

	appendConfigurationDirectory := func(baseDirectoryPath string) {
		trimmedBaseDirectoryPath := strings.TrimSpace(baseDirectoryPath)
		if len(trimmedBaseDirectoryPath) == 0 {
			return
		}

		candidateDirectoryPath := filepath.Join(trimmedBaseDirectoryPath, userConfigurationDirectoryNameConstant)
		for _, existingDirectoryPath := range userConfigurationDirectoryPaths {
			if existingDirectoryPath == candidateDirectoryPath {
				return
			}
		}

		userConfigurationDirectoryPaths = append(userConfigurationDirectoryPaths, candidateDirectoryPath)
	}

	appendConfigurationDirectory(os.Getenv(xdgConfigHomeEnvironmentVariableConstant))

	userConfigurationBaseDirectoryPath, userConfigurationDirectoryError := os.UserConfigDir()
	if userConfigurationDirectoryError == nil {
		appendConfigurationDirectory(userConfigurationBaseDirectoryPath)
	}

	userHomeDirectoryPath, userHomeDirectoryError := os.UserHomeDir()
	if userHomeDirectoryError == nil {
		appendConfigurationDirectory(userHomeDirectoryPath)
	}

	return userConfigurationDirectoryPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
		commonDryRunConfigKeyConstant:    false,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	if application.logger == nil {
		application.logger = zap.NewNop()
	}

	application.consoleLogger = loggerOutputs.ConsoleLogger
	if application.consoleLogger == nil {
		application.consoleLogger = zap.NewNop()
	}

	if registryError := application.buildTaskRegistry(); registryError != nil {
		return registryError
	}

	if environmentError := application.loadEnvironmentFiles(); environmentError != nil {
		return environmentError
	}

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)

		executionFlags := flagutils.CollectExecutionFlags(command)
		if !executionFlags.DryRunSet {
			executionFlags.DryRun = application.configuration.Common.DryRun
		}
		updatedContext = application.commandContextAccessor.WithExecutionFlags(updatedContext, executionFlags)
		updatedContext = application.commandContextAccessor.WithLogLevel(updatedContext, application.configuration.Common.LogLevel)

		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// InitializeForCommand prepares application state for the provided command name without executing command logic.
func (application *Application) InitializeForCommand(commandUse string) error {
	command := &cobra.Command{Use: commandUse}
	command.SetContext(context.Background())
	return application.initializeConfiguration(command)
}

func (application *Application) buildTaskRegistry() error {
	if trimmedTasksFilePath := strings.TrimSpace(application.tasksFilePath); len(trimmedTasksFilePath) > 0 {
		fileRegistry, fileRegistryError := registry.LoadTaskFile(trimmedTasksFilePath)
		if fileRegistryError != nil {
			if registry.IsDefinitionError(fileRegistryError) {
				return fileRegistryError
			}
			return fmt.Errorf(tasksFileLoadErrorTemplateConstant, fileRegistryError)
		}
		application.taskRegistry = fileRegistry
		return nil
	}

	configuredRegistry, registryError := registry.NewRegistry(registry.Definitions(application.configuration.Tasks))
	if registryError != nil {
		if registry.IsDefinitionError(registryError) {
			return registryError
		}
		return fmt.Errorf(registryBuildErrorTemplateConstant, registryError)
	}
	application.taskRegistry = configuredRegistry
	return nil
}

func (application *Application) loadEnvironmentFiles() error {
	envfile.LoadDefault(application.logger)

	requestedFiles := make([]string, 0, len(application.configuration.Common.EnvFiles)+len(application.environmentFilePaths))
	requestedFiles = append(requestedFiles, application.configuration.Common.EnvFiles...)
	requestedFiles = append(requestedFiles, application.environmentFilePaths...)

	return envfile.Load(application.logger, requestedFiles)
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	_, flagChanged, flagError := flagutils.StringFlag(command, flagName)
	if flagError != nil {
		return false
	}
	return flagChanged
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}
	if syncError := application.logger.Sync(); syncError != nil && syncRelevant(syncError) {
		return syncError
	}
	return nil
}
