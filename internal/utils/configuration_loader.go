package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorConstant            = "_"
	environmentListSeparatorConstant           = ","
	configurationKeySeparatorConstant          = "."
	embeddedConfigurationErrorTemplateConstant = "unable to merge embedded configuration: %w"
	explicitConfigurationErrorTemplateConstant = "unable to read configuration file %s: %w"
	searchPathConfigurationErrorTemplate       = "unable to read discovered configuration: %w"
	unmarshalConfigurationErrorTemplate        = "unable to decode configuration: %w"
)

// LoadedConfiguration reports metadata about a completed configuration load.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader resolves configuration from embedded defaults, files on
// the configured search paths, and environment variables, in ascending
// precedence: defaults, embedded, file, environment.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// NewConfigurationLoader constructs a loader for the named configuration.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       searchPaths,
	}
}

// SetEmbeddedConfiguration registers embedded default configuration content.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	loader.embeddedConfiguration = configurationData
	loader.embeddedConfigurationType = configurationType
}

// LoadConfiguration merges configuration sources into the provided target.
// An explicit file path, when supplied, must exist and bypasses search paths.
func (loader *ConfigurationLoader) LoadConfiguration(explicitFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	viperInstance := viper.New()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedConfiguration) > 0 {
		embeddedType := loader.embeddedConfigurationType
		if len(embeddedType) == 0 {
			embeddedType = loader.configurationType
		}
		viperInstance.SetConfigType(embeddedType)
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationErrorTemplateConstant, mergeError)
		}
	}

	configurationFileUsed := ""
	trimmedExplicitPath := strings.TrimSpace(explicitFilePath)
	if len(trimmedExplicitPath) > 0 {
		fileViper := viper.New()
		fileViper.SetConfigFile(trimmedExplicitPath)
		if readError := fileViper.ReadInConfig(); readError != nil {
			return LoadedConfiguration{}, fmt.Errorf(explicitConfigurationErrorTemplateConstant, trimmedExplicitPath, readError)
		}
		if mergeError := viperInstance.MergeConfigMap(fileViper.AllSettings()); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(explicitConfigurationErrorTemplateConstant, trimmedExplicitPath, mergeError)
		}
		configurationFileUsed = trimmedExplicitPath
	} else if len(loader.searchPaths) > 0 {
		fileViper := viper.New()
		fileViper.SetConfigName(loader.configurationName)
		fileViper.SetConfigType(loader.configurationType)
		for _, searchPath := range loader.searchPaths {
			trimmedSearchPath := strings.TrimSpace(searchPath)
			if len(trimmedSearchPath) == 0 {
				continue
			}
			fileViper.AddConfigPath(trimmedSearchPath)
		}
		readError := fileViper.ReadInConfig()
		if readError != nil {
			var notFoundError viper.ConfigFileNotFoundError
			if !errors.As(readError, &notFoundError) {
				return LoadedConfiguration{}, fmt.Errorf(searchPathConfigurationErrorTemplate, readError)
			}
		} else {
			if mergeError := viperInstance.MergeConfigMap(fileViper.AllSettings()); mergeError != nil {
				return LoadedConfiguration{}, fmt.Errorf(searchPathConfigurationErrorTemplate, mergeError)
			}
			configurationFileUsed = fileViper.ConfigFileUsed()
		}
	}

	if len(loader.environmentPrefix) > 0 {
		viperInstance.SetEnvPrefix(loader.environmentPrefix)
		viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
		viperInstance.AutomaticEnv()
	}

	if target != nil {
		decodeHookOption := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(environmentListSeparatorConstant),
		))
		if unmarshalError := viperInstance.Unmarshal(target, decodeHookOption); unmarshalError != nil {
			return LoadedConfiguration{}, fmt.Errorf(unmarshalConfigurationErrorTemplate, unmarshalError)
		}
	}

	return LoadedConfiguration{ConfigFileUsed: configurationFileUsed}, nil
}
