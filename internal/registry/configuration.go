package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	taskFileReadErrorTemplateConstant  = "unable to read task file %s: %w"
	taskFileParseErrorTemplateConstant = "unable to parse task file %s: %w"
)

// TaskConfiguration captures a task definition from configuration sources.
type TaskConfiguration struct {
	Name             string            `mapstructure:"name" yaml:"name"`
	Description      string            `mapstructure:"description" yaml:"description"`
	Command          string            `mapstructure:"command" yaml:"command"`
	Prerequisites    []string          `mapstructure:"prerequisites" yaml:"prerequisites"`
	WorkingDirectory string            `mapstructure:"working_directory" yaml:"working_directory"`
	Environment      map[string]string `mapstructure:"environment" yaml:"environment"`
	DirectExecution  bool              `mapstructure:"direct" yaml:"direct"`
}

// TaskFileConfiguration models a standalone task file.
type TaskFileConfiguration struct {
	Tasks []TaskConfiguration `yaml:"tasks"`
}

// Definitions converts configured tasks into registry definitions.
func Definitions(configurations []TaskConfiguration) []TaskDefinition {
	definitions := make([]TaskDefinition, 0, len(configurations))
	for configurationIndex := range configurations {
		configuration := configurations[configurationIndex]
		definitions = append(definitions, TaskDefinition{
			Name:             configuration.Name,
			Description:      configuration.Description,
			Command:          configuration.Command,
			Prerequisites:    configuration.Prerequisites,
			WorkingDirectory: configuration.WorkingDirectory,
			Environment:      configuration.Environment,
			DirectExecution:  configuration.DirectExecution,
		})
	}
	return definitions
}

// LoadTaskFile parses a standalone YAML task file into a validated registry.
func LoadTaskFile(taskFilePath string) (*Registry, error) {
	fileContent, readError := os.ReadFile(taskFilePath) // #nosec G304
	if readError != nil {
		return nil, fmt.Errorf(taskFileReadErrorTemplateConstant, taskFilePath, readError)
	}

	var fileConfiguration TaskFileConfiguration
	if parseError := yaml.Unmarshal(fileContent, &fileConfiguration); parseError != nil {
		return nil, fmt.Errorf(taskFileParseErrorTemplateConstant, taskFilePath, parseError)
	}

	return NewRegistry(Definitions(fileConfiguration.Tasks))
}
