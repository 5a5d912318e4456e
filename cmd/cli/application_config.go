package cli

import (
	_ "embed"

	"github.com/jagreehal/makex/internal/registry"
)

//go:embed config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the default configuration content and type.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfiguration, configurationTypeConstant
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tasks  []registry.TaskConfiguration   `mapstructure:"tasks"`
}

// ApplicationCommonConfiguration stores logging and execution defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string   `mapstructure:"log_level"`
	LogFormat string   `mapstructure:"log_format"`
	DryRun    bool     `mapstructure:"dry_run"`
	EnvFiles  []string `mapstructure:"env_files"`
}
