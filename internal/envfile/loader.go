package envfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultEnvironmentFileNameConstant   = ".env"
	environmentFileLoadErrorTemplate     = "unable to load environment file %s: %w"
	environmentFileLoadedMessageConstant = "environment file loaded"
	environmentFilePathFieldConstant     = "path"
)

// Load applies the requested environment files in order. Explicitly requested
// files must exist; variables already present in the process environment are
// preserved by godotenv.
func Load(logger *zap.Logger, environmentFilePaths []string) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, environmentFilePath := range environmentFilePaths {
		trimmedPath := strings.TrimSpace(environmentFilePath)
		if len(trimmedPath) == 0 {
			continue
		}
		if loadError := godotenv.Load(trimmedPath); loadError != nil {
			return fmt.Errorf(environmentFileLoadErrorTemplate, trimmedPath, loadError)
		}
		logger.Debug(environmentFileLoadedMessageConstant, zap.String(environmentFilePathFieldConstant, trimmedPath))
	}

	return nil
}

// LoadDefault applies the working directory's .env file when present.
func LoadDefault(logger *zap.Logger) {
	if _, statError := os.Stat(defaultEnvironmentFileNameConstant); statError != nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loadError := godotenv.Load(defaultEnvironmentFileNameConstant); loadError == nil {
		logger.Debug(environmentFileLoadedMessageConstant, zap.String(environmentFilePathFieldConstant, defaultEnvironmentFileNameConstant))
	}
}
