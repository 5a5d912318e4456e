package version

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersionFallbackConstant = "unknown"
	buildInfoDevelVersionValue     = "devel"
	vcsRevisionSettingKeyConstant  = "vcs.revision"
	vcsModifiedSettingKeyConstant  = "vcs.modified"
	modifiedRevisionSuffixConstant = "-dirty"
	shortRevisionLengthConstant    = 12
)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

// Dependencies describes the collaborators required for version detection.
type Dependencies struct {
	BuildInfoProvider BuildInfoProvider
}

// Detect resolves the application version from module build metadata, falling
// back to the embedded VCS revision and finally to "unknown".
func Detect(dependencies Dependencies) string {
	provider := dependencies.BuildInfoProvider
	if provider == nil {
		provider = runtimeBuildInfoProvider{}
	}

	buildInfo, available := provider.Read()
	if !available || buildInfo == nil {
		return unknownVersionFallbackConstant
	}

	moduleVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(moduleVersion) > 0 && !strings.EqualFold(moduleVersion, buildInfoDevelVersionValue) {
		return moduleVersion
	}

	revision := ""
	modified := false
	for settingIndex := range buildInfo.Settings {
		setting := buildInfo.Settings[settingIndex]
		switch setting.Key {
		case vcsRevisionSettingKeyConstant:
			revision = strings.TrimSpace(setting.Value)
		case vcsModifiedSettingKeyConstant:
			modified = strings.EqualFold(strings.TrimSpace(setting.Value), "true")
		}
	}

	if len(revision) == 0 {
		return unknownVersionFallbackConstant
	}
	if len(revision) > shortRevisionLengthConstant {
		revision = revision[:shortRevisionLengthConstant]
	}
	if modified {
		revision += modifiedRevisionSuffixConstant
	}
	return revision
}
