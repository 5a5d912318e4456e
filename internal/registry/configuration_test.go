package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jagreehal/makex/internal/registry"
)

const (
	taskFileNameConstant        = "tasks.yaml"
	missingTaskFilePathConstant = "missing/tasks.yaml"
	taskFileContentConstant     = `tasks:
  - name: format
    description: Auto-format sources
    command: ruff format src tests
  - name: lint
    command: ruff check src tests
    prerequisites:
      - format
  - name: bench
    command: go test -bench=.
    direct: true
    working_directory: ./bench
    environment:
      BENCH_MODE: quick
`
	invalidTaskFileContentConstant = "tasks: [\n"
	danglingTaskFileContentConstant = `tasks:
  - name: lint
    command: ruff check src tests
    prerequisites:
      - missing
`
)

func TestLoadTaskFile(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	taskFilePath := filepath.Join(temporaryDirectory, taskFileNameConstant)
	require.NoError(testInstance, os.WriteFile(taskFilePath, []byte(taskFileContentConstant), 0o600))

	loadedRegistry, loadError := registry.LoadTaskFile(taskFilePath)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"format", "lint", "bench"}, loadedRegistry.TaskNames())

	lintDefinition, lookupError := loadedRegistry.Lookup("lint")
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, []string{"format"}, lintDefinition.Prerequisites)

	benchDefinition, lookupError := loadedRegistry.Lookup("bench")
	require.NoError(testInstance, lookupError)
	require.True(testInstance, benchDefinition.DirectExecution)
	require.Equal(testInstance, "./bench", benchDefinition.WorkingDirectory)
	require.Equal(testInstance, map[string]string{"BENCH_MODE": "quick"}, benchDefinition.Environment)
}

func TestLoadTaskFileFailures(testInstance *testing.T) {
	testCases := []struct {
		name               string
		fileContent        string
		useMissingPath     bool
		expectDefinitional bool
	}{
		{name: "missing_file", useMissingPath: true},
		{name: "invalid_yaml", fileContent: invalidTaskFileContentConstant},
		{name: "dangling_prerequisite", fileContent: danglingTaskFileContentConstant, expectDefinitional: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			taskFilePath := filepath.Join(subtest.TempDir(), missingTaskFilePathConstant)
			if !testCase.useMissingPath {
				taskFilePath = filepath.Join(subtest.TempDir(), taskFileNameConstant)
				require.NoError(subtest, os.WriteFile(taskFilePath, []byte(testCase.fileContent), 0o600))
			}

			loadedRegistry, loadError := registry.LoadTaskFile(taskFilePath)
			require.Nil(subtest, loadedRegistry)
			require.Error(subtest, loadError)
			require.Equal(subtest, testCase.expectDefinitional, registry.IsDefinitionError(loadError))
		})
	}
}

func TestDefinitionsConversion(testInstance *testing.T) {
	configurations := []registry.TaskConfiguration{
		{Name: "lint", Description: "Static checks", Command: "ruff check src tests", Prerequisites: []string{"format"}},
	}

	definitions := registry.Definitions(configurations)
	require.Len(testInstance, definitions, 1)
	require.Equal(testInstance, "lint", definitions[0].Name)
	require.Equal(testInstance, "Static checks", definitions[0].Description)
	require.Equal(testInstance, []string{"format"}, definitions[0].Prerequisites)
}
