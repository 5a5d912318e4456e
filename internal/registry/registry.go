package registry

import (
	"sort"
	"strings"
)

// TaskDefinition describes a single named developer task.
type TaskDefinition struct {
	Name             string
	Description      string
	Command          string
	Prerequisites    []string
	WorkingDirectory string
	Environment      map[string]string
	DirectExecution  bool
}

// IsComposite reports whether the task only sequences prerequisites.
func (definition TaskDefinition) IsComposite() bool {
	return len(strings.TrimSpace(definition.Command)) == 0
}

// Registry stores an immutable, validated set of task definitions.
type Registry struct {
	orderedNames []string
	definitions  map[string]TaskDefinition
}

// NewRegistry validates the supplied definitions and constructs a registry.
// Duplicate names, self-references, dangling prerequisites, and prerequisite
// cycles are definition-time errors.
func NewRegistry(definitions []TaskDefinition) (*Registry, error) {
	orderedNames := make([]string, 0, len(definitions))
	definitionsByName := make(map[string]TaskDefinition, len(definitions))

	for definitionIndex := range definitions {
		definition := definitions[definitionIndex]
		taskName := strings.TrimSpace(definition.Name)
		if len(taskName) == 0 {
			return nil, ErrEmptyTaskName
		}
		if _, exists := definitionsByName[taskName]; exists {
			return nil, DuplicateTaskError{TaskName: taskName}
		}

		sanitizedPrerequisites := make([]string, 0, len(definition.Prerequisites))
		seenPrerequisites := make(map[string]struct{}, len(definition.Prerequisites))
		for prerequisiteIndex := range definition.Prerequisites {
			prerequisiteName := strings.TrimSpace(definition.Prerequisites[prerequisiteIndex])
			if len(prerequisiteName) == 0 {
				continue
			}
			if prerequisiteName == taskName {
				return nil, SelfPrerequisiteError{TaskName: taskName}
			}
			if _, alreadyIncluded := seenPrerequisites[prerequisiteName]; alreadyIncluded {
				continue
			}
			seenPrerequisites[prerequisiteName] = struct{}{}
			sanitizedPrerequisites = append(sanitizedPrerequisites, prerequisiteName)
		}

		definition.Name = taskName
		definition.Prerequisites = sanitizedPrerequisites
		definitionsByName[taskName] = definition
		orderedNames = append(orderedNames, taskName)
	}

	for _, taskName := range orderedNames {
		definition := definitionsByName[taskName]
		for _, prerequisiteName := range definition.Prerequisites {
			if _, exists := definitionsByName[prerequisiteName]; !exists {
				return nil, UnknownPrerequisiteError{TaskName: taskName, PrerequisiteName: prerequisiteName}
			}
		}
	}

	if cycleError := detectPrerequisiteCycle(orderedNames, definitionsByName); cycleError != nil {
		return nil, cycleError
	}

	return &Registry{orderedNames: orderedNames, definitions: definitionsByName}, nil
}

// Lookup returns the definition registered under the provided name.
func (taskRegistry *Registry) Lookup(taskName string) (TaskDefinition, error) {
	normalizedName := strings.TrimSpace(taskName)
	definition, exists := taskRegistry.definitions[normalizedName]
	if !exists {
		return TaskDefinition{}, TaskNotFoundError{TaskName: normalizedName}
	}
	return definition, nil
}

// TaskNames returns the registered task names in definition order.
func (taskRegistry *Registry) TaskNames() []string {
	names := make([]string, len(taskRegistry.orderedNames))
	copy(names, taskRegistry.orderedNames)
	return names
}

// Len reports the number of registered tasks.
func (taskRegistry *Registry) Len() int {
	return len(taskRegistry.orderedNames)
}

// detectPrerequisiteCycle runs a Kahn-style pass over the prerequisite graph;
// any node left unprocessed participates in a cycle.
func detectPrerequisiteCycle(orderedNames []string, definitions map[string]TaskDefinition) error {
	inDegree := make(map[string]int, len(orderedNames))
	dependents := make(map[string][]string, len(orderedNames))

	for _, taskName := range orderedNames {
		inDegree[taskName] = 0
	}
	for _, taskName := range orderedNames {
		for _, prerequisiteName := range definitions[taskName].Prerequisites {
			inDegree[taskName]++
			dependents[prerequisiteName] = append(dependents[prerequisiteName], taskName)
		}
	}

	ready := make([]string, 0, len(orderedNames))
	for _, taskName := range orderedNames {
		if inDegree[taskName] == 0 {
			ready = append(ready, taskName)
		}
	}

	processed := make(map[string]struct{}, len(orderedNames))
	for len(ready) > 0 {
		currentName := ready[0]
		ready = ready[1:]
		processed[currentName] = struct{}{}

		for _, dependentName := range dependents[currentName] {
			inDegree[dependentName]--
			if inDegree[dependentName] == 0 {
				ready = append(ready, dependentName)
			}
		}
	}

	if len(processed) == len(orderedNames) {
		return nil
	}

	remaining := make([]string, 0)
	for _, taskName := range orderedNames {
		if _, done := processed[taskName]; !done {
			remaining = append(remaining, taskName)
		}
	}
	sort.Strings(remaining)
	return PrerequisiteCycleError{TaskNames: remaining}
}
