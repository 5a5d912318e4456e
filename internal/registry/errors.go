package registry

import (
	"errors"
	"fmt"
	"strings"
)

const (
	emptyTaskNameMessageConstant               = "task definition missing name"
	duplicateTaskMessageTemplateConstant       = "task %q defined multiple times"
	selfPrerequisiteMessageTemplateConstant    = "task %q cannot list itself as a prerequisite"
	unknownPrerequisiteMessageTemplateConstant = "task %q references unknown prerequisite %q"
	cycleMessageTemplateConstant               = "task prerequisites contain a cycle involving %s"
	taskNotFoundMessageTemplateConstant        = "task %q is not defined"
)

// ErrEmptyTaskName indicates a task definition without a usable name.
var ErrEmptyTaskName = errors.New(emptyTaskNameMessageConstant)

// DuplicateTaskError indicates that two definitions share a task name.
type DuplicateTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskMessageTemplateConstant, errorDetails.TaskName)
}

// SelfPrerequisiteError indicates a task listing itself as a prerequisite.
type SelfPrerequisiteError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails SelfPrerequisiteError) Error() string {
	return fmt.Sprintf(selfPrerequisiteMessageTemplateConstant, errorDetails.TaskName)
}

// UnknownPrerequisiteError indicates a prerequisite reference that resolves to no defined task.
type UnknownPrerequisiteError struct {
	TaskName         string
	PrerequisiteName string
}

// Error implements the error interface.
func (errorDetails UnknownPrerequisiteError) Error() string {
	return fmt.Sprintf(unknownPrerequisiteMessageTemplateConstant, errorDetails.TaskName, errorDetails.PrerequisiteName)
}

// PrerequisiteCycleError indicates that the prerequisite graph is not acyclic.
type PrerequisiteCycleError struct {
	TaskNames []string
}

// Error implements the error interface.
func (errorDetails PrerequisiteCycleError) Error() string {
	return fmt.Sprintf(cycleMessageTemplateConstant, strings.Join(errorDetails.TaskNames, ", "))
}

// TaskNotFoundError indicates that a requested task name is absent from the registry.
type TaskNotFoundError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails TaskNotFoundError) Error() string {
	return fmt.Sprintf(taskNotFoundMessageTemplateConstant, errorDetails.TaskName)
}

// IsDefinitionError reports whether the provided error describes a malformed registry.
func IsDefinitionError(candidate error) bool {
	var duplicateError DuplicateTaskError
	var selfError SelfPrerequisiteError
	var unknownError UnknownPrerequisiteError
	var cycleError PrerequisiteCycleError
	return errors.Is(candidate, ErrEmptyTaskName) ||
		errors.As(candidate, &duplicateError) ||
		errors.As(candidate, &selfError) ||
		errors.As(candidate, &unknownError) ||
		errors.As(candidate, &cycleError)
}
