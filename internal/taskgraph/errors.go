package taskgraph

import (
	"fmt"
	"strings"
)

const (
	duplicateTaskErrorTemplateConstant  = "task %q is already registered"
	unknownTaskErrorTemplateConstant    = "task %q is not registered"
	cyclicDependencyTemplateConstant    = "task dependencies contain a cycle: %s"
	cyclicDependencySeparatorConstant   = " -> "
	cyclicDependencyUnknownCycleMessage = "task dependencies contain a cycle"
)

// DuplicateTaskError reports a registration attempt reusing an existing task name.
type DuplicateTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskErrorTemplateConstant, errorDetails.TaskName)
}

// UnknownTaskError reports a lookup or dependency reference naming an unregistered task.
type UnknownTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails UnknownTaskError) Error() string {
	return fmt.Sprintf(unknownTaskErrorTemplateConstant, errorDetails.TaskName)
}

// CyclicDependencyError reports a dependency cycle. Cycle lists the task names
// along the cycle in traversal order, ending with the task that closed it.
type CyclicDependencyError struct {
	Cycle []string
}

// Error implements the error interface and names the detected cycle.
func (errorDetails CyclicDependencyError) Error() string {
	if len(errorDetails.Cycle) == 0 {
		return cyclicDependencyUnknownCycleMessage
	}
	return fmt.Sprintf(cyclicDependencyTemplateConstant, strings.Join(errorDetails.Cycle, cyclicDependencySeparatorConstant))
}
