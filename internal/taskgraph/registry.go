package taskgraph

import "strings"

// Registry stores task definitions keyed by name. It is write-once,
// read-many: tasks cannot be replaced or removed after registration.
type Registry struct {
	tasksByName       map[string]Task
	registrationOrder []string
}

// NewRegistry constructs an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasksByName: make(map[string]Task)}
}

// Register adds a task definition, failing with DuplicateTaskError when the
// name is already taken.
func (registry *Registry) Register(task Task) error {
	normalizedName := strings.TrimSpace(task.Name)
	if len(normalizedName) == 0 {
		return ErrTaskNameMissing
	}
	if _, exists := registry.tasksByName[normalizedName]; exists {
		return DuplicateTaskError{TaskName: normalizedName}
	}

	task.Name = normalizedName
	registry.tasksByName[normalizedName] = task
	registry.registrationOrder = append(registry.registrationOrder, normalizedName)
	return nil
}

// Lookup returns the task registered under the provided name or UnknownTaskError.
func (registry *Registry) Lookup(taskName string) (Task, error) {
	normalizedName := strings.TrimSpace(taskName)
	task, exists := registry.tasksByName[normalizedName]
	if !exists {
		return Task{}, UnknownTaskError{TaskName: normalizedName}
	}
	return task, nil
}

// TaskNames returns the registered task names in registration order.
func (registry *Registry) TaskNames() []string {
	names := make([]string, len(registry.registrationOrder))
	copy(names, registry.registrationOrder)
	return names
}
