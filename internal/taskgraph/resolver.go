package taskgraph

// Resolve computes the ordered, deduplicated task sequence satisfying every
// transitive dependency of the target: each name appears after all of its
// dependencies and before any task depending on it, first-seen order winning
// for shared dependencies. Resolution validates the full graph reachable from
// the target before any caller runs an action, so unknown references and
// cycles surface without partial side effects.
func (registry *Registry) Resolve(targetName string) ([]string, error) {
	resolver := dependencyResolver{
		registry: registry,
		visiting: make(map[string]struct{}),
		resolved: make(map[string]struct{}),
	}
	if traversalError := resolver.visit(targetName); traversalError != nil {
		return nil, traversalError
	}
	return resolver.order, nil
}

type dependencyResolver struct {
	registry *Registry
	visiting map[string]struct{}
	resolved map[string]struct{}
	path     []string
	order    []string
}

func (resolver *dependencyResolver) visit(taskName string) error {
	task, lookupError := resolver.registry.Lookup(taskName)
	if lookupError != nil {
		return lookupError
	}

	if _, alreadyResolved := resolver.resolved[task.Name]; alreadyResolved {
		return nil
	}
	if _, currentlyVisiting := resolver.visiting[task.Name]; currentlyVisiting {
		return CyclicDependencyError{Cycle: resolver.cycleThrough(task.Name)}
	}

	resolver.visiting[task.Name] = struct{}{}
	resolver.path = append(resolver.path, task.Name)

	for _, dependencyName := range task.Dependencies {
		if dependencyError := resolver.visit(dependencyName); dependencyError != nil {
			return dependencyError
		}
	}

	resolver.path = resolver.path[:len(resolver.path)-1]
	delete(resolver.visiting, task.Name)
	resolver.resolved[task.Name] = struct{}{}
	resolver.order = append(resolver.order, task.Name)
	return nil
}

// cycleThrough extracts the cycle from the traversal path, starting at the
// first occurrence of the repeated task and closing back on it.
func (resolver *dependencyResolver) cycleThrough(repeatedTaskName string) []string {
	cycleStartIndex := 0
	for pathIndex := range resolver.path {
		if resolver.path[pathIndex] == repeatedTaskName {
			cycleStartIndex = pathIndex
			break
		}
	}

	cycle := make([]string, 0, len(resolver.path)-cycleStartIndex+1)
	cycle = append(cycle, resolver.path[cycleStartIndex:]...)
	cycle = append(cycle, repeatedTaskName)
	return cycle
}
