package engine

import "time"

// RunOutcome summarizes a completed or aborted run for observability.
type RunOutcome struct {
	RunID          string
	Target         string
	ResolvedOrder  []string
	ExecutedTasks  []string
	SkippedTasks   []string
	IterationCount map[string]int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
