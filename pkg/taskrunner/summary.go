package taskrunner

import (
	"fmt"
	"strings"
	"time"
)

const (
	summaryHeaderTemplateConstant      = "target %s: %d executed, %d skipped in %s"
	summaryExecutedLineTemplate        = "  ✓ %s"
	summarySkippedLineTemplateConstant = "  - %s (skipped)"
	summaryDurationRoundingInterval    = time.Millisecond
)

// FormatSummary renders a human-readable report of a finished run.
func FormatSummary(outcome RunOutcome) string {
	summaryLines := make([]string, 0, len(outcome.ExecutedTasks)+len(outcome.SkippedTasks)+1)
	summaryLines = append(summaryLines, fmt.Sprintf(
		summaryHeaderTemplateConstant,
		outcome.Target,
		len(outcome.ExecutedTasks),
		len(outcome.SkippedTasks),
		outcome.Duration.Round(summaryDurationRoundingInterval),
	))

	skippedTaskNames := make(map[string]bool, len(outcome.SkippedTasks))
	for _, skippedTaskName := range outcome.SkippedTasks {
		skippedTaskNames[skippedTaskName] = true
	}

	for _, resolvedTaskName := range outcome.ResolvedOrder {
		if skippedTaskNames[resolvedTaskName] {
			summaryLines = append(summaryLines, fmt.Sprintf(summarySkippedLineTemplateConstant, resolvedTaskName))
			continue
		}
		summaryLines = append(summaryLines, fmt.Sprintf(summaryExecutedLineTemplate, resolvedTaskName))
	}

	return strings.Join(summaryLines, "\n")
}
