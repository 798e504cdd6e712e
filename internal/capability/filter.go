package capability

import (
	"fmt"
	"strings"
)

const (
	traitExclusionTemplateConstant = "Capability!=%s"
	traitFilterSeparatorConstant   = "&"
)

// TraitExclusion maps a capability to the test trait excluded when the
// capability is absent from the environment.
type TraitExclusion struct {
	Capability Name
	Trait      string
}

// DefaultTraitExclusions lists the exclusions applied by the built-in test task.
func DefaultTraitExclusions() []TraitExclusion {
	return []TraitExclusion{
		{Capability: CapabilityInteractive, Trait: "Interactive"},
		{Capability: CapabilityDocker, Trait: "RequiresDocker"},
	}
}

// BuildTraitFilter computes the test filter expression excluding traits whose
// capability is absent. The result is deterministic in exclusion order and
// empty when every listed capability is present. The function performs no
// process invocation.
func BuildTraitFilter(capabilities Set, exclusions []TraitExclusion) string {
	filterClauses := make([]string, 0, len(exclusions))
	for exclusionIndex := range exclusions {
		exclusion := exclusions[exclusionIndex]
		trimmedTrait := strings.TrimSpace(exclusion.Trait)
		if len(trimmedTrait) == 0 {
			continue
		}
		if capabilities.Present(exclusion.Capability) {
			continue
		}
		filterClauses = append(filterClauses, fmt.Sprintf(traitExclusionTemplateConstant, trimmedTrait))
	}
	return strings.Join(filterClauses, traitFilterSeparatorConstant)
}
