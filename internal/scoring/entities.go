package scoring

import (
	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/rules"
)

// extractEntities runs every entity pattern against content. Matches are
// non-overlapping, in order of appearance, duplicates kept.
func extractEntities(r *rules.Compiled, content string) core.EntityBundle {
	bundle := core.NewEntityBundle()
	for _, kind := range core.EntityKinds {
		re, ok := r.Entities[kind]
		if !ok {
			continue
		}
		bundle.Set(kind, re.FindAllString(content, -1))
	}
	return bundle
}

// applyEntitySignals fills the structural flags that derive from entities
func applyEntitySignals(s *core.StructuralSignals, b core.EntityBundle) {
	s.HasPhoneNumber = len(b.PhoneNumbers) > 0
	s.HasURL = len(b.URLs) > 0
	s.HasMonetaryAmount = len(b.Amounts) > 0
}
