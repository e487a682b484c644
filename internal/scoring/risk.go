package scoring

import (
	"regexp"
	"strings"

	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/rules"
)

const (
	// riskLow is the score of an axis whose trigger is absent
	riskLow = 0.15
	// riskHighFloor is the lower bound of a triggered axis; one hit scores 0.625
	riskHighFloor = 0.5
	// riskSaturation is the hit count at which an axis reaches 1.0
	riskSaturation = 4
)

// assessRisk scores the four persuasion axes from signals already
// computed for the request. It does not depend on the verdict.
func assessRisk(r *rules.Compiled, content string, m *lexicalMatches, entities core.EntityBundle) core.RiskIndicators {
	return core.RiskIndicators{
		Urgency:   axisScore(len(m.suspicious)),
		Fear:      axisScore(distinctHits(r.Fear, content)),
		Authority: axisScore(distinctHits(r.Authority, content)),
		Financial: axisScore(len(entities.Amounts)),
	}
}

// axisScore maps a trigger count onto [0.5,1.0] when present, riskLow otherwise
func axisScore(hits int) float64 {
	if hits <= 0 {
		return riskLow
	}
	if hits > riskSaturation {
		hits = riskSaturation
	}
	return riskHighFloor + (1-riskHighFloor)*float64(hits)/riskSaturation
}

func distinctHits(re *regexp.Regexp, content string) int {
	seen := make(map[string]struct{})
	for _, hit := range re.FindAllString(content, -1) {
		seen[strings.ToLower(hit)] = struct{}{}
	}
	return len(seen)
}
