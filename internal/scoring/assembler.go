package scoring

import (
	"strings"

	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/rules"
)

// MaxSimilarExamples caps the example messages attached to a result
const MaxSimilarExamples = 3

// similarExamples picks table entries containing any matched suspicious
// keyword, in table order. Only fraud verdicts get examples.
func similarExamples(r *rules.Compiled, t core.MessageType, verdict core.Verdict, suspicious []string) []string {
	out := []string{}
	if !verdict.IsFraud || len(suspicious) == 0 {
		return out
	}
	for _, example := range r.Examples(t) {
		lower := strings.ToLower(example)
		for _, kw := range suspicious {
			if strings.Contains(lower, strings.ToLower(kw)) {
				out = append(out, example)
				break
			}
		}
		if len(out) == MaxSimilarExamples {
			break
		}
	}
	return out
}

// assemble packages the stage outputs into a result
func assemble(
	r *rules.Compiled,
	req *core.AnalysisRequest,
	m *lexicalMatches,
	entities core.EntityBundle,
	verdict core.Verdict,
	risk core.RiskIndicators,
) *core.AnalysisResult {
	result := &core.AnalysisResult{
		Type:             req.Type,
		Result:           verdict.Label,
		Confidence:       verdict.Confidence,
		IsScam:           verdict.IsFraud,
		Details:          risk,
		Entities:         entities,
		DetectedKeywords: m.keywords(),
		SimilarExamples:  similarExamples(r, req.Type, verdict, m.suspicious),
		Recommendations:  r.Recommendations(verdict.IsFraud),
	}
	if !verdict.IsFraud {
		result.LegitimacyIndicators = &core.LegitimacyIndicators{
			HasOfficialBankFormat:  m.signals.HasLegitBankFormat,
			HasMaskedAccountNumber: m.signals.HasMaskedAccount,
			HasOfficialHelpline:    m.signals.HasOfficialHelpline,
			HasProperDateTime:      m.signals.HasProperDateTime,
		}
	}
	return result
}
