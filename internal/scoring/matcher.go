// Package scoring implements the rule based message classifier: keyword
// and structural matching, entity extraction, the verdict cascade, risk
// axes and result assembly.
package scoring

import (
	"strings"

	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/rules"
)

// lexicalMatches is the output of the lexical matcher
type lexicalMatches struct {
	suspicious []string
	legitimate []string
	signals    core.StructuralSignals
}

// keywords returns the matches as tagged keyword records, suspicious first
func (m *lexicalMatches) keywords() []core.KeywordMatch {
	out := make([]core.KeywordMatch, 0, len(m.suspicious)+len(m.legitimate))
	for _, t := range m.suspicious {
		out = append(out, core.KeywordMatch{Term: t, Polarity: core.PolaritySuspicious})
	}
	for _, t := range m.legitimate {
		out = append(out, core.KeywordMatch{Term: t, Polarity: core.PolarityLegitimate})
	}
	return out
}

// matchLexical scans content for both vocabularies and the structural patterns.
// Keywords match as case-insensitive substrings in vocabulary order.
func matchLexical(r *rules.Compiled, content string) *lexicalMatches {
	lower := strings.ToLower(content)
	m := &lexicalMatches{
		suspicious: containedTerms(r.Suspicious, lower),
		legitimate: containedTerms(r.Legitimate, lower),
	}

	for _, re := range r.LegitBank {
		if re.MatchString(content) {
			m.signals.HasLegitBankFormat = true
			break
		}
	}
	m.signals.HasMaskedAccount = r.MaskedAccount.MatchString(content)
	m.signals.HasOfficialHelpline = r.OfficialHelpline.MatchString(content)
	m.signals.HasProperDateTime = r.ProperDateTime.MatchString(content)
	m.signals.HasSuspiciousShortenedURL = r.ShortenedURL.MatchString(content)
	return m
}

func containedTerms(vocab []rules.Keyword, lower string) []string {
	var found []string
	if lower == "" {
		return found
	}
	for _, k := range vocab {
		if strings.Contains(lower, k.Lower) {
			found = append(found, k.Term)
		}
	}
	return found
}
