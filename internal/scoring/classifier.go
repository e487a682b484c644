package scoring

import "github.com/mikey/scamguard/internal/core"

const (
	// MaxConfidence is the ceiling applied to every confidence value
	MaxConfidence = 0.95
	// DefaultConfidence is reported when no rule fires
	DefaultConfidence = 0.5
)

// Branch names the cascade rule that produced a verdict
type Branch string

const (
	BranchLegitimate       Branch = "legitimate_override"
	BranchHighConfidence   Branch = "high_confidence"
	BranchMediumConfidence Branch = "medium_confidence"
	BranchDefault          Branch = "default"
)

// classify evaluates the verdict cascade. The first matching branch wins.
func classify(t core.MessageType, m *lexicalMatches) (core.Verdict, Branch) {
	suspicious := len(m.suspicious)
	legitimate := len(m.legitimate)
	s := m.signals

	var (
		isFraud    bool
		confidence = DefaultConfidence
		branch     = BranchDefault
	)

	switch {
	case s.HasLegitBankFormat && legitimate > 0:
		confidence = 0.2 + 0.1*float64(legitimate)
		branch = BranchLegitimate
	case suspicious > 0 && (s.HasSuspiciousShortenedURL || suspicious > 2):
		isFraud = true
		confidence = 0.8 + 0.05*float64(suspicious)
		branch = BranchHighConfidence
	case suspicious > 0 || (s.HasPhoneNumber && s.HasURL):
		isFraud = true
		confidence = 0.6 + 0.1*float64(suspicious)
		branch = BranchMediumConfidence
	}

	return core.Verdict{
		IsFraud:    isFraud,
		Label:      t.Label(isFraud),
		Confidence: clampConfidence(confidence),
	}, branch
}

func clampConfidence(c float64) float64 {
	if c > MaxConfidence {
		return MaxConfidence
	}
	if c < 0 {
		return 0
	}
	return c
}
