// Package sender assesses the reputation of a message sender. The result
// is informational and never affects the verdict.
package sender

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// Assessment texts
const (
	AssessmentTrusted          = "Trusted domain"
	AssessmentLooksOkay        = "Looks okay"
	AssessmentSuspiciousDomain = "Suspicious domain"
	AssessmentNumberOkay       = "Number looks okay"
	AssessmentShortcode        = "Shortcode number, be cautious"
	AssessmentNoSender         = "No sender provided"
	AssessmentUnknown          = "Unknown sender format"
)

// minFullNumberDigits is the length below which a numeric sender is a shortcode
const minFullNumberDigits = 10

var commonSuffixes = []string{".com", ".org", ".net"}

// Checker implements core.SenderAssessor
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new sender checker with a list of trusted email domains
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender checker", zap.Strings("trusted_domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsTrusted checks if the sender's domain is in the trusted list
func (c *Checker) IsTrusted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain, ok := emailDomain(from)
	if !ok {
		return false
	}

	for _, trusted := range c.domains {
		if trusted == domain {
			if c.logger != nil {
				c.logger.Debug("Domain is trusted",
					zap.String("domain", domain),
					zap.String("email", from))
			}
			return true
		}
	}
	return false
}

// Assess returns the reputation of sender for a message type
func (c *Checker) Assess(t core.MessageType, sender string) core.SenderReputation {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return core.SenderReputation{Assessment: AssessmentNoSender}
	}

	if strings.Contains(sender, "@") {
		if c.IsTrusted(sender) {
			return core.SenderReputation{Trusted: true, Assessment: AssessmentTrusted}
		}
		lower := strings.ToLower(sender)
		for _, suffix := range commonSuffixes {
			if strings.HasSuffix(lower, suffix) {
				return core.SenderReputation{Assessment: AssessmentLooksOkay}
			}
		}
		return core.SenderReputation{Assessment: AssessmentSuspiciousDomain}
	}

	if t == core.MessageTypeSMS || isPhoneLike(sender) {
		digits := countDigits(sender)
		if digits == 0 {
			return core.SenderReputation{Assessment: AssessmentUnknown}
		}
		if digits < minFullNumberDigits {
			return core.SenderReputation{Assessment: AssessmentShortcode}
		}
		return core.SenderReputation{Assessment: AssessmentNumberOkay}
	}

	return core.SenderReputation{Assessment: AssessmentUnknown}
}

func emailDomain(from string) (string, bool) {
	parts := strings.Split(from, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	return strings.ToLower(strings.Trim(parts[1], "> ")), true
}

func isPhoneLike(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '+' && r != '-' && r != ' ' {
			return false
		}
	}
	return true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
