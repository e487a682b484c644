package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mikey/scamguard/internal/core"
)

// Keyword is a vocabulary term with its lower-cased search form
type Keyword struct {
	Term  string
	Lower string
}

// Compiled is a validated rule set with every pattern compiled. It is
// read-only after Compile returns and safe for concurrent use.
type Compiled struct {
	Suspicious []Keyword
	Legitimate []Keyword

	LegitBank        []*regexp.Regexp
	MaskedAccount    *regexp.Regexp
	OfficialHelpline *regexp.Regexp
	ProperDateTime   *regexp.Regexp
	ShortenedURL     *regexp.Regexp

	Entities map[core.EntityKind]*regexp.Regexp

	Fear      *regexp.Regexp
	Authority *regexp.Regexp

	examples    map[core.MessageType][]string
	fraudAdvice []string
	safeAdvice  []string
}

// Compile validates the rule set and compiles its patterns
func Compile(rs *RuleSet) (*Compiled, error) {
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	c := &Compiled{
		Suspicious:  keywords(rs.SuspiciousKeywords),
		Legitimate:  keywords(rs.LegitimateKeywords),
		Entities:    make(map[core.EntityKind]*regexp.Regexp, len(core.EntityKinds)),
		examples:    make(map[core.MessageType][]string, len(rs.Examples)),
		fraudAdvice: append([]string(nil), rs.Recommendations.Fraud[:FraudRecommendationCount]...),
		safeAdvice:  append([]string(nil), rs.Recommendations.Safe[:SafeRecommendationCount]...),
	}

	for i, p := range rs.Structural.LegitBank {
		re, err := compile(fmt.Sprintf("structural.legit_bank[%d]", i), p)
		if err != nil {
			return nil, err
		}
		c.LegitBank = append(c.LegitBank, re)
	}

	single := []struct {
		name    string
		pattern string
		dst     **regexp.Regexp
	}{
		{"structural.masked_account", rs.Structural.MaskedAccount, &c.MaskedAccount},
		{"structural.official_helpline", rs.Structural.OfficialHelpline, &c.OfficialHelpline},
		{"structural.proper_date_time", rs.Structural.ProperDateTime, &c.ProperDateTime},
		{"structural.shortened_url", rs.Structural.ShortenedURL, &c.ShortenedURL},
		{"risk.fear", rs.Risk.Fear, &c.Fear},
		{"risk.authority", rs.Risk.Authority, &c.Authority},
	}
	for _, s := range single {
		re, err := compile(s.name, s.pattern)
		if err != nil {
			return nil, err
		}
		*s.dst = re
	}

	entityPatterns := map[core.EntityKind]string{
		core.EntityPhone:  rs.Entities.Phone,
		core.EntityAmount: rs.Entities.Amount,
		core.EntityDate:   rs.Entities.Date,
		core.EntityEmail:  rs.Entities.Email,
		core.EntityURL:    rs.Entities.URL,
	}
	for kind, p := range entityPatterns {
		re, err := compile("entities."+strings.ToLower(string(kind)), p)
		if err != nil {
			return nil, err
		}
		c.Entities[kind] = re
	}

	for key, list := range rs.Examples {
		t, _ := core.ParseMessageType(key)
		c.examples[t] = append([]string(nil), list...)
	}

	return c, nil
}

// MustCompile is like Compile but panics on error. Intended for the
// built-in defaults and tests.
func MustCompile(rs *RuleSet) *Compiled {
	c, err := Compile(rs)
	if err != nil {
		panic(err)
	}
	return c
}

// Examples returns the fraud example table for a message type
func (c *Compiled) Examples(t core.MessageType) []string {
	return c.examples[t]
}

// Recommendations returns a copy of the advice list for a verdict
func (c *Compiled) Recommendations(isFraud bool) []string {
	if isFraud {
		return append([]string(nil), c.fraudAdvice...)
	}
	return append([]string(nil), c.safeAdvice...)
}

func compile(name, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern %s is empty", name)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %s: %w", name, err)
	}
	return re, nil
}

func keywords(terms []string) []Keyword {
	out := make([]Keyword, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, Keyword{Term: t, Lower: strings.ToLower(t)})
	}
	return out
}
