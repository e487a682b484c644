// Package rules holds the static tables that drive message scoring:
// keyword vocabularies, structural patterns, entity patterns, example
// messages and recommendation lists. A RuleSet is plain data that can be
// loaded from YAML; Compile turns it into the immutable form the scoring
// engine shares across requests.
package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mikey/scamguard/internal/core"
)

const (
	// FraudRecommendationCount is the number of recommendations for a fraud verdict
	FraudRecommendationCount = 5
	// SafeRecommendationCount is the number of recommendations for a safe verdict
	SafeRecommendationCount = 4
)

// StructuralPatterns are the regexes behind StructuralSignals
type StructuralPatterns struct {
	LegitBank        []string `yaml:"legit_bank"`
	MaskedAccount    string   `yaml:"masked_account"`
	OfficialHelpline string   `yaml:"official_helpline"`
	ProperDateTime   string   `yaml:"proper_date_time"`
	ShortenedURL     string   `yaml:"shortened_url"`
}

// EntityPatterns are the regexes used by the entity extractor
type EntityPatterns struct {
	Phone  string `yaml:"phone"`
	Amount string `yaml:"amount"`
	Date   string `yaml:"date"`
	Email  string `yaml:"email"`
	URL    string `yaml:"url"`
}

// RiskPatterns are the per-axis triggers that are not derived from other signals
type RiskPatterns struct {
	Fear      string `yaml:"fear"`
	Authority string `yaml:"authority"`
}

// Recommendations are the two fixed advice lists
type Recommendations struct {
	Fraud []string `yaml:"fraud"`
	Safe  []string `yaml:"safe"`
}

// RuleSet is the complete configuration of the scoring engine
type RuleSet struct {
	SuspiciousKeywords []string            `yaml:"suspicious_keywords"`
	LegitimateKeywords []string            `yaml:"legitimate_keywords"`
	Structural         StructuralPatterns  `yaml:"structural"`
	Entities           EntityPatterns      `yaml:"entities"`
	Risk               RiskPatterns        `yaml:"risk"`
	Examples           map[string][]string `yaml:"examples"`
	Recommendations    Recommendations     `yaml:"recommendations"`
}

// Validate checks that the rule set can uphold the engine's invariants
func (r *RuleSet) Validate() error {
	var errs []error
	if len(r.SuspiciousKeywords) == 0 {
		errs = append(errs, errors.New("suspicious_keywords must not be empty"))
	}
	if len(r.LegitimateKeywords) == 0 {
		errs = append(errs, errors.New("legitimate_keywords must not be empty"))
	}
	if len(r.Structural.LegitBank) == 0 {
		errs = append(errs, errors.New("structural.legit_bank must not be empty"))
	}
	if len(r.Recommendations.Fraud) < FraudRecommendationCount {
		errs = append(errs, fmt.Errorf("recommendations.fraud needs at least %d entries, got %d",
			FraudRecommendationCount, len(r.Recommendations.Fraud)))
	}
	if len(r.Recommendations.Safe) < SafeRecommendationCount {
		errs = append(errs, fmt.Errorf("recommendations.safe needs at least %d entries, got %d",
			SafeRecommendationCount, len(r.Recommendations.Safe)))
	}
	for key := range r.Examples {
		if _, err := core.ParseMessageType(key); err != nil {
			errs = append(errs, fmt.Errorf("examples: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Load reads a rule set from a YAML file. Sections missing from the file
// keep their default values.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML rule set on top of the defaults
func Parse(data []byte) (*RuleSet, error) {
	rs := Default()
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return rs, nil
}
