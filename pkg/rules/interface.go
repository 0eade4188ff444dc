package rules

import (
	"strings"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

// Target is the URL text a rule inspects.
type Target struct {
	// Raw is the URL as submitted.
	Raw string
	// Lower is Raw lower-cased. Rules match against this.
	Lower string
}

// NewTarget prepares a URL for rule evaluation.
func NewTarget(raw string) Target {
	return Target{Raw: raw, Lower: strings.ToLower(raw)}
}

// Rule is a deterministic heuristic over the URL text.
// Rules hold no state, so evaluating one twice gives the same answer.
type Rule interface {
	// Name uniquely identifies the rule (e.g. "shortened-url").
	Name() string

	// Description is the risk factor reported when the rule matches.
	Description() string

	// Match reports whether the red flag is present.
	Match(target Target) bool
}

// CheckOverrider is implemented by rules whose match is independently
// verifiable and therefore replaces the randomized outcome of a check.
// The engine detects it with a type assertion after Match returns true.
type CheckOverrider interface {
	Rule

	// OverrideChecks rewrites outcomes in place.
	OverrideChecks(outcomes models.CheckOutcome)
}

// Evaluate runs rules in order and returns the matched risk factors.
func Evaluate(target Target, rs []Rule) []models.RiskFactor {
	var factors []models.RiskFactor
	for _, r := range rs {
		if r.Match(target) {
			factors = append(factors, models.RiskFactor(r.Description()))
		}
	}
	return factors
}
