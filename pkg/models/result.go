package models

import "time"

// Status is the verdict attached to an analysis.
type Status string

const (
	StatusSafe   Status = "Safe"
	StatusUnsafe Status = "Unsafe"
)

// SafeThreshold is the lowest safety score that still yields StatusSafe.
const SafeThreshold = 70

// StatusFor maps a safety score to its verdict.
func StatusFor(score int) Status {
	if score >= SafeThreshold {
		return StatusSafe
	}
	return StatusUnsafe
}

// RiskFactor is a human-readable red flag detected in the URL text.
type RiskFactor string

// AnalysisResult contains the complete output of one analysis run.
//
// The score is explainable: it starts from the fraction of passed checks and
// is reduced by a fixed penalty for every RiskFactor. A result is created once
// per run and never mutated afterwards; holders hand out copies via Clone.
type AnalysisResult struct {
	// URL is the analyzed input exactly as it was submitted.
	URL string `json:"url" yaml:"url"`

	// SafetyScore is in [0, 100]. Higher is safer.
	SafetyScore int `json:"safety_score" yaml:"safety_score"`

	// Status is Safe when SafetyScore >= SafeThreshold.
	Status Status `json:"status" yaml:"status"`

	// Confidence is cosmetic, in [60, 95]. It carries no statistical meaning.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// RiskFactors lists the heuristic red flags in rule order.
	RiskFactors []RiskFactor `json:"risk_factors" yaml:"risk_factors"`

	// TestResults maps each check name to its final outcome, overrides applied.
	TestResults CheckOutcome `json:"test_results" yaml:"test_results"`

	// Checks holds the same outcomes in execution order for rendering.
	Checks []CheckResult `json:"checks" yaml:"checks"`

	// Timestamp is the human-readable completion time of day.
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	// CompletedAt is the machine-readable completion time.
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`

	// Host is informational metadata about the URL's host. It never
	// influences the score. Nil when the URL could not be parsed.
	Host *HostInfo `json:"host,omitempty" yaml:"host,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate a published result.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	// Never nil: an empty list must still encode as [].
	out.RiskFactors = append(make([]RiskFactor, 0, len(r.RiskFactors)), r.RiskFactors...)
	out.Checks = append(make([]CheckResult, 0, len(r.Checks)), r.Checks...)
	out.TestResults = r.TestResults.Clone()
	if r.Host != nil {
		h := *r.Host
		out.Host = &h
	}
	return &out
}

// HasRiskFactor reports whether the given factor was detected.
func (r *AnalysisResult) HasRiskFactor(f RiskFactor) bool {
	for _, rf := range r.RiskFactors {
		if rf == f {
			return true
		}
	}
	return false
}
