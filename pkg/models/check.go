package models

// Check names, in the order the engine runs them.
const (
	CheckURLStructure     = "URL Structure Analysis"
	CheckDomainReputation = "Domain Reputation Check"
	CheckSSLCertificate   = "SSL Certificate Validation"
	CheckMalwareSignature = "Malware Signature Scan"
	CheckPhishingPattern  = "Phishing Pattern Detection"
)

// Check is one named, weighted step of an analysis run.
// Weight is expressed in percentage points of overall progress.
type Check struct {
	Name   string `json:"name" yaml:"name"`
	Weight int    `json:"weight" yaml:"weight"`
}

// DefaultChecks returns the fixed check list. Weights sum to 100.
func DefaultChecks() []Check {
	return []Check{
		{Name: CheckURLStructure, Weight: 20},
		{Name: CheckDomainReputation, Weight: 25},
		{Name: CheckSSLCertificate, Weight: 15},
		{Name: CheckMalwareSignature, Weight: 25},
		{Name: CheckPhishingPattern, Weight: 15},
	}
}

// CheckResult is the pass/fail outcome of a single check.
type CheckResult struct {
	Name   string `json:"name" yaml:"name"`
	Weight int    `json:"weight" yaml:"weight"`
	Passed bool   `json:"passed" yaml:"passed"`
}

// CheckOutcome maps a check name to its pass/fail outcome.
type CheckOutcome map[string]bool

// Passed counts the checks that passed.
func (o CheckOutcome) Passed() int {
	n := 0
	for _, ok := range o {
		if ok {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the mapping.
func (o CheckOutcome) Clone() CheckOutcome {
	if o == nil {
		return nil
	}
	out := make(CheckOutcome, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
