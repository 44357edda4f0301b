package validation

import "time"

// RuleResult is the outcome of one rule.
type RuleResult struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	Errors Errors `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Report is the outcome of one validation pass over one document.
// RunID, Source, ValidatedAt and SchemaErrors are filled in by the caller.
type Report struct {
	RunID        string       `json:"runId,omitempty" yaml:"runId,omitempty"`
	Source       string       `json:"source,omitempty" yaml:"source,omitempty"`
	ValidatedAt  time.Time    `json:"validatedAt,omitempty" yaml:"validatedAt,omitempty"`
	CSAFVersion  string       `json:"csafVersion" yaml:"csafVersion"`
	TrackingID   string       `json:"trackingId" yaml:"trackingId"`
	Status       string       `json:"status" yaml:"status"`
	Version      string       `json:"version" yaml:"version"`
	SchemaErrors Errors       `json:"schemaErrors,omitempty" yaml:"schemaErrors,omitempty"`
	Results      []RuleResult `json:"results" yaml:"results"`
}

// Passed reports whether every rule passed and the schema pre-check found nothing.
func (r Report) Passed() bool {
	if len(r.SchemaErrors) > 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Errors concatenates the violations of every failing rule in catalogue order.
func (r Report) Errors() Errors {
	var out Errors
	for _, res := range r.Results {
		out = append(out, res.Errors...)
	}
	return out
}

// Failed returns the failing rules in catalogue order.
func (r Report) Failed() []RuleResult {
	var out []RuleResult
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}
