package models

import "time"

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Tier grades the overall security posture of a configuration.
type Tier string

const (
	// TierStrong means no errors and no warnings were found.
	TierStrong Tier = "strong"
	// TierMedium means warnings only.
	TierMedium Tier = "medium"
	// TierCompat means at least one error-severity finding.
	TierCompat Tier = "compat"
)

// Finding is one observation from a posture inspection.
type Finding struct {
	Severity Severity          `json:"severity"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Meta     map[string]string `json:"meta,omitempty"`
}

type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// Report is the JSON-serializable result of a posture inspection.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
	Tier      Tier      `json:"tier"`
	Findings  []Finding `json:"findings"`
	Summary   Summary   `json:"summary"`
}

// Add appends a finding and keeps the summary counts current.
func (r *Report) Add(f Finding) {
	r.Findings = append(r.Findings, f)
	switch f.Severity {
	case SeverityError:
		r.Summary.Errors++
	case SeverityWarn:
		r.Summary.Warnings++
	default:
		r.Summary.Infos++
	}
}

// Grade derives the tier from the summary counts.
func (r *Report) Grade() {
	switch {
	case r.Summary.Errors > 0:
		r.Tier = TierCompat
	case r.Summary.Warnings > 0:
		r.Tier = TierMedium
	default:
		r.Tier = TierStrong
	}
}

// OK reports whether the configuration passed without errors.
func (r *Report) OK() bool {
	return r.Summary.Errors == 0
}
