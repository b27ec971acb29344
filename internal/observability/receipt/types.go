// Package receipt provides stable evidence artifacts for audit/compliance.
package receipt

// ReceiptSchemaVersion current
const ReceiptSchemaVersion = "1.0"

// Receipt structure
type Receipt struct {
	SchemaVersion string          `json:"schema_version"`
	OpID          string          `json:"op_id"`
	TsStart       string          `json:"ts_start"`
	TsEnd         string          `json:"ts_end"`
	Command       string          `json:"command"`
	Args          []string        `json:"args"`
	ArgsRedacted  bool            `json:"args_redacted,omitempty"` // true if any args were sanitized
	Result        Result          `json:"result"`
	Config        *ConfigRef      `json:"config,omitempty"`
	Scan          *ScanSummary    `json:"scan,omitempty"`
	Doctor        *DoctorSummary  `json:"doctor,omitempty"`
	Install       *InstallSummary `json:"install,omitempty"`
}

// Result status
type Result struct {
	Status string `json:"status"` // "success" or "fail"
	Error  string `json:"error,omitempty"`
}

// ConfigRef pins the config file a command acted on.
type ConfigRef struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256,omitempty"`
}

// ScanSummary detail
type ScanSummary struct {
	Selected string `json:"selected,omitempty"`
	Tried    int    `json:"tried"`
	Rejected int    `json:"rejected"`
}

// DoctorSummary detail
type DoctorSummary struct {
	Tier     string    `json:"tier"` // strong|medium|compat
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	Infos    int       `json:"infos"`
	RulesHit []RuleHit `json:"rules_hit,omitempty"`
}

// RuleHit detail
type RuleHit struct {
	Name     string `json:"name"`
	Severity string `json:"severity"` // info|warn|error
}

// InstallSummary detail
type InstallSummary struct {
	Path         string `json:"path"`
	Reused       bool   `json:"reused"`
	Forced       bool   `json:"forced,omitempty"`
	DriftItems   int    `json:"drift_items,omitempty"`
	BytesWritten int    `json:"bytes_written,omitempty"`
}
