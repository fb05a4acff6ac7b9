package models

// ThreatLevel - severity of a code audit finding
type ThreatLevel string

const (
	LevelLow      ThreatLevel = "LOW"
	LevelMedium   ThreatLevel = "MEDIUM"
	LevelHigh     ThreatLevel = "HIGH"
	LevelCritical ThreatLevel = "CRITICAL"
)

// Finding - one issue reported by the code audit
type Finding struct {
	Type        string      `json:"type" jsonschema:"description=Threat category (PROMPT_INJECTION or SECRET_LEAK etc.)"`
	Level       ThreatLevel `json:"level" jsonschema:"enum=LOW,enum=MEDIUM,enum=HIGH,enum=CRITICAL"`
	Title       string      `json:"title" jsonschema:"description=Short title of the issue"`
	Description string      `json:"description" jsonschema:"description=What is wrong and why it matters"`
	Evidence    string      `json:"evidence" jsonschema:"description=Code excerpt that shows the issue"`
	Remediation string      `json:"remediation" jsonschema:"description=How to fix it"`
	FilePath    string      `json:"filePath" jsonschema:"description=Path of the affected file"`
	Line        int         `json:"line" jsonschema:"description=Likely line number"`
}

// CodeAuditRequest - input for the code audit
type CodeAuditRequest struct {
	Code string `json:"code"`
	Path string `json:"path,omitempty"`
}

// CodeAuditResponse - structured reply of the code audit model call
type CodeAuditResponse struct {
	Findings []Finding `json:"findings" jsonschema:"description=Security findings, empty when nothing was found"`
}

// RemediationRequest - input for patch generation
type RemediationRequest struct {
	Finding     Finding `json:"finding"`
	CodeContext string  `json:"context"`
}
