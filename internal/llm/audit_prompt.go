package llm

import (
	"encoding/json"
	"fmt"

	"github.com/BetterCallFirewall/Bastion/internal/models"
)

const (
	maxCodeSizeForPrompt = 60000
)

// BuildCodeAuditPrompt creates the prompt for auditing an AI agent code base excerpt
func BuildCodeAuditPrompt(req *models.CodeAuditRequest) string {
	path := req.Path
	if path == "" {
		path = "Unknown"
	}

	return fmt.Sprintf(
		`Analyze this AI Agent project for security vulnerabilities.

Path Context: %s

Focus on:
- Sensitive leaks: hardcoded API keys, tokens, credentials, .env files committed to the repository.
- LLM integration risks: untrusted input concatenated into prompts, tool calls without confirmation,
  model output executed or rendered without validation, memory/RAG stores writable by users.
- Privilege abuse: agents holding write access they do not need.

=== CODE ===
%s

For every issue return type, level (LOW, MEDIUM, HIGH, CRITICAL), title, description, evidence,
remediation, filePath and line. Only report file paths that appear in the code above.
Return an empty findings list when nothing is wrong.`,
		path,
		TruncateString(req.Code, maxCodeSizeForPrompt),
	)
}

// BuildRemediationPrompt asks for a one-click patch for a finding
func BuildRemediationPrompt(req *models.RemediationRequest) string {
	finding, err := json.Marshal(req.Finding)
	if err != nil {
		finding = []byte(req.Finding.Title)
	}

	return fmt.Sprintf(
		`Generate a one-click remediation patch for the following vulnerability.

Vulnerability: %s
Original Context:
%s

Provide the fixed code block and a brief explanation of the fix.`,
		string(finding),
		TruncateString(req.CodeContext, maxCodeSizeForPrompt),
	)
}
