package llm

import (
	"context"

	"github.com/BetterCallFirewall/Bastion/internal/models"
)

// Provider - interface for any LLM backend used by the classifier and the auditor
// Lets the service switch between Gemini, OpenAI-compatible servers and raw HTTP endpoints
type Provider interface {
	// ClassifyContent returns the structured verdict for one content item
	ClassifyContent(ctx context.Context, req *models.ThreatRequest) (*models.ModelReply, error)

	// ClassifyPrompt runs the direct prompt scan
	ClassifyPrompt(ctx context.Context, prompt string) (*models.ModelReply, error)

	// AuditCode returns security findings for a code excerpt
	AuditCode(ctx context.Context, req *models.CodeAuditRequest) (*models.CodeAuditResponse, error)

	// Remediate returns a free-text patch for a finding
	Remediate(ctx context.Context, req *models.RemediationRequest) (string, error)

	// GetName returns the provider name (for logging)
	GetName() string

	// GetModel returns the model in use
	GetModel() string
}
