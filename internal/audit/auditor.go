package audit

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/BetterCallFirewall/Bastion/internal/guard"
	"github.com/BetterCallFirewall/Bastion/internal/models"
)

// RemediationFailed is returned instead of a patch when the model call fails
const RemediationFailed = "Remediation generation failed due to an API error."

// Model - backend for code audits (llm.Provider satisfies it)
type Model interface {
	AuditCode(ctx context.Context, req *models.CodeAuditRequest) (*models.CodeAuditResponse, error)
	Remediate(ctx context.Context, req *models.RemediationRequest) (string, error)
}

// Auditor reviews code excerpts of AI agent projects for leaks and LLM integration risks
type Auditor struct {
	model Model
}

func NewAuditor(model Model) *Auditor {
	return &Auditor{model: model}
}

// AuditCode returns the findings for a code excerpt.
// API keys are masked before the code leaves the process. Model errors propagate
// so the caller can show them (quota errors in particular).
func (a *Auditor) AuditCode(ctx context.Context, code, path string) ([]models.Finding, error) {
	if a.model == nil {
		return nil, guard.ErrMissingCredentials
	}
	if code == "" {
		return nil, errors.New("code is empty")
	}

	resp, err := a.model.AuditCode(ctx, &models.CodeAuditRequest{
		Code: guard.RedactSecrets(code),
		Path: path,
	})
	if err != nil {
		log.Printf("❌ Code audit failed: %v", err)
		return nil, fmt.Errorf("code audit: %w", err)
	}
	if resp == nil || resp.Findings == nil {
		return []models.Finding{}, nil
	}

	log.Printf("✅ Code audit complete: %d findings", len(resp.Findings))
	return resp.Findings, nil
}

// Remediate returns a suggested fix for a finding. Never fails: on error the
// text explains that generation failed.
func (a *Auditor) Remediate(ctx context.Context, finding models.Finding, codeContext string) string {
	if a.model == nil {
		return RemediationFailed
	}

	patch, err := a.model.Remediate(ctx, &models.RemediationRequest{
		Finding:     finding,
		CodeContext: guard.RedactSecrets(codeContext),
	})
	if err != nil {
		log.Printf("❌ Remediation generation failed: %v", err)
		return RemediationFailed
	}
	if patch == "" {
		return "Could not generate fix."
	}
	return patch
}
