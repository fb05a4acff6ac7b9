package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/firebase/genkit/go/ai"
	genkitcore "github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// DefineCodeAuditFlow creates the flow that audits a code excerpt for agent security issues
func DefineCodeAuditFlow(
	g *genkit.Genkit,
	modelName string,
	policy RetryPolicy,
) *genkitcore.Flow[*models.CodeAuditRequest, *models.CodeAuditResponse, struct{}] {
	return genkit.DefineFlow(
		g,
		"codeAuditFlow",
		func(ctx context.Context, req *models.CodeAuditRequest) (*models.CodeAuditResponse, error) {
			log.Printf("🔍 Auditing code: path=%s, %d chars", req.Path, len(req.Code))

			result, _, err := genkit.GenerateData[models.CodeAuditResponse](
				ctx,
				g,
				ai.WithModelName(modelName),
				ai.WithPrompt(BuildCodeAuditPrompt(req)),
				ai.WithMiddleware(RetryMiddleware(policy)),
			)
			if err != nil {
				return nil, fmt.Errorf("code audit failed: %w", err)
			}

			log.Printf("✅ Code audit complete: %d findings", len(result.Findings))
			return result, nil
		},
	)
}

// DefineRemediationFlow creates the flow that writes a patch for a finding (free text)
func DefineRemediationFlow(
	g *genkit.Genkit,
	modelName string,
	policy RetryPolicy,
) *genkitcore.Flow[*models.RemediationRequest, string, struct{}] {
	return genkit.DefineFlow(
		g,
		"remediationFlow",
		func(ctx context.Context, req *models.RemediationRequest) (string, error) {
			text, err := genkit.GenerateText(
				ctx,
				g,
				ai.WithModelName(modelName),
				ai.WithPrompt(BuildRemediationPrompt(req)),
				ai.WithMiddleware(RetryMiddleware(policy)),
			)
			if err != nil {
				return "", fmt.Errorf("remediation generation failed: %w", err)
			}
			return text, nil
		},
	)
}
