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

// ═══════════════════════════════════════════════════════════════════════════════
// Threat Classification Flows
// ═══════════════════════════════════════════════════════════════════════════════

// DefineThreatFlow creates the flow that classifies one content item.
// The raw model text is returned next to the parsed verdict so the caller can run
// the canary integrity check on exactly what the model produced.
func DefineThreatFlow(
	g *genkit.Genkit,
	modelName string,
	policy RetryPolicy,
) *genkitcore.Flow[*models.ThreatRequest, *models.ModelReply, struct{}] {
	return genkit.DefineFlow(
		g,
		"threatClassificationFlow",
		func(ctx context.Context, req *models.ThreatRequest) (*models.ModelReply, error) {
			log.Printf("🔍 Classifying content: %d chars, %d attachments", len(req.Content), len(req.Attachments))

			result, resp, err := genkit.GenerateData[models.Verdict](
				ctx,
				g,
				ai.WithModelName(modelName),
				ai.WithPrompt(BuildThreatPrompt(req)),
				ai.WithMiddleware(RetryMiddleware(policy)),
			)
			if err != nil {
				return nil, fmt.Errorf("LLM generation failed: %w", err)
			}

			reply := &models.ModelReply{Verdict: *result}
			if resp != nil {
				reply.Raw = resp.Text()
			}

			log.Printf("✅ Classification complete: threat=%s, risk=%.2f, blocked=%v",
				result.ThreatType, result.RiskScore, result.IsBlocked)
			return reply, nil
		},
	)
}

// DefinePromptScanFlow creates the flow for the direct prompt scan
func DefinePromptScanFlow(
	g *genkit.Genkit,
	modelName string,
	policy RetryPolicy,
) *genkitcore.Flow[string, *models.ModelReply, struct{}] {
	return genkit.DefineFlow(
		g,
		"promptScanFlow",
		func(ctx context.Context, prompt string) (*models.ModelReply, error) {
			result, resp, err := genkit.GenerateData[models.PromptVerdict](
				ctx,
				g,
				ai.WithModelName(modelName),
				ai.WithPrompt(BuildPromptScanPrompt(prompt)),
				ai.WithMiddleware(RetryMiddleware(policy)),
			)
			if err != nil {
				return nil, fmt.Errorf("LLM generation failed: %w", err)
			}

			reply := &models.ModelReply{Verdict: result.ToVerdict()}
			if resp != nil {
				reply.Raw = resp.Text()
			}
			return reply, nil
		},
	)
}
