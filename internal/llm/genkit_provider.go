package llm

import (
	"context"
	"fmt"

	"github.com/BetterCallFirewall/Bastion/internal/models"
	genkitcore "github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitProvider - provider for every model reachable through a Genkit plugin
type GenkitProvider struct {
	name      string
	modelName string

	threatFlow      *genkitcore.Flow[*models.ThreatRequest, *models.ModelReply, struct{}]
	promptFlow      *genkitcore.Flow[string, *models.ModelReply, struct{}]
	auditFlow       *genkitcore.Flow[*models.CodeAuditRequest, *models.CodeAuditResponse, struct{}]
	remediationFlow *genkitcore.Flow[*models.RemediationRequest, string, struct{}]
}

// NewGenkitProvider defines all flows on an already initialized Genkit app
func NewGenkitProvider(genkitApp *genkit.Genkit, name, modelName string, policy RetryPolicy) (*GenkitProvider, error) {
	if genkitApp == nil {
		return nil, fmt.Errorf("genkitApp cannot be nil")
	}

	return &GenkitProvider{
		name:            name,
		modelName:       modelName,
		threatFlow:      DefineThreatFlow(genkitApp, modelName, policy),
		promptFlow:      DefinePromptScanFlow(genkitApp, modelName, policy),
		auditFlow:       DefineCodeAuditFlow(genkitApp, modelName, policy),
		remediationFlow: DefineRemediationFlow(genkitApp, modelName, policy),
	}, nil
}

func (p *GenkitProvider) ClassifyContent(ctx context.Context, req *models.ThreatRequest) (*models.ModelReply, error) {
	return p.threatFlow.Run(ctx, req)
}

func (p *GenkitProvider) ClassifyPrompt(ctx context.Context, prompt string) (*models.ModelReply, error) {
	return p.promptFlow.Run(ctx, prompt)
}

func (p *GenkitProvider) AuditCode(ctx context.Context, req *models.CodeAuditRequest) (*models.CodeAuditResponse, error) {
	return p.auditFlow.Run(ctx, req)
}

func (p *GenkitProvider) Remediate(ctx context.Context, req *models.RemediationRequest) (string, error) {
	return p.remediationFlow.Run(ctx, req)
}

func (p *GenkitProvider) GetName() string {
	return p.name
}

func (p *GenkitProvider) GetModel() string {
	return p.modelName
}
