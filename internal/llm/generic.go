package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/invopop/jsonschema"
)

// GenericProvider - provider for any HTTP API that is not reachable through a Genkit plugin
// Supports several request formats (OpenAI-compatible, Ollama, raw)
type GenericProvider struct {
	client  *http.Client
	name    string
	model   string
	baseURL string
	apiKey  string // optional
	format  APIFormat
	retry   RetryPolicy
}

// APIFormat - request/response format of the remote API
type APIFormat string

const (
	// FormatOpenAI - OpenAI compatible chat completions (LocalAI, LM Studio, vLLM, etc.)
	FormatOpenAI APIFormat = "openai"

	// FormatOllama - Ollama /api/generate
	FormatOllama APIFormat = "ollama"

	// FormatRaw - plain {"model": "...", "prompt": "...", "schema": {...}}
	FormatRaw APIFormat = "raw"
)

// GenericConfig - configuration of the generic provider
type GenericConfig struct {
	Name    string
	Model   string
	BaseURL string
	APIKey  string
	Format  APIFormat
	Timeout time.Duration
	Retry   RetryPolicy
}

// NewGenericProvider creates a new HTTP provider
func NewGenericProvider(cfg GenericConfig) *GenericProvider {
	if cfg.Name == "" {
		cfg.Name = "generic"
	}
	if cfg.Format == "" {
		cfg.Format = FormatOpenAI
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute // local models can be slow
	}

	return &GenericProvider{
		client:  &http.Client{Timeout: cfg.Timeout},
		name:    cfg.Name,
		model:   cfg.Model,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		format:  cfg.Format,
		retry:   cfg.Retry,
	}
}

func (p *GenericProvider) ClassifyContent(ctx context.Context, req *models.ThreatRequest) (*models.ModelReply, error) {
	var verdict models.Verdict
	raw, err := p.generateJSON(ctx, BuildThreatPrompt(req), &verdict)
	if err != nil {
		return nil, fmt.Errorf("content classification failed: %w", err)
	}
	return &models.ModelReply{Verdict: verdict, Raw: raw}, nil
}

func (p *GenericProvider) ClassifyPrompt(ctx context.Context, prompt string) (*models.ModelReply, error) {
	var verdict models.PromptVerdict
	raw, err := p.generateJSON(ctx, BuildPromptScanPrompt(prompt), &verdict)
	if err != nil {
		return nil, fmt.Errorf("prompt scan failed: %w", err)
	}
	return &models.ModelReply{Verdict: verdict.ToVerdict(), Raw: raw}, nil
}

func (p *GenericProvider) AuditCode(ctx context.Context, req *models.CodeAuditRequest) (*models.CodeAuditResponse, error) {
	var result models.CodeAuditResponse
	if _, err := p.generateJSON(ctx, BuildCodeAuditPrompt(req), &result); err != nil {
		return nil, fmt.Errorf("code audit failed: %w", err)
	}
	if result.Findings == nil {
		result.Findings = []models.Finding{}
	}
	return &result, nil
}

func (p *GenericProvider) Remediate(ctx context.Context, req *models.RemediationRequest) (string, error) {
	text, err := Retry(ctx, p.retry, func(ctx context.Context) (string, error) {
		return p.complete(ctx, BuildRemediationPrompt(req), nil)
	})
	if err != nil {
		return "", fmt.Errorf("remediation generation failed: %w", err)
	}
	return text, nil
}

func (p *GenericProvider) GetName() string {
	return p.name
}

func (p *GenericProvider) GetModel() string {
	return p.model
}

// generateJSON asks for output matching the JSON schema of out and decodes it.
// Returns the raw model text as well.
func (p *GenericProvider) generateJSON(ctx context.Context, prompt string, out any) (string, error) {
	schema, err := schemaFor(out)
	if err != nil {
		return "", err
	}

	content, err := Retry(ctx, p.retry, func(ctx context.Context) (string, error) {
		return p.complete(ctx, prompt, schema)
	})
	if err != nil {
		return "", err
	}

	cleaned := cleanJSONResponse(content)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		log.Printf("❌ JSON Parse Error: %v", err)
		log.Printf("📄 Content (first 500 chars): %s", TruncateString(cleaned, 500))
		return content, fmt.Errorf("invalid JSON response: %w", err)
	}
	return content, nil
}

// complete sends one request and returns the model text
func (p *GenericProvider) complete(ctx context.Context, prompt string, schema json.RawMessage) (string, error) {
	httpReq, err := p.buildHTTPRequest(ctx, prompt, schema)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", httpResp.StatusCode, TruncateString(string(body), 500))
	}

	return p.parseResponse(body)
}

// buildHTTPRequest creates the HTTP request for the configured API format
func (p *GenericProvider) buildHTTPRequest(ctx context.Context, prompt string, schema json.RawMessage) (*http.Request, error) {
	var requestBody map[string]any
	var endpoint string

	switch p.format {
	case FormatOpenAI:
		endpoint = p.baseURL + "/chat/completions"
		requestBody = map[string]any{
			"model": p.model,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
			"temperature": 0.2,
		}
		if schema != nil {
			requestBody["response_format"] = map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "bastion_output",
					"schema": schema,
				},
			}
		}

	case FormatOllama:
		endpoint = p.baseURL + "/api/generate"
		requestBody = map[string]any{
			"model":  p.model,
			"prompt": prompt,
			"stream": false,
			"options": map[string]any{
				"temperature": 0.2,
			},
		}
		if schema != nil {
			requestBody["format"] = schema
		}

	case FormatRaw:
		endpoint = p.baseURL
		requestBody = map[string]any{
			"model":  p.model,
			"prompt": prompt,
		}
		if schema != nil {
			requestBody["schema"] = schema
		}

	default:
		return nil, fmt.Errorf("unsupported API format: %s", p.format)
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	return req, nil
}

// parseResponse extracts the model text for the configured API format
func (p *GenericProvider) parseResponse(body []byte) (string, error) {
	switch p.format {
	case FormatOpenAI:
		// {"choices": [{"message": {"content": "..."}}]}
		var resp struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse OpenAI response: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}
		return resp.Choices[0].Message.Content, nil

	case FormatOllama:
		// {"response": "..."}
		var resp struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Ollama response: %w", err)
		}
		return resp.Response, nil

	case FormatRaw:
		// {"text": ...} | {"response": ...} | {"content": ...} | the JSON itself
		var resp struct {
			Text     string `json:"text"`
			Response string `json:"response"`
			Content  string `json:"content"`
		}
		if err := json.Unmarshal(body, &resp); err == nil {
			for _, candidate := range []string{resp.Text, resp.Response, resp.Content} {
				if candidate != "" {
					return candidate, nil
				}
			}
		}
		return string(body), nil

	default:
		return "", fmt.Errorf("unsupported format: %s", p.format)
	}
}

// schemaFor reflects the JSON schema requested from the model.
// A nil out means free-text output.
func schemaFor(out any) (json.RawMessage, error) {
	if out == nil {
		return nil, nil
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema, err := json.Marshal(reflector.Reflect(out))
	if err != nil {
		return nil, fmt.Errorf("failed to build output schema: %w", err)
	}
	return schema, nil
}

// cleanJSONResponse strips markdown fences and anything around the outermost JSON object
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
