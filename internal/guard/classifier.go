package guard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/BetterCallFirewall/Bastion/internal/storage"
)

// ErrMissingCredentials is returned when a verdict needs the remote model and none is configured
var ErrMissingCredentials = errors.New("remote classifier is not configured: missing API key")

// Model - remote classifier backend (llm.Provider satisfies it)
type Model interface {
	ClassifyContent(ctx context.Context, req *models.ThreatRequest) (*models.ModelReply, error)
	ClassifyPrompt(ctx context.Context, prompt string) (*models.ModelReply, error)
}

// FailurePolicy decides the verdict when the remote classifier fails
type FailurePolicy string

const (
	// FailOpen reports failed scans as not blocked with zero scores
	FailOpen FailurePolicy = "open"
	// FailClosed blocks content whose scan failed
	FailClosed FailurePolicy = "closed"
)

// ParseFailurePolicy validates a configured policy name
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case FailOpen, FailClosed:
		return FailurePolicy(s), nil
	case "":
		return FailOpen, nil
	default:
		return "", fmt.Errorf("unknown failure policy: %s", s)
	}
}

// Classifier runs content through the guard pipeline:
// extract, redact, heuristic gate, cache, remote model, canary check
type Classifier struct {
	model     Model
	cache     storage.VerdictCache
	policy    FailurePolicy
	newCanary func() string

	contentStages []stage
}

type Option func(*Classifier)

// WithCache enables the verdict cache
func WithCache(cache storage.VerdictCache) Option {
	return func(c *Classifier) {
		c.cache = cache
	}
}

func WithFailurePolicy(policy FailurePolicy) Option {
	return func(c *Classifier) {
		c.policy = policy
	}
}

// WithCanaryGenerator replaces the random canary source (tests)
func WithCanaryGenerator(gen func() string) Option {
	return func(c *Classifier) {
		c.newCanary = gen
	}
}

// NewClassifier creates the pipeline. A nil model is allowed: the gate still works,
// everything else reports ErrMissingCredentials.
func NewClassifier(model Model, opts ...Option) *Classifier {
	c := &Classifier{
		model:     model,
		policy:    FailOpen,
		newCanary: NewCanary,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.contentStages = []stage{
		{name: "extract", run: c.extractStage},
		{name: "redact", run: c.redactStage},
		{name: "heuristic", run: c.heuristicStage},
		{name: "cache-lookup", run: c.cacheLookupStage},
		{name: "credentials", run: c.credentialsStage},
		{name: "remote", run: c.remoteStage},
		{name: "canary", run: c.canaryStage},
		{name: "cache-store", run: c.cacheStoreStage},
	}
	return c
}

// HasModel reports whether a remote classifier is configured
func (c *Classifier) HasModel() bool {
	return c.model != nil
}

// Classify returns the verdict for one content item.
// Business failures never surface as errors: they produce a fallback verdict.
func (c *Classifier) Classify(ctx context.Context, content string, attachments []string) (models.Verdict, error) {
	decision, err := c.Evaluate(ctx, content, attachments)
	if err != nil {
		return models.Verdict{}, err
	}
	return decision.Verdict, nil
}

// Evaluate is Classify plus the stage that produced the verdict
func (c *Classifier) Evaluate(ctx context.Context, content string, attachments []string) (Decision, error) {
	state := &scanState{
		content:     content,
		attachments: attachments,
	}
	return runStages(ctx, c.contentStages, state)
}

// ClassifyPrompt scans a prompt typed by a user before it reaches an agent.
// Risk comes back on a 0..10 scale and is normalized.
func (c *Classifier) ClassifyPrompt(ctx context.Context, prompt string) (models.Verdict, error) {
	if c.model == nil {
		return models.Verdict{}, ErrMissingCredentials
	}

	reply, err := c.model.ClassifyPrompt(ctx, Redact(prompt))
	if err != nil {
		log.Printf("❌ Prompt security analysis failed: %v", err)
		return c.fallbackVerdict(), nil
	}
	return reply.Verdict.Clamp(), nil
}

func (c *Classifier) extractStage(ctx context.Context, s *scanState) (StageResult, error) {
	s.original = s.content
	s.content = ExtractText(s.content)
	return Continue(), nil
}

func (c *Classifier) redactStage(ctx context.Context, s *scanState) (StageResult, error) {
	s.content = Redact(s.content)
	s.original = Redact(s.original)
	return Continue(), nil
}

func (c *Classifier) heuristicStage(ctx context.Context, s *scanState) (StageResult, error) {
	if MatchesOverride(s.content) || MatchesOverride(s.original) {
		log.Printf("🛡️ Heuristic match detected, blocking prompt injection")
		return Terminal(HeuristicVerdict(), models.SourceHeuristic), nil
	}
	return Continue(), nil
}

func (c *Classifier) cacheLookupStage(ctx context.Context, s *scanState) (StageResult, error) {
	if c.cache == nil {
		return Continue(), nil
	}

	s.cacheKey = storage.Key(s.content, s.attachments)
	verdict, ok, err := c.cache.Get(ctx, s.cacheKey)
	if err != nil {
		log.Printf("⚠️ Verdict cache lookup failed: %v", err)
		return Continue(), nil
	}
	if ok {
		return Terminal(verdict, models.SourceCache), nil
	}
	return Continue(), nil
}

func (c *Classifier) credentialsStage(ctx context.Context, s *scanState) (StageResult, error) {
	if c.model == nil {
		return StageResult{}, ErrMissingCredentials
	}
	return Continue(), nil
}

func (c *Classifier) remoteStage(ctx context.Context, s *scanState) (StageResult, error) {
	s.canary = c.newCanary()
	log.Printf("🔍 Auditing content (%d chars), canary armed", len(s.content))

	reply, err := c.model.ClassifyContent(ctx, &models.ThreatRequest{
		Content:     s.content,
		Attachments: s.attachments,
		Canary:      s.canary,
	})
	if err != nil {
		log.Printf("❌ Content security analysis failed: %v", err)
		return Terminal(c.fallbackVerdict(), models.SourceFallback), nil
	}

	s.verdict = reply.Verdict.Clamp()
	s.raw = reply.Raw
	s.source = models.SourceModel
	return Continue(), nil
}

// canaryStage overrides the verdict when the model repeated the planted token
func (c *Classifier) canaryStage(ctx context.Context, s *scanState) (StageResult, error) {
	if CanaryLeaked(s.canary, s.verdict, s.raw) {
		log.Printf("🔥 Canary tripwire activated, model output compromised")
		s.verdict = CanaryBreachVerdict(s.canary, s.verdict)
		s.source = models.SourceCanary
	}
	return Continue(), nil
}

func (c *Classifier) cacheStoreStage(ctx context.Context, s *scanState) (StageResult, error) {
	if c.cache == nil || s.cacheKey == "" {
		return Continue(), nil
	}
	if err := c.cache.Set(ctx, s.cacheKey, s.verdict); err != nil {
		log.Printf("⚠️ Failed to cache verdict: %v", err)
	}
	return Continue(), nil
}

func (c *Classifier) fallbackVerdict() models.Verdict {
	return FallbackVerdict(c.policy)
}

// FallbackVerdict is the verdict reported when the remote classifier fails
func FallbackVerdict(policy FailurePolicy) models.Verdict {
	if policy == FailClosed {
		return models.Verdict{
			IsBlocked:   true,
			RiskScore:   1.0,
			Confidence:  0,
			ThreatType:  models.ThreatScanError,
			Explanation: "Scan failed: content blocked by the fail-closed policy",
			Mitigation:  "Retry the scan once the classifier is reachable.",
		}
	}
	return models.Verdict{
		IsBlocked:   false,
		RiskScore:   0,
		Confidence:  0,
		ThreatType:  models.ThreatNone,
		Explanation: "Scan failed",
		Mitigation:  "",
	}
}
