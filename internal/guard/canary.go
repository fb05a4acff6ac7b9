package guard

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BetterCallFirewall/Bastion/internal/models"
)

const (
	CanaryPrefix = "BASTION-SENTINEL-"
	canaryLength = 10

	canaryMitigation = "Immediate isolation required. The Agent's context window has been poisoned."
)

// NewCanary returns a fresh tripwire token for one classification call.
// It is a heuristic oracle, not a secret: anyone who sees the prompt sees the token.
func NewCanary() string {
	// rand.Text is base32 (A-Z, 2-7) and carries 130 bits, we keep 50
	return CanaryPrefix + rand.Text()[:canaryLength]
}

// CanaryLeaked reports whether the model output contains the issued token.
// Plain substring search on the serialized verdict and the raw reply:
// a model that rephrases or splits the token is not caught.
func CanaryLeaked(canary string, verdict models.Verdict, raw string) bool {
	if canary == "" {
		return false
	}
	if raw != "" && strings.Contains(raw, canary) {
		return true
	}
	serialized, err := json.Marshal(verdict)
	if err != nil {
		return false
	}
	return strings.Contains(string(serialized), canary)
}

// CanaryBreachVerdict overrides a compromised verdict. The model confidence is kept.
func CanaryBreachVerdict(canary string, compromised models.Verdict) models.Verdict {
	compromised.IsBlocked = true
	compromised.RiskScore = 1.0
	compromised.ThreatType = models.ThreatCanaryRevealedInjection
	compromised.Explanation = fmt.Sprintf(
		"SECURITY BREACH DETECTED: The model leaked the internal Canary Token (%s). "+
			"This indicates a successful Indirect Prompt Injection attack that bypassed primary reasoning safeguards.",
		canary,
	)
	compromised.Mitigation = canaryMitigation
	return compromised
}
