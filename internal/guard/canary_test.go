package guard

import (
	"regexp"
	"testing"

	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNewCanary(t *testing.T) {
	shape := regexp.MustCompile(`^BASTION-SENTINEL-[A-Z0-9]{10}$`)

	seen := make(map[string]struct{})
	for range 50 {
		c := NewCanary()
		assert.Regexp(t, shape, c)
		seen[c] = struct{}{}
	}
	assert.Len(t, seen, 50, "canaries must not repeat")
}

func TestCanaryLeaked(t *testing.T) {
	const canary = "BASTION-SENTINEL-ABCDE12345"

	tests := []struct {
		name    string
		verdict models.Verdict
		raw     string
		want    bool
	}{
		{
			name:    "in explanation",
			verdict: models.Verdict{Explanation: "the token is " + canary},
			want:    true,
		},
		{
			name: "in raw text only",
			raw:  `{"explanation":"ok"} ` + canary,
			want: true,
		},
		{
			name:    "clean",
			verdict: models.Verdict{Explanation: "nothing to see"},
			raw:     `{"explanation":"nothing to see"}`,
			want:    false,
		},
		{
			name:    "partial token is a known gap",
			verdict: models.Verdict{Explanation: "BASTION-SENTINEL-ABCDE"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanaryLeaked(canary, tt.verdict, tt.raw))
		})
	}
}

func TestCanaryBreachVerdict(t *testing.T) {
	v := CanaryBreachVerdict("BASTION-SENTINEL-XYZ", models.Verdict{
		IsBlocked:  false,
		RiskScore:  0.1,
		Confidence: 0.8,
		ThreatType: models.ThreatNone,
	})

	assert.True(t, v.IsBlocked)
	assert.Equal(t, 1.0, v.RiskScore)
	assert.Equal(t, 0.8, v.Confidence)
	assert.Equal(t, models.ThreatCanaryRevealedInjection, v.ThreatType)
	assert.Contains(t, v.Explanation, "BASTION-SENTINEL-XYZ")
	assert.Contains(t, v.Mitigation, "Immediate isolation required")
}
