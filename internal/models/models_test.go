package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityFromRisk(t *testing.T) {
	tests := []struct {
		risk float64
		want Severity
	}{
		{risk: 1.0, want: SeverityCritical},
		{risk: 0.9, want: SeverityCritical},
		{risk: 0.75, want: SeverityHigh},
		{risk: 0.4, want: SeverityMedium},
		{risk: 0.39, want: SeverityLow},
		{risk: 0, want: SeverityLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityFromRisk(tt.risk), "risk %v", tt.risk)
	}
	assert.True(t, SeverityHigh.IsHighRisk())
	assert.False(t, SeverityMedium.IsHighRisk())
}

func TestVerdictClamp(t *testing.T) {
	v := Verdict{RiskScore: 3, Confidence: math.NaN()}.Clamp()

	assert.Equal(t, 1.0, v.RiskScore)
	assert.Equal(t, 0.0, v.Confidence)
	assert.Equal(t, ThreatNone, v.ThreatType)

	v = Verdict{RiskScore: -0.2, Confidence: 0.5, ThreatType: "CUSTOM_LABEL"}.Clamp()
	assert.Equal(t, 0.0, v.RiskScore)
	assert.Equal(t, ThreatType("CUSTOM_LABEL"), v.ThreatType, "model labels are kept")
}

func TestPromptVerdictToVerdict(t *testing.T) {
	v := PromptVerdict{RiskScore: 7, ThreatType: "PROMPT_INJECTION", IsBlocked: true, Explanation: "override"}.ToVerdict()
	assert.InDelta(t, 0.7, v.RiskScore, 1e-9)
	assert.Equal(t, ThreatPromptInjection, v.ThreatType)
	assert.True(t, v.IsBlocked)

	v = PromptVerdict{RiskScore: 0.5}.ToVerdict()
	assert.InDelta(t, 0.05, v.RiskScore, 1e-9)
	assert.Equal(t, ThreatNone, v.ThreatType)
}

func TestPromptVerdictToVerdict_ScaleIsMonotonic(t *testing.T) {
	tests := []struct {
		raw      float64
		expected float64
	}{
		{raw: 0, expected: 0},
		{raw: 0.5, expected: 0.05},
		{raw: 1, expected: 0.1},
		{raw: 2, expected: 0.2},
		{raw: 10, expected: 1.0},
		{raw: 14, expected: 1.0},
	}

	prev := -1.0
	for _, tt := range tests {
		v := PromptVerdict{RiskScore: tt.raw}.ToVerdict()
		assert.InDelta(t, tt.expected, v.RiskScore, 1e-9, "raw %v", tt.raw)
		assert.GreaterOrEqual(t, v.RiskScore, prev)
		prev = v.RiskScore
	}

	low := PromptVerdict{RiskScore: 1}.ToVerdict()
	assert.NotEqual(t, SeverityCritical, SeverityFromRisk(low.RiskScore))
}

func TestContentItemEnsureID(t *testing.T) {
	item := ContentItem{ID: "fixed"}
	item.EnsureID()
	assert.Equal(t, "fixed", item.ID)

	item = ContentItem{}
	item.EnsureID()
	assert.Len(t, item.ID, 36)
}
