package guard

import (
	"regexp"
	"strings"

	"github.com/BetterCallFirewall/Bastion/internal/models"
)

const (
	heuristicExplanation = "Heuristic Signature Match: Detected direct system override instruction markers designed to hijack AI model logic."
	heuristicMitigation  = "The agent system prompt must be hardened with XML tagging or strict input boundaries to prevent instruction leakage."
)

var (
	overridePattern = regexp.MustCompile(`SYSTEM\s*OVERRIDE|IGNORE\s*ALL\s*PREVIOUS|INSTRUCTION\s*OVERRIDE`)
	nonAlnumPattern = regexp.MustCompile(`[^A-Z0-9]`)

	// checked on the text squeezed to [A-Z0-9], catches "S.Y.S.T.E.M o-v-e-r-r-i-d-e"
	overrideMarkers = []string{"SYSTEMOVERRIDE", "IGNOREALLPREVIOUS", "INSTRUCTIONOVERRIDE"}
)

// MatchesOverride reports whether text carries a known instruction override marker
func MatchesOverride(text string) bool {
	upper := strings.ToUpper(text)
	if overridePattern.MatchString(upper) {
		return true
	}

	squeezed := nonAlnumPattern.ReplaceAllString(upper, "")
	for _, marker := range overrideMarkers {
		if strings.Contains(squeezed, marker) {
			return true
		}
	}
	return false
}

// HeuristicVerdict is the terminal verdict of the signature gate
func HeuristicVerdict() models.Verdict {
	return models.Verdict{
		IsBlocked:   true,
		RiskScore:   1.0,
		Confidence:  1.0,
		ThreatType:  models.ThreatPromptInjection,
		Explanation: heuristicExplanation,
		Mitigation:  heuristicMitigation,
	}
}
