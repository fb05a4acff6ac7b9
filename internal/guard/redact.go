package guard

import "regexp"

type redactionRule struct {
	pattern     *regexp.Regexp
	placeholder string
}

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern  = regexp.MustCompile(`\b(?:\d{3}-\d{2}-\d{4}|\d{3}-\d{3}-\d{4})\b`)
	cardPattern   = regexp.MustCompile(`\b(?:\d{4}-){3}\d{4}\b`)
	apiKeyPattern = regexp.MustCompile(`\bsk-[a-zA-Z0-9]{32,}\b`)
)

// Order matters: emails go first so their digits never reach the number rules
var piiRules = []redactionRule{
	{pattern: emailPattern, placeholder: "[EMAIL_REDACTED]"},
	{pattern: phonePattern, placeholder: "[PHONE_REDACTED]"},
	{pattern: cardPattern, placeholder: "[CREDIT_CARD_REDACTED]"},
	{pattern: apiKeyPattern, placeholder: "[API_KEY_REDACTED]"},
}

// Redact replaces PII-like substrings with fixed placeholders.
// Placeholders match none of the rules, so Redact(Redact(x)) == Redact(x).
func Redact(text string) string {
	for _, rule := range piiRules {
		text = rule.pattern.ReplaceAllLiteralString(text, rule.placeholder)
	}
	return text
}

// RedactSecrets masks only API-key shaped tokens; used for source code where
// emails and numbers are usually harmless and carry meaning for the audit
func RedactSecrets(code string) string {
	return apiKeyPattern.ReplaceAllLiteralString(code, "[API_KEY_REDACTED]")
}
