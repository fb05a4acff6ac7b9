package models

import "time"

// Severity of a recorded security event
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// SeverityFromRisk buckets a 0..1 risk score
func SeverityFromRisk(risk float64) Severity {
	switch {
	case risk >= 0.9:
		return SeverityCritical
	case risk >= 0.7:
		return SeverityHigh
	case risk >= 0.4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// IsHighRisk reports whether the severity counts as a high-risk alert
func (s Severity) IsHighRisk() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// SecurityEvent - entry of the recent events feed
type SecurityEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// StatsSnapshot - point-in-time copy of the security counters
type StatsSnapshot struct {
	TotalScanned     int64           `json:"total_scanned"`
	ThreatsPrevented int64           `json:"threats_prevented"`
	HighRiskAlerts   int64           `json:"high_risk_alerts"`
	RecentEvents     []SecurityEvent `json:"recent_events"`
}
