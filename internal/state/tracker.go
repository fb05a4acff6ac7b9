package state

import (
	"sync"
	"time"

	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/google/uuid"
)

// MaxRecentEvents bounds the recent events feed
const MaxRecentEvents = 10

// Message types sent to the publisher
const (
	MessageSecurityEvent = "security_event"
	MessageStats         = "stats"
)

// Publisher receives every state change (websocket hub)
type Publisher interface {
	Broadcast(msgType string, data any)
}

// Tracker owns the security counters and the recent events feed
type Tracker struct {
	mu               sync.Mutex
	totalScanned     int64
	threatsPrevented int64
	highRiskAlerts   int64
	recent           []models.SecurityEvent // newest first

	publisher Publisher
	now       func() time.Time
}

// NewTracker creates an empty tracker. publisher may be nil.
func NewTracker(publisher Publisher) *Tracker {
	return &Tracker{
		recent:    make([]models.SecurityEvent, 0, MaxRecentEvents),
		publisher: publisher,
		now:       time.Now,
	}
}

// RecordScan counts a scan that found nothing to block
func (t *Tracker) RecordScan(source string) {
	t.mu.Lock()
	t.totalScanned++
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.publish(MessageStats, snapshot)
}

// RecordThreat counts a blocked item and adds it to the recent events feed
func (t *Tracker) RecordThreat(threatType, source string, severity models.Severity) models.SecurityEvent {
	event := models.SecurityEvent{
		ID:        uuid.NewString(),
		Type:      threatType,
		Source:    source,
		Severity:  severity,
		Timestamp: t.now(),
	}

	t.mu.Lock()
	t.totalScanned++
	t.threatsPrevented++
	if severity.IsHighRisk() {
		t.highRiskAlerts++
	}

	t.recent = append([]models.SecurityEvent{event}, t.recent...)
	if len(t.recent) > MaxRecentEvents {
		t.recent = t.recent[:MaxRecentEvents]
	}
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.publish(MessageSecurityEvent, event)
	t.publish(MessageStats, snapshot)
	return event
}

// RecordVerdict records a scan outcome: blocked verdicts become threats
func (t *Tracker) RecordVerdict(source string, verdict models.Verdict) {
	if verdict.IsBlocked {
		t.RecordThreat(string(verdict.ThreatType), source, models.SeverityFromRisk(verdict.RiskScore))
		return
	}
	t.RecordScan(source)
}

// Snapshot returns a copy safe to hand out
func (t *Tracker) Snapshot() models.StatsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() models.StatsSnapshot {
	recent := make([]models.SecurityEvent, len(t.recent))
	copy(recent, t.recent)

	return models.StatsSnapshot{
		TotalScanned:     t.totalScanned,
		ThreatsPrevented: t.threatsPrevented,
		HighRiskAlerts:   t.highRiskAlerts,
		RecentEvents:     recent,
	}
}

func (t *Tracker) publish(msgType string, data any) {
	if t.publisher != nil {
		t.publisher.Broadcast(msgType, data)
	}
}
