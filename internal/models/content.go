package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentItem - one piece of untrusted text to classify (email body, prompt, snippet)
type ContentItem struct {
	ID          string   `json:"id"`
	Source      string   `json:"source"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

// EnsureID assigns a fresh id when the caller did not supply one
func (c *ContentItem) EnsureID() {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
}

// StageSource - which pipeline stage produced a verdict
type StageSource string

const (
	SourceHeuristic StageSource = "heuristic"
	SourceModel     StageSource = "model"
	SourceCanary    StageSource = "canary"
	SourceCache     StageSource = "cache"
	SourceFallback  StageSource = "fallback"
)

// ScanResult - verdict attached to its input item
type ScanResult struct {
	Item     ContentItem   `json:"item"`
	Verdict  Verdict       `json:"verdict"`
	Source   StageSource   `json:"source"`
	Duration time.Duration `json:"duration_ns"`
}
