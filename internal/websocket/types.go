package websocket

import (
	"github.com/BetterCallFirewall/Bastion/internal/models"
)

// ScanDTO - one finished scan, pushed after /api/scan and per batch item
type ScanDTO struct {
	ItemID   string             `json:"item_id"`
	Source   string             `json:"source"`
	Verdict  models.Verdict     `json:"verdict"`
	Stage    models.StageSource `json:"stage"`
	Duration int64              `json:"duration_ms"`
}

// BatchProgressDTO - progress of a running batch scan
type BatchProgressDTO struct {
	BatchID string `json:"batch_id"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
}

// Message types produced by the web layer; the tracker adds "security_event" and "stats"
const (
	MessageScan          = "scan"
	MessageBatchProgress = "batch_progress"
)
