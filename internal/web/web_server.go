package web

import (
	"context"
	"net/http"
	"time"

	"github.com/BetterCallFirewall/Bastion/internal/config"
	"github.com/BetterCallFirewall/Bastion/internal/guard"
	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/BetterCallFirewall/Bastion/internal/scanner"
	"github.com/BetterCallFirewall/Bastion/internal/storage"
)

type classifierI interface {
	Evaluate(ctx context.Context, content string, attachments []string) (guard.Decision, error)
	ClassifyPrompt(ctx context.Context, prompt string) (models.Verdict, error)
}

type scannerI interface {
	ScanBatch(ctx context.Context, items []models.ContentItem, onProgress scanner.ProgressFunc) []models.ScanResult
}

type auditorI interface {
	AuditCode(ctx context.Context, code, path string) ([]models.Finding, error)
	Remediate(ctx context.Context, finding models.Finding, codeContext string) string
}

type trackerI interface {
	RecordVerdict(source string, verdict models.Verdict)
	Snapshot() models.StatsSnapshot
}

type hubI interface {
	Broadcast(msgType string, data any)
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type cacheStatser interface {
	Stats() storage.CacheStats
}

// Deps - services the HTTP API exposes
type Deps struct {
	Classifier classifierI
	Scanner    scannerI
	Auditor    auditorI
	Tracker    trackerI
	Hub        hubI
	Cache      storage.VerdictCache // optional, only for stats
}

type Server struct {
	config *config.Config
	deps   Deps
	server *http.Server
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		config: cfg,
		deps:   deps,
	}
	s.server = &http.Server{
		Addr:         cfg.Web.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: batchWriteTimeout(cfg.Scan, maxBatchItems),
	}
	return s
}

// writeTimeoutMargin covers encoding and sending the batch response
const writeTimeoutMargin = 30 * time.Second

// batchWriteTimeout bounds the slowest accepted batch: groups run one after another,
// each finishing within the item timeout
func batchWriteTimeout(scan config.ScanConfig, maxItems int) time.Duration {
	batchSize := scan.BatchSize
	if batchSize <= 0 {
		batchSize = scanner.DefaultBatchSize
	}
	itemTimeout := scan.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = scanner.DefaultItemTimeout
	}
	groups := (maxItems + batchSize - 1) / batchSize
	return time.Duration(groups)*itemTimeout + writeTimeoutMargin
}

// Handler builds the routed handler with middlewares
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/scan/batch", s.handleScanBatch)
	mux.HandleFunc("/api/scan/prompt", s.handleScanPrompt)
	mux.HandleFunc("/api/audit", s.handleAudit)
	mux.HandleFunc("/api/audit/remediation", s.handleRemediation)
	mux.HandleFunc("/api/stats", s.handleStats)

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.deps.Hub.ServeWS)

	// Health check
	mux.HandleFunc(
		"/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		},
	)

	return logMiddleware(corsMiddleware(mux))
}

func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}
