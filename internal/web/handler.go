package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/BetterCallFirewall/Bastion/internal/guard"
	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/BetterCallFirewall/Bastion/internal/storage"
	"github.com/BetterCallFirewall/Bastion/internal/websocket"
	"github.com/google/uuid"
)

const (
	maxBodyBytes  = 5 << 20
	maxBatchItems = 200
	defaultSource = "api"
)

type scanRequest struct {
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	Source      string   `json:"source,omitempty"`
}

type batchRequest struct {
	Items []models.ContentItem `json:"items"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type remediationResponse struct {
	Patch string `json:"patch"`
}

type statsResponse struct {
	models.StatsSnapshot
	Cache *storage.CacheStats `json:"cache,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req scanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	source := req.Source
	if source == "" {
		source = defaultSource
	}

	decision, err := s.deps.Classifier.Evaluate(r.Context(), req.Content, req.Attachments)
	if err != nil {
		writeClassifierError(w, err)
		return
	}

	s.deps.Tracker.RecordVerdict(source, decision.Verdict)
	s.deps.Hub.Broadcast(websocket.MessageScan, websocket.ScanDTO{
		Source:  source,
		Verdict: decision.Verdict,
		Stage:   decision.Source,
	})

	w.Header().Set("X-Bastion-Stage", string(decision.Source))
	writeJSON(w, http.StatusOK, decision.Verdict)
}

func (s *Server) handleScanBatch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) > maxBatchItems {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many items: %d (max %d)", len(req.Items), maxBatchItems))
		return
	}

	batchID := uuid.NewString()
	log.Printf("📥 Batch %s: %d items", batchID, len(req.Items))

	results := s.deps.Scanner.ScanBatch(r.Context(), req.Items, func(done, total int) {
		s.deps.Hub.Broadcast(websocket.MessageBatchProgress, websocket.BatchProgressDTO{
			BatchID: batchID,
			Done:    done,
			Total:   total,
		})
	})

	for _, result := range results {
		source := result.Item.Source
		if source == "" {
			source = defaultSource
		}
		s.deps.Tracker.RecordVerdict(source, result.Verdict)
		s.deps.Hub.Broadcast(websocket.MessageScan, websocket.ScanDTO{
			ItemID:   result.Item.ID,
			Source:   source,
			Verdict:  result.Verdict,
			Stage:    result.Source,
			Duration: result.Duration.Milliseconds(),
		})
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleScanPrompt(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req promptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	verdict, err := s.deps.Classifier.ClassifyPrompt(r.Context(), req.Prompt)
	if err != nil {
		writeClassifierError(w, err)
		return
	}

	s.deps.Tracker.RecordVerdict("prompt", verdict)
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req models.CodeAuditRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	findings, err := s.deps.Auditor.AuditCode(r.Context(), req.Code, req.Path)
	if err != nil {
		writeClassifierError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, findings)
}

func (s *Server) handleRemediation(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RemediationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := s.deps.Auditor.Remediate(r.Context(), req.Finding, req.CodeContext)
	writeJSON(w, http.StatusOK, remediationResponse{Patch: patch})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	resp := statsResponse{StatsSnapshot: s.deps.Tracker.Snapshot()}
	if statser, ok := s.deps.Cache.(cacheStatser); ok {
		stats := statser.Stats()
		resp.Cache = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// writeClassifierError maps pipeline errors to status codes
func writeClassifierError(w http.ResponseWriter, err error) {
	if errors.Is(err, guard.ErrMissingCredentials) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	log.Printf("❌ Request failed: %v", err)
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
