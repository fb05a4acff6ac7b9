package scanner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/BetterCallFirewall/Bastion/internal/guard"
	"github.com/BetterCallFirewall/Bastion/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 3
	DefaultItemTimeout = 15 * time.Second

	scanErrorExplanation = "Failed to analyze this content or timed out."
)

// Evaluator - classification pipeline used per item (guard.Classifier)
type Evaluator interface {
	Evaluate(ctx context.Context, content string, attachments []string) (guard.Decision, error)
}

// ProgressFunc receives the number of finished items and the batch size.
// Calls are serialized and done grows by one each time.
type ProgressFunc func(done, total int)

// Scanner classifies lists of content items with bounded concurrency
type Scanner struct {
	classifier  Evaluator
	batchSize   int
	itemTimeout time.Duration
}

// New creates a scanner; zero values fall back to groups of 3 and a 15s item timeout
func New(classifier Evaluator, batchSize int, itemTimeout time.Duration) *Scanner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if itemTimeout <= 0 {
		itemTimeout = DefaultItemTimeout
	}
	return &Scanner{
		classifier:  classifier,
		batchSize:   batchSize,
		itemTimeout: itemTimeout,
	}
}

// ScanBatch returns one result per item in input order. Groups run one after another,
// items inside a group run in parallel. A failed or timed out item gets a SCAN_ERROR
// verdict and never aborts the batch.
func (s *Scanner) ScanBatch(ctx context.Context, items []models.ContentItem, onProgress ProgressFunc) []models.ScanResult {
	results := make([]models.ScanResult, len(items))
	total := len(items)

	var progressMu sync.Mutex
	done := 0
	reportDone := func() {
		if onProgress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		onProgress(done, total)
	}

	for start := 0; start < total; start += s.batchSize {
		end := min(start+s.batchSize, total)
		log.Printf("📦 Scanning items %d-%d of %d", start+1, end, total)

		g, gCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				// each goroutine owns results[i]
				results[i] = s.scanItem(gCtx, items[i])
				reportDone()
				return nil
			})
		}
		// goroutines never return errors
		_ = g.Wait()
	}

	return results
}

type outcome struct {
	decision guard.Decision
	err      error
}

// scanItem races the classification against the item timeout.
// The select keeps the deadline even if the classifier ignores ctx.
func (s *Scanner) scanItem(ctx context.Context, item models.ContentItem) models.ScanResult {
	item.EnsureID()
	started := time.Now()

	itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	defer cancel()

	resultCh := make(chan outcome, 1)
	go func() {
		decision, err := s.classifier.Evaluate(itemCtx, item.Content, item.Attachments)
		resultCh <- outcome{decision: decision, err: err}
	}()

	var out outcome
	select {
	case out = <-resultCh:
	case <-itemCtx.Done():
		out.err = itemCtx.Err()
	}

	result := models.ScanResult{
		Item:     item,
		Verdict:  out.decision.Verdict,
		Source:   out.decision.Source,
		Duration: time.Since(started),
	}
	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) {
			log.Printf("⏱️ Item %s timed out after %s", item.ID, s.itemTimeout)
		} else {
			log.Printf("❌ Item %s scan failed: %v", item.ID, out.err)
		}
		result.Verdict = ScanErrorVerdict()
		result.Source = models.SourceFallback
	}
	return result
}

// ScanErrorVerdict marks an item the batch could not classify
func ScanErrorVerdict() models.Verdict {
	return models.Verdict{
		IsBlocked:   false,
		RiskScore:   0,
		Confidence:  0,
		ThreatType:  models.ThreatScanError,
		Explanation: scanErrorExplanation,
		Mitigation:  "",
	}
}
