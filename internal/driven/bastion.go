package driven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/BetterCallFirewall/Bastion/internal/audit"
	"github.com/BetterCallFirewall/Bastion/internal/config"
	"github.com/BetterCallFirewall/Bastion/internal/guard"
	"github.com/BetterCallFirewall/Bastion/internal/llm"
	"github.com/BetterCallFirewall/Bastion/internal/scanner"
	"github.com/BetterCallFirewall/Bastion/internal/state"
	"github.com/BetterCallFirewall/Bastion/internal/storage"
	"github.com/BetterCallFirewall/Bastion/internal/web"
	"github.com/BetterCallFirewall/Bastion/internal/websocket"
	"golang.org/x/sync/errgroup"
)

// Bastion wires the classification pipeline to the HTTP API and the live feed
type Bastion struct {
	Classifier *guard.Classifier
	Scanner    *scanner.Scanner
	Auditor    *audit.Auditor
	Tracker    *state.Tracker

	hub    *websocket.Hub
	server *web.Server
	cache  storage.VerdictCache
}

// NewBastion builds every component from configuration
func NewBastion(ctx context.Context, cfg *config.Config) (*Bastion, error) {
	policy := llm.RetryPolicyFromConfig(cfg.Retry)

	provider, err := llm.NewProvider(ctx, cfg.LLM, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	cache, err := storage.NewStore(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize verdict cache: %w", err)
	}

	failurePolicy, err := guard.ParseFailurePolicy(cfg.Scan.FailurePolicy)
	if err != nil {
		return nil, err
	}

	opts := []guard.Option{guard.WithFailurePolicy(failurePolicy)}
	if cache != nil {
		opts = append(opts, guard.WithCache(cache))
	}

	// typed nil must not reach the interfaces below
	var model guard.Model
	var auditModel audit.Model
	if provider != nil {
		model = provider
		auditModel = provider
	}

	hub := websocket.NewHub()
	tracker := state.NewTracker(hub)
	classifier := guard.NewClassifier(model, opts...)
	batchScanner := scanner.New(classifier, cfg.Scan.BatchSize, cfg.Scan.ItemTimeout)
	auditor := audit.NewAuditor(auditModel)

	server := web.NewServer(cfg, web.Deps{
		Classifier: classifier,
		Scanner:    batchScanner,
		Auditor:    auditor,
		Tracker:    tracker,
		Hub:        hub,
		Cache:      cache,
	})

	log.Printf("🛡️ Bastion ready: failure policy %s, cache %s, batch size %d",
		failurePolicy, cacheName(cfg.Cache.Store), cfg.Scan.BatchSize)

	return &Bastion{
		Classifier: classifier,
		Scanner:    batchScanner,
		Auditor:    auditor,
		Tracker:    tracker,
		hub:        hub,
		server:     server,
		cache:      cache,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down the server and the hub
func (b *Bastion) Run(ctx context.Context, listenAddr string) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.hub.Run()
		return nil
	})

	g.Go(func() error {
		log.Printf("🚀 API listening on %s", listenAddr)
		if err := b.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Printf("🛑 Shutting down")
		err := b.server.Stop()
		b.hub.Stop()
		if cerr := b.closeCache(); cerr != nil && err == nil {
			err = cerr
		}
		return err
	})

	return g.Wait()
}

// closeCache releases the cache connection (redis); in-memory stores have nothing to close
func (b *Bastion) closeCache() error {
	closer, ok := b.cache.(io.Closer)
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		return fmt.Errorf("close verdict cache: %w", err)
	}
	return nil
}

func cacheName(store string) string {
	if store == "" {
		return "memory"
	}
	return store
}
