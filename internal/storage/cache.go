package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/BetterCallFirewall/Bastion/internal/config"
	"github.com/BetterCallFirewall/Bastion/internal/models"
)

const keyPrefix = "bastion:verdict:"

// VerdictCache keeps model verdicts for content that was already classified
type VerdictCache interface {
	// Get returns the cached verdict; ok is false on a miss
	Get(ctx context.Context, key string) (verdict models.Verdict, ok bool, err error)
	Set(ctx context.Context, key string, verdict models.Verdict) error
}

// Key derives the cache key from the redacted content and its attachments
func Key(content string, attachments []string) string {
	h := sha256.New()
	h.Write([]byte(content))
	for _, a := range attachments {
		// separator keeps ("ab", ["c"]) and ("a", ["bc"]) apart
		h.Write([]byte{0})
		h.Write([]byte(a))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// NewStore creates the verdict cache selected by configuration.
// Returns (nil, nil) for store "none".
func NewStore(cfg config.CacheConfig) (VerdictCache, error) {
	if cfg.TTL == 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = 1000
	}

	switch cfg.Store {
	case "none":
		return nil, nil

	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis_addr is required when store=redis")
		}
		store, err := NewRedisStore(cfg.RedisAddr, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil

	case "memory", "":
		return NewMemoryStore(cfg.TTL, cfg.MaxEntries), nil

	default:
		return nil, fmt.Errorf("unknown cache store type: %s", cfg.Store)
	}
}
