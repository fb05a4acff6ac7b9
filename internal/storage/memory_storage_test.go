package storage

import (
	"context"
	"testing"
	"time"

	"github.com/BetterCallFirewall/Bastion/internal/config"
	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 10)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	verdict := models.Verdict{RiskScore: 0.7, ThreatType: models.ThreatSocialEngineering, IsBlocked: true}
	require.NoError(t, store.Set(ctx, "k", verdict))

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, verdict, got)
	assert.Equal(t, 1, store.Stats().TotalHits)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 10)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", models.Verdict{}))

	now = now.Add(59 * time.Second)
	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok, "expired entry must miss")
	assert.Equal(t, 0, store.Stats().Size, "expired entry is dropped")
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour, 2)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "first", models.Verdict{}))
	now = now.Add(time.Second)
	require.NoError(t, store.Set(ctx, "second", models.Verdict{}))
	now = now.Add(time.Second)
	require.NoError(t, store.Set(ctx, "third", models.Verdict{}))

	_, ok, _ := store.Get(ctx, "first")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "second")
	assert.True(t, ok)
	_, ok, _ = store.Get(ctx, "third")
	assert.True(t, ok)
	assert.Equal(t, 2, store.Stats().Size)
}

func TestKey(t *testing.T) {
	a := Key("hello", nil)
	assert.Equal(t, a, Key("hello", nil))
	assert.NotEqual(t, a, Key("hello", []string{"a.pdf"}))
	assert.NotEqual(t, Key("ab", []string{"c"}), Key("a", []string{"bc"}))
	assert.Len(t, a, len(keyPrefix)+64)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(config.CacheConfig{Store: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = NewStore(config.CacheConfig{Store: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(config.CacheConfig{Store: "redis"})
	assert.Error(t, err)

	_, err = NewStore(config.CacheConfig{Store: "etcd"})
	assert.Error(t, err)
}
