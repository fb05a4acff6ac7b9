package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Web   WebConfig   `yaml:"web"`
	LLM   LLMConfig   `yaml:"llm"`
	Scan  ScanConfig  `yaml:"scan"`
	Retry RetryConfig `yaml:"retry"`
	Cache CacheConfig `yaml:"cache"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"url"`
	ApiKey   string `yaml:"apiKey"`
	Format   string `yaml:"format"` // request format for provider "generic": openai, ollama, raw
}

type WebConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ScanConfig - batch scanner and classifier knobs
type ScanConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	ItemTimeout   time.Duration `yaml:"item_timeout"`
	FailurePolicy string        `yaml:"failure_policy"` // "open" or "closed"
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// CacheConfig - verdict cache backend ("memory", "redis" or "none")
type CacheConfig struct {
	Store      string        `yaml:"store"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	RedisAddr  string        `yaml:"redis_addr"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Web: WebConfig{ListenAddr: ":8081"},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Scan: ScanConfig{
			BatchSize:     3,
			ItemTimeout:   15 * time.Second,
			FailurePolicy: "open",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
		},
		Cache: CacheConfig{
			Store:      "memory",
			TTL:        10 * time.Minute,
			MaxEntries: 1000,
		},
	}
}

// Load reads .env (if present), an optional YAML file named by BASTION_CONFIG,
// then environment overrides on top
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("BASTION_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	log.Printf("📄 Config loaded from %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Web.ListenAddr, "WEB_LISTEN_ADDR")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_URL")
	setString(&c.LLM.ApiKey, "API_KEY")
	setString(&c.LLM.Format, "LLM_FORMAT")
	setString(&c.Scan.FailurePolicy, "SCAN_FAILURE_POLICY")
	setString(&c.Cache.Store, "CACHE_STORE")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")

	if err := setInt(&c.Scan.BatchSize, "SCAN_BATCH_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.Retry.MaxAttempts, "RETRY_MAX_ATTEMPTS"); err != nil {
		return err
	}
	if err := setInt(&c.Cache.MaxEntries, "CACHE_MAX_ENTRIES"); err != nil {
		return err
	}
	if err := setDuration(&c.Scan.ItemTimeout, "SCAN_ITEM_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Retry.BaseDelay, "RETRY_BASE_DELAY"); err != nil {
		return err
	}
	return setDuration(&c.Cache.TTL, "CACHE_TTL")
}

func (c *Config) Validate() error {
	if c.Scan.BatchSize <= 0 {
		return errors.New("scan.batch_size must be > 0")
	}
	if c.Scan.ItemTimeout <= 0 {
		return errors.New("scan.item_timeout must be > 0")
	}
	switch c.Scan.FailurePolicy {
	case "open", "closed":
	default:
		return fmt.Errorf("scan.failure_policy must be open or closed, got %q", c.Scan.FailurePolicy)
	}
	if c.Retry.MaxAttempts <= 0 {
		return errors.New("retry.max_attempts must be > 0")
	}
	if c.Retry.BaseDelay < 0 {
		return errors.New("retry.base_delay must be >= 0")
	}
	switch c.Cache.Store {
	case "memory", "none", "":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			return errors.New("cache.redis_addr is required when cache.store=redis")
		}
	default:
		return fmt.Errorf("unknown cache store: %s", c.Cache.Store)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
