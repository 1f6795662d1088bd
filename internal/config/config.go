// Package config loads the YAML configuration of the parley binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/adapters/process"
	"github.com/aretw0/parley/pkg/provider"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfig   = "PARLEY_CONFIG"
	EnvLogLevel = "PARLEY_LOG_LEVEL"
	EnvTavily   = "TAVILY_API_KEY"

	// EnvStoreKey holds a base64 AES-256 key; when set, stored digests are encrypted.
	EnvStoreKey         = "PARLEY_STORE_KEY"
	// EnvStoreKeyPrevious lists retired keys, comma separated, still accepted for reading.
	EnvStoreKeyPrevious = "PARLEY_STORE_KEY_PREVIOUS"
)

// DefaultPath is used when neither a flag nor PARLEY_CONFIG names a file.
const DefaultPath = "config.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverS3     = "s3"
)

// Config is the parsed configuration file.
type Config struct {
	Title         string               `yaml:"title"`
	Providers     []provider.Spec      `yaml:"providers"`
	UseCases      []string             `yaml:"use_cases"`
	MaxIterations int                  `yaml:"max_iterations"`
	SystemPrompt  string               `yaml:"system_prompt,omitempty"`
	LogLevel      string               `yaml:"log_level,omitempty"`
	Store         StoreConfig          `yaml:"store"`
	HTTP          HTTPConfig           `yaml:"http"`
	Metrics       MetricsConfig        `yaml:"metrics"`
	News          NewsConfig           `yaml:"news"`
	Tools         []process.ToolConfig `yaml:"tools,omitempty"`

	// Credentials is filled from the environment, never from the file.
	Credentials map[string]string `yaml:"-"`
}

// StoreConfig selects and configures the artifact store.
type StoreConfig struct {
	Driver string      `yaml:"driver"`
	File   FileConfig  `yaml:"file"`
	Redis  RedisConfig `yaml:"redis"`
	S3     S3Config    `yaml:"s3"`

	// LockTTL bounds how long a summary write may hold the per-key lock.
	LockTTL time.Duration `yaml:"lock_ttl"`

	// Keys are read from the environment only.
	EncryptionKey string   `yaml:"-"`
	PreviousKeys  []string `yaml:"-"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type HTTPConfig struct {
	Addr        string        `yaml:"addr"`
	TurnTimeout time.Duration `yaml:"turn_timeout"`
}

type MetricsConfig struct {
	// Addr serves /metrics on its own listener. Empty mounts it on the HTTP server.
	Addr string `yaml:"addr"`
}

type NewsConfig struct {
	SearchURL  string `yaml:"search_url"`
	MaxResults int    `yaml:"max_results"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Title:         "Parley",
		Providers:     provider.DefaultSpecs(),
		UseCases:      []string{"Basic Chatbot", "Chatbot With Web", "AI News"},
		MaxIterations: 10,
		LogLevel:      "info",
		Store: StoreConfig{
			Driver:  DriverFile,
			File:    FileConfig{Dir: "AINews"},
			LockTTL: 2 * time.Minute,
		},
		HTTP:        HTTPConfig{Addr: ":8080", TurnTimeout: 2 * time.Minute},
		News:        NewsConfig{MaxResults: 20},
		Credentials: map[string]string{},
	}
}

// Path resolves the config file location: explicit, then PARLEY_CONFIG, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error unless the path was given explicitly.
func Load(explicit string) (*Config, error) {
	cfg := Default()
	path := Path(explicit)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && explicit == "" && os.Getenv(EnvConfig) == "":
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Credentials == nil {
		c.Credentials = map[string]string{}
	}
	keys := []string{EnvTavily}
	for _, p := range c.Providers {
		keys = append(keys, p.KeyEnv)
	}
	for _, k := range keys {
		if v := os.Getenv(k); k != "" && v != "" {
			c.Credentials[k] = v
		}
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.LogLevel = lvl
	}
	if k := os.Getenv(EnvStoreKey); k != "" {
		c.Store.EncryptionKey = k
	}
	for _, k := range strings.Split(os.Getenv(EnvStoreKeyPrevious), ",") {
		if k = strings.TrimSpace(k); k != "" {
			c.Store.PreviousKeys = append(c.Store.PreviousKeys, k)
		}
	}
}

// normalize deduplicates the ordered lists; the first occurrence wins.
func (c *Config) normalize() {
	c.UseCases = dedupe(c.UseCases, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
	c.Providers = dedupe(c.Providers, func(p provider.Spec) string { return strings.ToLower(p.Name) })
	for i := range c.Providers {
		c.Providers[i].Models = dedupe(c.Providers[i].Models, func(s string) string { return s })
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
}

func dedupe[T any](in []T, key func(T) string) []T {
	seen := make(map[string]bool, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		k := key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: at least one provider is required")
	}
	for _, p := range c.Providers {
		if p.Name == "" || len(p.Models) == 0 {
			return fmt.Errorf("config: provider %q needs a name and at least one model", p.Name)
		}
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("config: max_iterations must be positive, got %d", c.MaxIterations)
	}
	if !slices.Contains([]string{DriverMemory, DriverFile, DriverRedis, DriverS3}, c.Store.Driver) {
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	switch c.Store.Driver {
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("config: store.redis.addr is required")
		}
	case DriverS3:
		if c.Store.S3.Bucket == "" {
			return fmt.Errorf("config: store.s3.bucket is required")
		}
	}
	for _, t := range c.Tools {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// YAML renders the effective configuration, without credentials.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	out.Store.Redis.Password = mask(c.Store.Redis.Password)
	out.Store.S3.SecretAccessKey = mask(c.Store.S3.SecretAccessKey)
	return yaml.Marshal(&out)
}

// Masked replaces secret values in YAML output.
const Masked = "********"

func mask(s string) string {
	if s == "" {
		return ""
	}
	return Masked
}
