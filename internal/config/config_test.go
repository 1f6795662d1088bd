package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Parley", cfg.Title)
	assert.Equal(t, []string{"Basic Chatbot", "Chatbot With Web", "AI News"}, cfg.UseCases)
	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "Groq", cfg.Providers[0].Name)
	assert.Equal(t, "Anthropic", cfg.Providers[1].Name)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfig, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Parley", cfg.Title)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
title: My Parley
max_iterations: 4
use_cases: [AI News, Basic Chatbot, ai news]
providers:
  - name: Groq
    kind: openai
    key_env: GROQ_API_KEY
    models: [m1, m2, m1]
  - name: groq
    kind: openai
    models: [other]
store:
  driver: Redis
  redis:
    addr: localhost:6379
    ttl: 24h
http:
  addr: ":9000"
  turn_timeout: 30s
`)
	t.Setenv(EnvConfig, path)
	t.Setenv("GROQ_API_KEY", "gk")
	t.Setenv(EnvTavily, "tk")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "My Parley", cfg.Title)
	assert.Equal(t, 4, cfg.MaxIterations)
	assert.Equal(t, []string{"AI News", "Basic Chatbot"}, cfg.UseCases)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, []string{"m1", "m2"}, cfg.Providers[0].Models)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.TurnTimeout)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, map[string]string{"GROQ_API_KEY": "gk", EnvTavily: "tk"}, cfg.Credentials)

	// Unset sections keep their defaults.
	assert.Equal(t, 20, cfg.News.MaxResults)
}

func TestParse_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bad driver", "store: {driver: ftp}", "unknown store driver"},
		{"redis needs addr", "store: {driver: redis}", "store.redis.addr"},
		{"s3 needs bucket", "store: {driver: s3}", "store.s3.bucket"},
		{"no providers", "providers: []", "at least one provider"},
		{"provider without models", "providers: [{name: X}]", "at least one model"},
		{"iterations", "max_iterations: 0", "max_iterations"},
		{"tool without command", "tools: [{name: t}]", "command is required"},
		{"not yaml", "title: [", "failed to parse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	assert.Equal(t, DefaultPath, Path(""))
	t.Setenv(EnvConfig, "/etc/parley.yaml")
	assert.Equal(t, "/etc/parley.yaml", Path(""))
	assert.Equal(t, "x.yaml", Path("x.yaml"))
}

func TestYAMLOmitsCredentials(t *testing.T) {
	cfg := Default()
	cfg.Credentials["GROQ_API_KEY"] = "GROQ-KEY-VALUE"
	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "GROQ-KEY-VALUE")
	assert.Contains(t, string(out), "title: Parley")
}

func TestLoad_StoreKeysFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvStoreKey, "ACTIVE-KEY-VALUE")
	t.Setenv(EnvStoreKeyPrevious, "OLD-KEY-1, ,OLD-KEY-2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE-KEY-VALUE", cfg.Store.EncryptionKey)
	assert.Equal(t, []string{"OLD-KEY-1", "OLD-KEY-2"}, cfg.Store.PreviousKeys)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "ACTIVE-KEY-VALUE")
	assert.NotContains(t, string(out), "OLD-KEY-1")
}

func TestYAMLMasksStoreSecrets(t *testing.T) {
	cfg := Default()
	cfg.Store.Redis.Password = "REDIS-PW-VALUE"
	cfg.Store.S3.SecretAccessKey = "S3-SECRET-VALUE"
	cfg.Store.S3.AccessKeyID = "AKIDEXAMPLE"

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "REDIS-PW-VALUE")
	assert.NotContains(t, string(out), "S3-SECRET-VALUE")
	assert.Contains(t, string(out), Masked)
	assert.Contains(t, string(out), "AKIDEXAMPLE")

	// The original stays intact for the stores.
	assert.Equal(t, "REDIS-PW-VALUE", cfg.Store.Redis.Password)

	parsed, err := Parse([]byte("store:\n  driver: s3\n  s3:\n    bucket: b\n    secret_access_key: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", parsed.Store.S3.SecretAccessKey)
}
