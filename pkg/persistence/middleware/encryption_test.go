package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	contract "github.com/aretw0/parley/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, cfg middleware.EncryptionConfig, next *memory.Store) ports.ArtifactStore {
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	contract.RunArtifactStoreContract(t, middleware.Chain(memory.NewStore(), mw))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)

	ref, err := secure.Save(ctx, "daily", "# Daily\nsecret sauce")
	require.NoError(t, err)
	assert.Equal(t, "memory://daily", ref.Location)

	raw, err := underlying.Load(ctx, "daily")
	require.NoError(t, err)
	assert.NotContains(t, raw.Content, "secret sauce")
	assert.True(t, strings.HasPrefix(raw.Content, "parley:aes-gcm:v1:"))

	got, err := secure.Load(ctx, "daily")
	require.NoError(t, err)
	assert.Equal(t, "# Daily\nsecret sauce", got.Content)
	assert.Equal(t, raw.Ref, got.Ref)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	old := encrypted(t, middleware.EncryptionConfig{ActiveKey: oldKey}, underlying)
	_, err := old.Save(ctx, "weekly", "encrypted-with-old-key")
	require.NoError(t, err)

	rotated := encrypted(t, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}}, underlying)
	got, err := rotated.Load(ctx, "weekly")
	require.NoError(t, err)
	assert.Equal(t, "encrypted-with-old-key", got.Content)

	_, err = rotated.Save(ctx, "weekly", "encrypted-with-new-key")
	require.NoError(t, err)

	_, err = old.Load(ctx, "weekly")
	assert.Error(t, err, "old key alone must not open new-key content")
}

func TestEncryptionMiddleware_RejectsPlainContent(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	_, err := underlying.Save(ctx, "monthly", "plain")
	require.NoError(t, err)

	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)
	_, err = secure.Load(ctx, "monthly")
	assert.ErrorContains(t, err, "missing the encrypted envelope")
}

func TestEncryptionMiddleware_NotFoundPassesThrough(t *testing.T) {
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, memory.NewStore())
	_, err := secure.Load(context.Background(), "daily")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(" " + base64.RawURLEncoding.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.ErrorContains(t, err, "32 bytes")

	_, err = middleware.ParseKey("***")
	assert.Error(t, err)
}
