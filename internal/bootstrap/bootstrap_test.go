package bootstrap

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	cfg, err := infra.LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestDegradesWhenUnset(t *testing.T) {
	cfg := testConfig(t)
	logger := zap.NewNop()

	backend, closeFn := Backend(context.Background(), cfg, logger)
	assert.Nil(t, backend)
	closeFn()

	assert.Nil(t, Realtime(cfg, logger))
	assert.Nil(t, LLM(cfg, logger))

	v, s := Auth(cfg, logger)
	assert.Nil(t, v)
	assert.Nil(t, s)
}

func TestAuthFromPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Auth.PrivateKeyData = string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	cfg.Auth.PublicKeyData = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	cfg.Auth.OperatorPasswordHash = "$2a$12$placeholder"

	v, s := Auth(cfg, zap.NewNop())
	require.NotNil(t, v)
	require.NotNil(t, s)

	token, _, err := s.Issue("operator", "sess", map[string]bool{"admin": true})
	require.NoError(t, err)
	claims, err := v.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess", claims.SessionID)

	// битый ключ закрывает консоль, а не открывает
	cfg.Auth.PublicKeyData = "garbage"
	v, s = Auth(cfg, zap.NewNop())
	require.NotNil(t, v)
	assert.Nil(t, s)
	_, err = v.VerifyToken(token)
	assert.ErrorIs(t, err, auth.ErrAuthMisconfigured)
}

func TestAuthPartiallyConfiguredIsLocked(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.OperatorPasswordHash = "$2a$12$placeholder"

	v, s := Auth(cfg, zap.NewNop())
	require.NotNil(t, v)
	assert.Nil(t, s)
	_, err := v.VerifyToken("Bearer anything")
	assert.ErrorIs(t, err, auth.ErrAuthMisconfigured)
}

func TestAuthMismatchedKeysAreLocked(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&other.PublicKey)
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Auth.PrivateKeyData = string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	cfg.Auth.PublicKeyData = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	cfg.Auth.OperatorPasswordHash = "$2a$12$placeholder"

	v, s := Auth(cfg, zap.NewNop())
	require.NotNil(t, v)
	assert.Nil(t, s)
}

func TestRESTBackendSelectedByDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend.URL = "http://127.0.0.1:1"
	cfg.Backend.APIKey = "key"
	cfg.Backend.RequestTimeout = 100 * time.Millisecond

	backend, closeFn := Backend(context.Background(), cfg, zap.NewNop())
	defer closeFn()
	assert.NotNil(t, backend, "unreachable backend is still wired")
}
