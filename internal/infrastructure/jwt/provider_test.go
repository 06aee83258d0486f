package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/otp-auth-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProvider generates a fresh RSA key pair, writes them to temp files,
// and returns a *Provider. The temp directory is cleaned up automatically
// by t.TempDir() when the test completes.
func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	cfg := &config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		AccessTokenTTL:    24 * time.Hour,
		RefreshTokenTTL:   7 * 24 * time.Hour,
	}
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	return p
}

func TestMintPair_RoundTrip(t *testing.T) {
	p := newTestProvider(t)

	pair, err := p.MintPair("u1", "+15550001111")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	access, err := p.Verify(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "u1", access.UserID)
	assert.Equal(t, "+15550001111", access.Phone)
	assert.Equal(t, TokenTypeAccess, access.TokenType)

	refresh, err := p.Verify(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
}

func TestVerify_TamperedToken(t *testing.T) {
	p := newTestProvider(t)
	pair, err := p.MintPair("u1", "+15550001111")
	require.NoError(t, err)

	_, err = p.Verify(pair.Access + "x")
	assert.Error(t, err)
}

func TestVerify_TokenFromDifferentKeyPair(t *testing.T) {
	p1 := newTestProvider(t)
	p2 := newTestProvider(t)

	pair, err := p1.MintPair("u1", "+15550001111")
	require.NoError(t, err)

	_, err = p2.Verify(pair.Access)
	assert.Error(t, err)
}

func TestNewProvider_MissingKeys(t *testing.T) {
	cfg := &config.Config{
		JWTPrivateKeyPath: "/nonexistent/private.pem",
		JWTPublicKeyPath:  "/nonexistent/public.pem",
	}
	_, err := NewProvider(cfg)
	assert.Error(t, err)
}
