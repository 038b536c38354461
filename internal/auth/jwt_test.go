package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/backoffice/internal/config"
	"github.com/agrodesk/backoffice/internal/core"
	"github.com/agrodesk/backoffice/internal/middleware"
)

func newTestJWTManager(t *testing.T, ttl time.Duration) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "session_private.pem")
	publicPath := filepath.Join(dir, "session_public.pem")

	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	manager, err := NewJWTManager(config.SessionConfig{
		PrivateKeyPath: privatePath,
		PublicKeyPath:  publicPath,
		TokenTTL:       ttl,
		Issuer:         "agrodesk-backoffice",
		Audience:       "agrodesk-api",
	})
	require.NoError(t, err)

	return manager
}

func TestIssueSessionToken_RoundTrip(t *testing.T) {
	manager := newTestJWTManager(t, 7*24*time.Hour)

	issued := middleware.SessionClaims{
		UserID: "3f1c9b4e-0000-4000-8000-000000000001",
		Email:  "agronomist@farm.example",
		Role:   "FIELD_MANAGER",
	}

	token, expiresAt, err := manager.IssueSessionToken(issued)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	claims, err := manager.VerifySessionToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, issued.UserID, claims.UserID)
	assert.Equal(t, issued.Email, claims.Email)
	assert.Equal(t, issued.Role, claims.Role)
}

func TestVerifySessionToken_RoleIsIssuanceSnapshot(t *testing.T) {
	manager := newTestJWTManager(t, time.Hour)

	token, _, err := manager.IssueSessionToken(middleware.SessionClaims{
		UserID: "user-1",
		Email:  "worker@farm.example",
		Role:   "HARVEST_LEAD",
	})
	require.NoError(t, err)

	// The role travels inside the token. However the user's
	// assignments change afterwards, verification keeps reporting
	// what was true at issuance.
	claims, err := manager.VerifySessionToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "HARVEST_LEAD", claims.Role)
}

func TestVerifySessionToken_Expired(t *testing.T) {
	manager := newTestJWTManager(t, -time.Minute)

	token, _, err := manager.IssueSessionToken(middleware.SessionClaims{
		UserID: "user-1",
		Email:  "worker@farm.example",
		Role:   "user",
	})
	require.NoError(t, err)

	_, err = manager.VerifySessionToken(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTokenExpired))
	assert.False(t, errors.Is(err, core.ErrTokenInvalid))
}

func TestVerifySessionToken_WrongKey(t *testing.T) {
	issuer := newTestJWTManager(t, time.Hour)
	verifier := newTestJWTManager(t, time.Hour)

	token, _, err := issuer.IssueSessionToken(middleware.SessionClaims{
		UserID: "user-1",
		Email:  "worker@farm.example",
		Role:   "user",
	})
	require.NoError(t, err)

	_, err = verifier.VerifySessionToken(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTokenInvalid))
}

func TestVerifySessionToken_Tampered(t *testing.T) {
	manager := newTestJWTManager(t, time.Hour)

	token, _, err := manager.IssueSessionToken(middleware.SessionClaims{
		UserID: "user-1",
		Email:  "worker@farm.example",
		Role:   "user",
	})
	require.NoError(t, err)

	// Flip one signature byte.
	tampered := []byte(token)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	_, err = manager.VerifySessionToken(context.Background(), string(tampered))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTokenInvalid))
}

func TestVerifySessionToken_Garbage(t *testing.T) {
	manager := newTestJWTManager(t, time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := manager.VerifySessionToken(context.Background(), input)
		require.Error(t, err, "input %q", input)
		assert.True(t, errors.Is(err, core.ErrTokenInvalid))
	}
}

func TestNewJWTManager_MissingKey(t *testing.T) {
	_, err := NewJWTManager(config.SessionConfig{
		PrivateKeyPath: filepath.Join(t.TempDir(), "missing.pem"),
		TokenTTL:       time.Hour,
	})
	require.Error(t, err)
}
