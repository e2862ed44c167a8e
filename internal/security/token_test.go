package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/config"
	"launchpad/internal/models"
)

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    50 * 24 * time.Hour,
	}
}

func testUser() models.User {
	return models.User{ID: "u1", Username: "alice", Email: "alice@x.com", Role: models.RoleModerator}
}

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecurityConfig())
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuerRejectsMisconfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SecurityConfig)
	}{
		{"empty access secret", func(c *config.SecurityConfig) { c.JWTAccessSecret = "" }},
		{"empty refresh secret", func(c *config.SecurityConfig) { c.JWTRefreshSecret = "" }},
		{"equal secrets", func(c *config.SecurityConfig) { c.JWTRefreshSecret = c.JWTAccessSecret }},
		{"zero refresh ttl", func(c *config.SecurityConfig) { c.JWTRefreshTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSecurityConfig()
			tt.mutate(&cfg)
			_, err := NewTokenIssuer(cfg)
			assert.Error(t, err)
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newIssuer(t)

	token, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, models.RoleModerator, claims.Role)
}

func TestAccessTokenTamperedSignature(t *testing.T) {
	issuer := newIssuer(t)

	token, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = issuer.VerifyAccessToken(tampered)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestAccessTokenTamperedPayload(t *testing.T) {
	issuer := newIssuer(t)

	token, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	other, err := issuer.IssueAccessToken(models.User{ID: "u2", Username: "mallory", Role: models.RoleAdmin})
	require.NoError(t, err)

	// header and signature of one token, claims of another
	a := strings.Split(token, ".")
	b := strings.Split(other, ".")
	_, err = issuer.VerifyAccessToken(a[0] + "." + b[1] + "." + a[2])
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpired(t *testing.T) {
	issuer := newIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	issuer := newIssuer(t)

	access, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)
	refresh, err := issuer.IssueRefreshToken(testUser())
	require.NoError(t, err)

	_, err = issuer.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRoundTripIsUnique(t *testing.T) {
	issuer := newIssuer(t)

	first, err := issuer.IssueRefreshToken(testUser())
	require.NoError(t, err)
	second, err := issuer.IssueRefreshToken(testUser())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := issuer.VerifyRefreshToken(first)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := newIssuer(t)

	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := issuer.VerifyAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}
