package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   "thisisasecretkeythatis32charslong!!",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 10080,
	}
}

func newTestService(t *testing.T) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)
	return svc.(*hmacJWTService)
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = "tooshort"

	_, err := NewJWTService(cfg)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	userID := uuid.New()

	token, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestTokenTypeMisuseRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	userID := uuid.New()

	access, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	// A refresh token must not pass as an access token and vice versa.
	_, err = svc.ValidateToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateRefreshToken(ctx, access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestExpiredTokenRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	userID := uuid.New()

	issued := time.Now().UTC()
	svc.timeFunc = func() time.Time { return issued }

	access, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	// Jump past both lifetimes plus the clock-skew leeway.
	svc.timeFunc = func() time.Time { return issued.Add(8 * 24 * time.Hour) }

	_, err = svc.ValidateToken(ctx, access)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = svc.ValidateRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)
}

func TestClockSkewTolerated(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	userID := uuid.New()

	issued := time.Now().UTC()
	svc.timeFunc = func() time.Time { return issued }

	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	// One minute past expiry is still inside the two-minute leeway.
	svc.timeFunc = func() time.Time { return issued.Add(61 * time.Minute) }

	_, err = svc.ValidateToken(ctx, token)
	assert.NoError(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	token, err := svc.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.ValidateToken(ctx, tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForeignSignatureRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "anentirelydifferentsecretthatis32chars!"
	other, err := NewJWTService(otherCfg)
	require.NoError(t, err)

	token, err := other.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMalformedTokenRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	for _, tokenString := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateToken(ctx, tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q should be rejected", tokenString)
	}
}

func TestBcryptVerifier(t *testing.T) {
	v := NewBcryptVerifier()

	// Hash generated with bcrypt.GenerateFromPassword for "correct horse battery staple".
	const password = "correct horse battery staple"
	hashed := hashForTest(t, password)

	assert.NoError(t, v.Compare(hashed, password))
	assert.Error(t, v.Compare(hashed, "wrong password entirely"))
}
