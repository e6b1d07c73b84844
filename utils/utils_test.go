package utils

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/restro/config"
	"github.com/ray-remotestate/restro/middlewares"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := config.SecretKey
	config.SecretKey = []byte(secret)
	t.Cleanup(func() { config.SecretKey = prev })
}

func TestGenerateTokens(t *testing.T) {
	withSecret(t, "test-secret")

	access, refresh, err := GenerateTokens(7, "cafe")
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	claims, err := middlewares.ParseToken(access, middlewares.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.RestaurantID)
	assert.Equal(t, "cafe", claims.Slug)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), claims.ExpiresAt.Time, 5*time.Second)

	claims, err = middlewares.ParseToken(refresh, middlewares.TokenRefresh)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), claims.ExpiresAt.Time, 5*time.Second)

	_, err = middlewares.ParseToken(refresh, middlewares.TokenAccess)
	assert.Error(t, err)
	_, err = middlewares.ParseToken(access, middlewares.TokenRefresh)
	assert.Error(t, err)
}

func TestParseTokenRejectsForeignTokens(t *testing.T) {
	withSecret(t, "other-secret")
	forged, err := GenerateAccessToken(1, "cafe")
	require.NoError(t, err)

	withSecret(t, "test-secret")
	_, err = middlewares.ParseToken(forged, middlewares.TokenAccess)
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &middlewares.Claims{
		RestaurantID: 1,
		Type:         middlewares.TokenAccess,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = middlewares.ParseToken(unsigned, middlewares.TokenAccess)
	assert.Error(t, err)

	expired, err := signToken(1, "cafe", middlewares.TokenAccess, -time.Minute)
	require.NoError(t, err)
	_, err = middlewares.ParseToken(expired, middlewares.TokenAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))
	assert.False(t, CheckPassword("not-a-hash", "secret1"))
}

func TestValidSlug(t *testing.T) {
	for _, slug := range []string{"cafe", "my-cafe-2", "ABC"} {
		assert.True(t, ValidSlug(slug), slug)
	}
	for _, slug := range []string{"", "ab", "my cafe", "café", "a/b/c", "cafe_1"} {
		assert.False(t, ValidSlug(slug), slug)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("owner@example.com"))
	assert.False(t, ValidEmail("owner"))
	assert.False(t, ValidEmail("Owner <owner@example.com>"))
	assert.False(t, ValidEmail(""))
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, 201, map[string]int{"id": 3})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":3}`, rec.Body.String())
}

func TestSetRefreshCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetRefreshCookie(rec, "tok", time.Now().Add(time.Hour))

	header := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(header, "refresh_token=tok"))
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "Secure")
	assert.Contains(t, header, "SameSite=Strict")
}
