package service_test

import (
	"testing"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_IssueAndValidate(t *testing.T) {
	clock := newFakeClock(baseTime)
	validator := service.NewSessionValidator("secret", service.WithClock(clock.Now))

	token, err := validator.Issue("admin", time.Hour)
	require.NoError(t, err)

	session, err := validator.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Login)
	assert.True(t, session.ExpiresAt.Equal(baseTime.Add(time.Hour)))
}

func TestSession_Missing(t *testing.T) {
	validator := service.NewSessionValidator("secret")

	_, err := validator.Validate("")
	assert.ErrorIs(t, err, service.ErrSessionMissing)
}

// TestSession_Invalid проверяет отказ для испорченных и чужих токенов
func TestSession_Invalid(t *testing.T) {
	clock := newFakeClock(baseTime)
	validator := service.NewSessionValidator("secret", service.WithClock(clock.Now))
	other := service.NewSessionValidator("another-secret", service.WithClock(clock.Now))

	foreign, err := other.Issue("admin", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"login": "admin"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	noLogin, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": jwt.NewNumericDate(baseTime.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"мусор":         "not-a-token",
		"старая сессия": `{"login":"admin"}`,
		"чужой ключ":    foreign,
		"без срока":     noExpiry,
		"без логина":    noLogin,
		"алгоритм none": unsignedToken(t),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := validator.Validate(token)
			assert.ErrorIs(t, err, service.ErrSessionInvalid)
		})
	}
}

func TestSession_Expired(t *testing.T) {
	clock := newFakeClock(baseTime)
	validator := service.NewSessionValidator("secret", service.WithClock(clock.Now))

	token, err := validator.Issue("admin", time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, service.ErrSessionInvalid)
}

func unsignedToken(t *testing.T) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"login": "admin",
		"exp":   jwt.NewNumericDate(baseTime.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}
