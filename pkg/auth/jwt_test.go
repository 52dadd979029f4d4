package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("secret", "eneza-identity")
	require.NoError(t, err)

	token, err := svc.GenerateToken(7, "u@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "u@example.com", claims.Email)
}

func TestJWTService_ParseToken_Errors(t *testing.T) {
	svc, err := NewJWTService("secret", "eneza-identity")
	require.NoError(t, err)
	other, err := NewJWTService("another-secret", "eneza-identity")
	require.NoError(t, err)
	foreignIssuer, err := NewJWTService("secret", "someone-else")
	require.NoError(t, err)

	expired, err := svc.GenerateToken(1, "", -time.Minute)
	require.NoError(t, err)
	wrongKey, err := other.GenerateToken(1, "", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := foreignIssuer.GenerateToken(1, "", time.Hour)
	require.NoError(t, err)
	noUser, err := svc.GenerateToken(0, "", time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTCustomClaims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"мусор", "not-a-token", ErrTokenMalformed},
		{"истекший", expired, ErrTokenExpired},
		{"чужой ключ", wrongKey, ErrTokenSignature},
		{"чужой издатель", wrongIssuer, ErrTokenInvalid},
		{"без пользователя", noUser, ErrTokenInvalid},
		{"alg none", none, ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ParseToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = NewJWTService("", "")
	assert.Error(t, err, "Пустой секрет недопустим")
}
