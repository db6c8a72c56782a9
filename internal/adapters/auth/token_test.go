package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_Issue(t *testing.T) {
	secret := "test-secret"
	mgr := NewJWTManager(secret)

	token, err := mgr.Issue("user-123", "u@example.com", "participant", 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Parse and verify claims
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, "participant", claims.Role)
}

func TestJWTManager_Verify(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	token, err := mgr.Issue("user-123", "u@example.com", "participant", time.Hour)
	require.NoError(t, err)

	userID, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestJWTManager_Verify_wrong_secret(t *testing.T) {
	token, err := NewJWTManager("secret-a").Issue("user-123", "u@example.com", "participant", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestJWTManager_Verify_expired(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	token, err := mgr.Issue("user-123", "u@example.com", "participant", -time.Minute)
	require.NoError(t, err)

	_, err = mgr.Verify(token)
	assert.Error(t, err)
}

func TestJWTManager_Verify_garbage(t *testing.T) {
	_, err := NewJWTManager("test-secret").Verify("not.a.token")
	assert.Error(t, err)
}
